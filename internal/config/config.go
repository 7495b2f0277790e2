package config

import "time"

type Config struct {
	App      AppConfig      `env-prefix:"APP_"`
	HTTP     HTTPConfig     `env-prefix:"HTTP_"`
	Database DatabaseConfig `env-prefix:"DB_"`
	Notes    NotesConfig    `env-prefix:"NOTES_"`
	Cleanup  CleanupConfig  `env-prefix:"CLEANUP_"`
	Client   ClientConfig   `env-prefix:"CLIENT_"`
}

type AppConfig struct {
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
	Pretty   bool   `env:"PRETTY" env-default:"false"`
	// Identity stamped on every request until real auth sits in front of the API.
	UserID string `env:"USER_ID" env-default:"anonymous"`
}

type HTTPConfig struct {
	Addr          string `env:"ADDR" env-default:":8081"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN" env-default:"*"`
}

type DatabaseConfig struct {
	Port          string `env:"PORT" env-default:"5432"`
	Host          string `env:"HOST" env-default:"localhost"`
	Name          string `env:"NAME" env-default:"postgres"`
	User          string `env:"USER" env-default:"user"`
	Password      string `env:"PASSWORD"`
	RetryAttempts uint   `env:"RETRY_ATTEMPTS" env-default:"3"`
	// InMemory swaps PostgreSQL for a process-local store in the API server.
	InMemory bool `env:"IN_MEMORY" env-default:"false"`
}

type NotesConfig struct {
	GracePeriod time.Duration `env:"GRACE_PERIOD" env-default:"168h"`
}

type CleanupConfig struct {
	BatchSize   int           `env:"BATCH_SIZE" env-default:"25"`
	MaxAttempts uint          `env:"MAX_ATTEMPTS" env-default:"3"`
	BaseDelay   time.Duration `env:"BASE_DELAY" env-default:"200ms"`
}

type ClientConfig struct {
	APIURL        string        `env:"API_URL" env-default:"http://localhost:8081"`
	DBPath        string        `env:"DB_PATH" env-default:"notes.db"`
	LogFile       string        `env:"LOG_FILE"`
	ProbeInterval time.Duration `env:"PROBE_INTERVAL" env-default:"5s"`
	Timeout       time.Duration `env:"TIMEOUT" env-default:"10s"`
}
