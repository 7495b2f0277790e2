package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

func Parse() (Config, error) {
	godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse cfg: %v", err)
	}

	return cfg, nil
}

// ParseFile reads a yaml, toml, json or .env file; environment variables
// still override values from the file.
func ParseFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse cfg file %s: %v", path, err)
	}

	return cfg, nil
}
