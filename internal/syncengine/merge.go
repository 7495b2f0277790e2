package syncengine

import "github.com/evgeniy-krivenko/notes-sync/internal/entity"

type Decision int

const (
	// DecisionKeepLocal leaves the device copy untouched.
	DecisionKeepLocal Decision = iota
	// DecisionImport stores a remote note the device has never seen.
	DecisionImport
	// DecisionOverwrite replaces the device copy with a strictly newer remote one.
	DecisionOverwrite
)

func (d Decision) String() string {
	switch d {
	case DecisionImport:
		return "import"
	case DecisionOverwrite:
		return "overwrite"
	default:
		return "keep_local"
	}
}

// Decide picks the winner between the device copy (nil when absent) and the
// remote copy of one note. A tie keeps the local copy.
func Decide(local *entity.Note, remote entity.Note) Decision {
	switch {
	case local == nil:
		return DecisionImport
	case remote.UpdatedAt.After(local.UpdatedAt):
		return DecisionOverwrite
	default:
		return DecisionKeepLocal
	}
}
