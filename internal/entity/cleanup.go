package entity

// CleanupResult is the summary of one purge run. A run with FailedCount > 0
// is a partial success: the failed keys stay eligible for the next run.
type CleanupResult struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	DeletedCount int       `json:"deletedCount"`
	FailedCount  int       `json:"failedCount,omitempty"`
	FailedItems  []NoteKey `json:"failedItems,omitempty"`
}

func (r CleanupResult) Partial() bool {
	return r.FailedCount > 0
}
