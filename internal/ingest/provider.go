package ingest

// Result holds the outcome of a history import.
type Result struct {
	SessionsReceived int `json:"sessions_received"`
	SessionsImported int `json:"sessions_imported"`
	SessionsSkipped  int `json:"sessions_skipped"`

	SetsReceived int `json:"sets_received"`
	SetsImported int `json:"sets_imported"`

	// Exercise names that did not match a program template and were
	// stored under a generated id.
	UnmatchedExercises []string `json:"unmatched_exercises,omitempty"`

	Message string `json:"message,omitempty"`
}
