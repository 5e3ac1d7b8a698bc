package domain

// Per-document outcome status constants.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// IndexOutcome records how a single document fared during ingestion.
type IndexOutcome struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// IndexSummary aggregates per-document outcomes for one ingestion run.
type IndexSummary struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Skipped   int            `json:"skipped"`
	Failed    int            `json:"failed"`
	Outcomes  []IndexOutcome `json:"outcomes,omitempty"`
}

// IndexStatus reports whether a project has ever been indexed and how many
// records it holds.
type IndexStatus struct {
	Indexed bool `json:"indexed"`
	Count   int  `json:"count"`
}
