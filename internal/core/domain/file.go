package domain

import "time"

type FileStatus string

const (
	StatusPending    FileStatus = "pending"
	StatusProcessing FileStatus = "processing"
	StatusCompleted  FileStatus = "completed"
	StatusError      FileStatus = "error"
)

// CanTransitionTo enforces the forward-only lifecycle:
// pending -> processing -> {completed | error}.
func (s FileStatus) CanTransitionTo(next FileStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusError
	case StatusProcessing:
		return next == StatusCompleted || next == StatusError
	default:
		return false
	}
}

// UserFacingError is the only error text surfaced to clients for a failed
// file; the underlying cause stays in server logs.
const UserFacingError = "Failed to generate summary"

// FileRecord tracks one file through the upload->summarize pipeline. Position
// preserves submission order so listings never depend on completion order.
type FileRecord struct {
	ID           string     `json:"id"`
	BatchID      string     `json:"batch_id"`
	Position     int        `json:"position"`
	Filename     string     `json:"filename"`
	URL          string     `json:"url"`
	Status       FileStatus `json:"status"`
	Summary      string     `json:"summary,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Pages        int        `json:"pages,omitempty"`
	TextLength   int        `json:"text_length,omitempty"`
	Hidden       bool       `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type SummaryMetadata struct {
	Pages      int `json:"pages"`
	TextLength int `json:"textLength"`
}

// SummaryResult is the output of one summarization call: generated summary,
// the extracted source text and stable extraction metadata.
type SummaryResult struct {
	Summary     string          `json:"summary"`
	TextContent string          `json:"textContent"`
	Metadata    SummaryMetadata `json:"metadata"`
}

type Batch struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}
