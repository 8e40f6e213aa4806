package models

import (
	"time"
)

// ValidationError represents a single validation error in a seed file
type ValidationError struct {
	Line    int         `json:"line"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ImportResult summarizes a seed import run
type ImportResult struct {
	Resource        string            `json:"resource"`
	TotalRecords    int               `json:"total_records"`
	ProcessedCount  int               `json:"processed"`
	SuccessfulCount int               `json:"successful"`
	SkippedCount    int               `json:"skipped"`
	FailedCount     int               `json:"failed"`
	DurationMs      int64             `json:"duration_ms"`
	RowsPerSec      float64           `json:"rows_per_sec"`
	Errors          []ValidationError `json:"errors,omitempty"`
	StartedAt       time.Time         `json:"started_at"`
	CompletedAt     time.Time         `json:"completed_at"`
}
