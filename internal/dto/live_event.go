package dto

import "time"

// LiveEvent is pushed to /api/live subscribers after each analysis.
type LiveEvent struct {
	Type       string        `json:"type"`
	AnalysisID string        `json:"analysis_id"`
	Filename   string        `json:"filename"`
	Timestamp  time.Time     `json:"timestamp"`
	DurationMs int64         `json:"duration_ms"`
	Data       *AnalysisData `json:"data"`
}
