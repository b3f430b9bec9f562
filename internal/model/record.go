package model

import "time"

// AnalysisRecord is the persisted summary of one analyzed upload.
type AnalysisRecord struct {
	ID                 string    `json:"id"`
	Filename           string    `json:"filename"`
	CreatedAt          time.Time `json:"created_at"`
	Confirmed618       int       `json:"confirmed_618"`
	Confirmed623       int       `json:"confirmed_623"`
	Visual618          int       `json:"visual_618"`
	Visual623          int       `json:"visual_623"`
	TotalBoxesDetected int       `json:"total_boxes_detected"`
	LabelsDetected     int       `json:"labels_detected"`
	UnidentifiedLabels int       `json:"unidentified_labels"`
	DurationMs         int64     `json:"duration_ms"`
	ImagePath          string    `json:"image_path"`
	FileSize           int64     `json:"file_size"`
}

// NewAnalysisRecord flattens result into a record.
func NewAnalysisRecord(id, filename string, createdAt time.Time, result *AnalysisResult) *AnalysisRecord {
	return &AnalysisRecord{
		ID:                 id,
		Filename:           filename,
		CreatedAt:          createdAt,
		Confirmed618:       result.Confirmed.Boxes618,
		Confirmed623:       result.Confirmed.Boxes623,
		Visual618:          result.Visual.Boxes618,
		Visual623:          result.Visual.Boxes623,
		TotalBoxesDetected: result.TotalBoxesDetected,
		LabelsDetected:     result.LabelsDetected,
		UnidentifiedLabels: result.UnidentifiedLabels,
	}
}

func (r *AnalysisRecord) TotalProcessed() int {
	return r.Confirmed618 + r.Confirmed623 + r.Visual618 + r.Visual623
}

// FindingRecord is one persisted finding of an analysis.
type FindingRecord struct {
	ID           int64   `json:"id"`
	AnalysisID   string  `json:"analysis_id"`
	Stage        string  `json:"stage"`
	X1           int     `json:"x1"`
	Y1           int     `json:"y1"`
	X2           int     `json:"x2"`
	Y2           int     `json:"y2"`
	Label        string  `json:"label"`
	Confidence   float64 `json:"confidence"`
	Outcome      string  `json:"outcome"`
	Evidence     string  `json:"evidence"`
	Deduplicated bool    `json:"deduplicated"`
}

// NewFindingRecord converts a finding for storage.
func NewFindingRecord(analysisID string, f Finding) FindingRecord {
	return FindingRecord{
		AnalysisID:   analysisID,
		Stage:        f.Stage,
		X1:           f.Region.X1,
		Y1:           f.Region.Y1,
		X2:           f.Region.X2,
		Y2:           f.Region.Y2,
		Label:        f.Label,
		Confidence:   f.Confidence,
		Outcome:      f.Outcome.String(),
		Evidence:     f.Evidence,
		Deduplicated: f.Deduplicated,
	}
}

// AnalysisStats aggregates the stored history.
type AnalysisStats struct {
	TotalAnalyses  int            `json:"total_analyses"`
	Confirmed618   int            `json:"confirmed_618"`
	Confirmed623   int            `json:"confirmed_623"`
	Visual618      int            `json:"visual_618"`
	Visual623      int            `json:"visual_623"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	EvidenceCounts map[string]int `json:"evidence_counts"`
	AvgDurationMs  float64        `json:"avg_duration_ms"`
	LastAnalysisAt *time.Time     `json:"last_analysis_at,omitempty"`
}
