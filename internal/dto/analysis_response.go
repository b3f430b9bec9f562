package dto

import "boxcounter/internal/model"

// AnalyzeResponse is the body returned by POST /analyze.
type AnalyzeResponse struct {
	Success bool          `json:"success"`
	Data    *AnalysisData `json:"data"`
}

type AnalysisData struct {
	ConfirmedCount Count   `json:"confirmed_count"`
	VisualCount    Count   `json:"visual_count"`
	Summary        Summary `json:"summary"`
}

type Count struct {
	Boxes618 int `json:"boxes_618"`
	Boxes623 int `json:"boxes_623"`
	Total    int `json:"total"`
}

// Summary keeps the original field names; the trailing fields are additions.
type Summary struct {
	TotalBoxesDetectedByVisualModel int    `json:"total_boxes_detected_by_visual_model"`
	TotalProcessed                  int    `json:"total_processed"`
	Boxes618Total                   int    `json:"boxes_618_total"`
	Boxes623Total                   int    `json:"boxes_623_total"`
	LabelsDetected                  int    `json:"labels_detected"`
	UnidentifiedLabels              int    `json:"unidentified_labels"`
	AnalysisID                      string `json:"analysis_id,omitempty"`
}

func newCount(c model.Counts) Count {
	return Count{Boxes618: c.Boxes618, Boxes623: c.Boxes623, Total: c.Total()}
}

// NewAnalysisData builds the response payload from a result.
func NewAnalysisData(analysisID string, r *model.AnalysisResult) *AnalysisData {
	return &AnalysisData{
		ConfirmedCount: newCount(r.Confirmed),
		VisualCount:    newCount(r.Visual),
		Summary: Summary{
			TotalBoxesDetectedByVisualModel: r.TotalBoxesDetected,
			TotalProcessed:                  r.TotalProcessed(),
			Boxes618Total:                   r.Boxes618Total(),
			Boxes623Total:                   r.Boxes623Total(),
			LabelsDetected:                  r.LabelsDetected,
			UnidentifiedLabels:              r.UnidentifiedLabels,
			AnalysisID:                      analysisID,
		},
	}
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Success       bool   `json:"success"`
	Status        string `json:"status"`
	AnalyzerReady bool   `json:"analyzer_ready"`
	Service       string `json:"service"`
}
