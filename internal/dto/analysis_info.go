package dto

import (
	"encoding/json"
	"time"

	"boxcounter/internal/model"
)

// AnalysisInfo is one row of the analysis history listing.
type AnalysisInfo struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	Date           time.Time `json:"date"`
	TimeOfDay      time.Time `json:"timeOfDay"`
	ConfirmedCount Count     `json:"confirmed_count"`
	VisualCount    Count     `json:"visual_count"`
	TotalProcessed int       `json:"total_processed"`
	HasImage       bool      `json:"has_image"`
}

func NewAnalysisInfo(r model.AnalysisRecord) AnalysisInfo {
	return AnalysisInfo{
		ID:             r.ID,
		Filename:       r.Filename,
		Date:           r.CreatedAt,
		TimeOfDay:      r.CreatedAt,
		ConfirmedCount: Count{Boxes618: r.Confirmed618, Boxes623: r.Confirmed623, Total: r.Confirmed618 + r.Confirmed623},
		VisualCount:    Count{Boxes618: r.Visual618, Boxes623: r.Visual623, Total: r.Visual618 + r.Visual623},
		TotalProcessed: r.TotalProcessed(),
		HasImage:       r.ImagePath != "",
	}
}

// MarshalJSON customizes JSON output for AnalysisInfo to format date and time-of-day.
func (a AnalysisInfo) MarshalJSON() ([]byte, error) {
	type Alias AnalysisInfo
	return json.Marshal(&struct {
		Date      string `json:"date"`
		TimeOfDay string `json:"timeOfDay"`
		Alias
	}{
		Date:      a.Date.Format("02-01-2006"),
		TimeOfDay: a.TimeOfDay.Format("15:04"),
		Alias:     (Alias)(a),
	})
}
