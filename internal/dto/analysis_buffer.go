package dto

import (
	"time"

	"boxcounter/internal/model"
)

// BufferedAnalysis holds a finished analysis before it is flushed to disk and database.
type BufferedAnalysis struct {
	ID        string
	Filename  string
	CreatedAt time.Time
	Duration  time.Duration
	Result    *model.AnalysisResult
	Image     []byte // annotated JPEG, may be nil
}
