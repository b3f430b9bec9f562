// AnalysisFilters describe user-provided filters to narrow the analysis history.
package dto

import "time"

type AnalysisFilters struct {
	DateAfter  time.Time
	DateBefore time.Time
	Limit      int
	Offset     int
}
