package model

// Analysis stages.
const (
	StageLabel = "label"
	StageBox   = "box"
)

// Evidence sources recorded on findings.
const (
	EvidenceBarcode    = "barcode"
	EvidenceOCR        = "ocr"
	EvidenceClassifier = "classifier"
)

// Counts holds per-product tallies.
type Counts struct {
	Boxes618 int `json:"boxes_618"`
	Boxes623 int `json:"boxes_623"`
}

// Total returns the sum over both product types.
func (c Counts) Total() int {
	return c.Boxes618 + c.Boxes623
}

// Add increments the tally for productType ("618" or "623"). Other values are ignored.
func (c *Counts) Add(productType string) {
	switch productType {
	case Product618:
		c.Boxes618++
	case Product623:
		c.Boxes623++
	}
}

// Finding records what happened to one detection during an analysis.
type Finding struct {
	Stage        string  `json:"stage"`
	Region       Region  `json:"region"`
	Label        string  `json:"label,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
	Outcome      Outcome `json:"-"`
	Evidence     string  `json:"evidence,omitempty"`
	Deduplicated bool    `json:"deduplicated,omitempty"`
}

// AnalysisResult is the aggregated outcome of analyzing one image.
type AnalysisResult struct {
	Confirmed Counts
	Visual    Counts

	// TotalBoxesDetected is the number of whole-box detections from stage 2.
	TotalBoxesDetected int
	// LabelsDetected is the number of label detections from stage 1.
	LabelsDetected     int
	UnidentifiedLabels int

	Findings []Finding
}

// TotalProcessed is confirmed plus visual over both product types.
func (r *AnalysisResult) TotalProcessed() int {
	return r.Confirmed.Total() + r.Visual.Total()
}

// Boxes618Total is confirmed plus visual for product 618.
func (r *AnalysisResult) Boxes618Total() int {
	return r.Confirmed.Boxes618 + r.Visual.Boxes618
}

// Boxes623Total is confirmed plus visual for product 623.
func (r *AnalysisResult) Boxes623Total() int {
	return r.Confirmed.Boxes623 + r.Visual.Boxes623
}
