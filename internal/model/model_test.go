package model

import (
	"image"
	"testing"
	"time"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		outcome   Outcome
		name      string
		product   string
		confirmed bool
		visual    bool
	}{
		{Unidentified, "unidentified", "", false, false},
		{Type618Confirmed, "type_618_confirmed", Product618, true, false},
		{Type623Confirmed, "type_623_confirmed", Product623, true, false},
		{Type618Visual, "type_618_visual", Product618, false, true},
		{Type623Visual, "type_623_visual", Product623, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.String(); got != tt.name {
				t.Errorf("String() = %q", got)
			}
			if got := ParseOutcome(tt.name); got != tt.outcome {
				t.Errorf("ParseOutcome(%q) = %v", tt.name, got)
			}
			if got := tt.outcome.ProductType(); got != tt.product {
				t.Errorf("ProductType() = %q", got)
			}
			if tt.outcome.IsConfirmed() != tt.confirmed || tt.outcome.IsVisual() != tt.visual {
				t.Errorf("IsConfirmed/IsVisual = %v/%v", tt.outcome.IsConfirmed(), tt.outcome.IsVisual())
			}
		})
	}

	if ParseOutcome("type_999_visual") != Unidentified {
		t.Error("unknown names should parse as unidentified")
	}
	if Outcome(42).String() != "unidentified" {
		t.Error("out of range outcome should print as unidentified")
	}
}

func TestCountsAndTotals(t *testing.T) {
	var c Counts
	c.Add(Product618)
	c.Add(Product618)
	c.Add(Product623)
	c.Add("")
	c.Add("700")
	if c.Boxes618 != 2 || c.Boxes623 != 1 || c.Total() != 3 {
		t.Fatalf("unexpected counts: %+v", c)
	}

	r := &AnalysisResult{
		Confirmed: Counts{Boxes618: 2, Boxes623: 1},
		Visual:    Counts{Boxes618: 1, Boxes623: 3},
	}
	if r.TotalProcessed() != 7 || r.Boxes618Total() != 3 || r.Boxes623Total() != 4 {
		t.Errorf("totals = %d/%d/%d", r.TotalProcessed(), r.Boxes618Total(), r.Boxes623Total())
	}
}

func TestRegion(t *testing.T) {
	r := NewRegion(image.Rect(10, 20, 110, 70))
	if r.Width() != 100 || r.Height() != 50 || r.Empty() {
		t.Fatalf("unexpected region %+v", r)
	}
	if r.Rect() != image.Rect(10, 20, 110, 70) {
		t.Errorf("Rect() = %v", r.Rect())
	}

	clipped := Region{X1: -5, Y1: 40, X2: 50, Y2: 200}.Clip(image.Rect(0, 0, 100, 100))
	if clipped != (Region{X1: 0, Y1: 40, X2: 50, Y2: 100}) {
		t.Errorf("Clip = %+v", clipped)
	}

	outside := Region{X1: 200, Y1: 200, X2: 300, Y2: 300}.Clip(image.Rect(0, 0, 100, 100))
	if !outside.Empty() {
		t.Errorf("region outside the image should clip to empty, got %+v", outside)
	}

	if !(Region{X1: 5, Y1: 5, X2: 5, Y2: 10}).Empty() {
		t.Error("zero-width region should be empty")
	}
}

func TestNewAnalysisRecord(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	result := &AnalysisResult{
		Confirmed:          Counts{Boxes618: 1},
		Visual:             Counts{Boxes623: 2},
		TotalBoxesDetected: 4,
		LabelsDetected:     2,
		UnidentifiedLabels: 1,
	}

	rec := NewAnalysisRecord("id-1", "scene.jpg", at, result)
	if rec.ID != "id-1" || rec.Filename != "scene.jpg" || !rec.CreatedAt.Equal(at) {
		t.Errorf("unexpected identity fields: %+v", rec)
	}
	if rec.Confirmed618 != 1 || rec.Visual623 != 2 || rec.TotalBoxesDetected != 4 || rec.UnidentifiedLabels != 1 {
		t.Errorf("unexpected counts: %+v", rec)
	}
	if rec.TotalProcessed() != result.TotalProcessed() {
		t.Errorf("TotalProcessed = %d, expected %d", rec.TotalProcessed(), result.TotalProcessed())
	}

	f := NewFindingRecord("id-1", Finding{
		Stage:   StageBox,
		Region:  Region{X1: 1, Y1: 2, X2: 3, Y2: 4},
		Label:   "caixa_623",
		Outcome: Type623Visual,
	})
	if f.Outcome != "type_623_visual" || f.X2 != 3 || f.Y2 != 4 || f.AnalysisID != "id-1" {
		t.Errorf("unexpected finding record: %+v", f)
	}
}
