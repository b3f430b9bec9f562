package analyzer

import "boxcounter/internal/model"

// OverlapThreshold is the IoU above which a box counts as already seen.
const OverlapThreshold = 0.5

// IoU returns the intersection over union of a and b, counting boundary
// pixels on both sides. A zero union yields 0.
func IoU(a, b model.Region) float64 {
	x1 := max(a.X1, b.X1)
	y1 := max(a.Y1, b.Y1)
	x2 := min(a.X2, b.X2)
	y2 := min(a.Y2, b.Y2)

	interW := max(0, x2-x1+1)
	interH := max(0, y2-y1+1)
	inter := float64(interW * interH)

	areaA := float64(max(0, a.X2-a.X1+1) * max(0, a.Y2-a.Y1+1))
	areaB := float64(max(0, b.X2-b.X1+1) * max(0, b.Y2-b.Y1+1))

	union := areaA + areaB - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// IsAlreadyCounted reports whether candidate overlaps any confirmed region
// by more than OverlapThreshold.
func IsAlreadyCounted(candidate model.Region, confirmed []model.Region) bool {
	for _, region := range confirmed {
		if IoU(candidate, region) > OverlapThreshold {
			return true
		}
	}
	return false
}

// ConfirmedRegionSet collects the identified label regions of one analysis.
type ConfirmedRegionSet struct {
	regions []model.Region
}

func (s *ConfirmedRegionSet) Add(r model.Region) {
	s.regions = append(s.regions, r)
}

func (s *ConfirmedRegionSet) Len() int {
	return len(s.regions)
}

// Covers reports whether r duplicates a region already in the set.
func (s *ConfirmedRegionSet) Covers(r model.Region) bool {
	return IsAlreadyCounted(r, s.regions)
}

// PayloadSet records the barcode payloads counted during one analysis. A
// label whose payload is already in the set is the same unit seen twice.
type PayloadSet struct {
	seen map[string]bool
}

func NewPayloadSet() *PayloadSet {
	return &PayloadSet{seen: make(map[string]bool)}
}

// Add records payload and reports whether it was new. An empty payload is
// never recorded and always counts as new.
func (s *PayloadSet) Add(payload string) bool {
	if payload == "" {
		return true
	}
	if s.seen[payload] {
		return false
	}
	s.seen[payload] = true
	return true
}

func (s *PayloadSet) Len() int {
	return len(s.seen)
}
