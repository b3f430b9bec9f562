package ai

import (
	"fmt"
	"image"
)

// candidate is one anchor that passed the score threshold, before NMS.
type candidate struct {
	box   image.Rectangle
	score float32
	class int
}

// decodeYOLO reads a YOLOv8 output tensor laid out as [attrs][anchors]
// (attrs = 4 box values + one score per class). Box values are centre x,
// centre y, width, height in network input pixels; scaleX/scaleY map them
// back to the source image.
func decodeYOLO(data []float32, attrs, anchors int, scaleX, scaleY float64, threshold float32) ([]candidate, error) {
	if attrs < 5 {
		return nil, fmt.Errorf("unexpected output layout: %d attributes", attrs)
	}
	if len(data) < attrs*anchors {
		return nil, fmt.Errorf("output too short: %d values for %dx%d", len(data), attrs, anchors)
	}

	var out []candidate
	for i := 0; i < anchors; i++ {
		bestClass, bestScore := -1, float32(0)
		for c := 4; c < attrs; c++ {
			if score := data[c*anchors+i]; score > bestScore {
				bestClass, bestScore = c-4, score
			}
		}
		if bestClass < 0 || bestScore < threshold {
			continue
		}

		cx := float64(data[i])
		cy := float64(data[anchors+i])
		w := float64(data[2*anchors+i])
		h := float64(data[3*anchors+i])

		out = append(out, candidate{
			box: image.Rect(
				int((cx-w/2)*scaleX),
				int((cy-h/2)*scaleY),
				int((cx+w/2)*scaleX),
				int((cy+h/2)*scaleY),
			),
			score: bestScore,
			class: bestClass,
		})
	}
	return out, nil
}

// className returns the configured name for a class index.
func className(classes []string, id int) string {
	if id >= 0 && id < len(classes) {
		return classes[id]
	}
	return fmt.Sprintf("class_%d", id)
}
