package analyzer

import (
	"context"
	"image"

	"boxcounter/internal/model"
)

// Detector finds regions in a full image. Implementations must not modify img.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]model.Detection, error)
}

// BarcodeDecoder returns every payload it can read from img.
type BarcodeDecoder interface {
	Name() string
	Decode(img image.Image) ([]string, error)
}

// TextReader returns the text fragments recognized in img.
type TextReader interface {
	ReadText(img image.Image) ([]string, error)
}
