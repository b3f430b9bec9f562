package analyzer

import (
	"context"
	"image"
	"image/color"
	"io"

	"boxcounter/internal/logger"
	"boxcounter/internal/model"
)

type fakeDetector struct {
	detections []model.Detection
	err        error
	calls      int
}

func (d *fakeDetector) Detect(ctx context.Context, img image.Image) ([]model.Detection, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.detections, nil
}

// fakeDecoder answers by crop width so one decoder can serve several regions.
type fakeDecoder struct {
	name     string
	payloads []string
	byWidth  map[int][]string
	err      error
	panicMsg string
	calls    int
}

func (d *fakeDecoder) Name() string { return d.name }

func (d *fakeDecoder) Decode(img image.Image) ([]string, error) {
	d.calls++
	if d.panicMsg != "" {
		panic(d.panicMsg)
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.byWidth != nil {
		return d.byWidth[img.Bounds().Dx()], nil
	}
	return d.payloads, nil
}

type fakeReader struct {
	fragments []string
	byWidth   map[int][]string
	err       error
	calls     int
}

func (r *fakeReader) ReadText(img image.Image) ([]string, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if r.byWidth != nil {
		return r.byWidth[img.Bounds().Dx()], nil
	}
	return r.fragments, nil
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, true)
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func region(x1, y1, x2, y2 int) model.Region {
	return model.Region{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func detection(r model.Region, label string) model.Detection {
	return model.Detection{Region: r, Label: label, Confidence: 0.9}
}
