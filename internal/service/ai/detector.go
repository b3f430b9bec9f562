package ai

import (
	"context"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"boxcounter/internal/logger"
	"boxcounter/internal/model"
)

// Options configures one YOLO network.
type Options struct {
	ModelPath    string
	Classes      []string
	InputSize    int
	Threshold    float64
	NMSThreshold float64
}

// YOLODetector runs a YOLOv8 ONNX export through the OpenCV DNN module.
// A gocv.Net is not safe for concurrent use; share detectors through a Pool.
type YOLODetector struct {
	net    gocv.Net
	opts   Options
	logger *logger.Logger
}

// NewYOLODetector loads the network at opts.ModelPath.
func NewYOLODetector(opts Options, logger *logger.Logger) (*YOLODetector, error) {
	if opts.InputSize <= 0 {
		opts.InputSize = 640
	}
	d := &YOLODetector{opts: opts, logger: logger}
	if err := d.initializeNet(); err != nil {
		return nil, err
	}
	return d, nil
}

// initializeNet loads the DNN network and sets backend/target preferences.
func (d *YOLODetector) initializeNet() error {
	if _, err := os.Stat(d.opts.ModelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", d.opts.ModelPath)
	}

	net := gocv.ReadNet(d.opts.ModelPath, "")
	if net.Empty() {
		return fmt.Errorf("failed to load network %s", d.opts.ModelPath)
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return fmt.Errorf("failed to set preferable backend or target")
	}

	d.net = net
	d.logger.Info("Detection network %s initialized (%d classes)", d.opts.ModelPath, len(d.opts.Classes))
	return nil
}

// Detect returns the regions found in img after confidence filtering and NMS.
func (d *YOLODetector) Detect(ctx context.Context, img image.Image) ([]model.Detection, error) {
	if d.net.Empty() {
		return nil, fmt.Errorf("detection network not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("converted image is empty")
	}

	size := d.opts.InputSize
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	// YOLOv8: [1, 4+classes, anchors]
	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}

	scaleX := float64(mat.Cols()) / float64(size)
	scaleY := float64(mat.Rows()) / float64(size)
	candidates, err := decodeYOLO(data, dims[1], dims[2], scaleX, scaleY, float32(d.opts.Threshold))
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = c.box
		scores[i] = c.score
	}

	keep := gocv.NMSBoxes(boxes, scores, float32(d.opts.Threshold), float32(d.opts.NMSThreshold))

	bounds := img.Bounds()
	results := make([]model.Detection, 0, len(keep))
	for _, idx := range keep {
		c := candidates[idx]
		region := model.NewRegion(c.box.Add(bounds.Min)).Clip(bounds)
		if region.Empty() {
			continue
		}
		results = append(results, model.Detection{
			Region:     region,
			Label:      className(d.opts.Classes, c.class),
			Confidence: float64(c.score),
		})
	}

	d.logger.Debug("%s: %d candidates, %d after NMS", d.opts.ModelPath, len(candidates), len(results))
	return results, nil
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	return d.net.Close()
}
