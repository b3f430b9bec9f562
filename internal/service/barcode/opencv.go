package barcode

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// OpenCVQRDecoder reads QR codes with OpenCV's own detector. It shares no
// code with ZXing, so it catches codes the first decoder misses.
type OpenCVQRDecoder struct{}

func NewOpenCVQRDecoder() *OpenCVQRDecoder {
	return &OpenCVQRDecoder{}
}

func (d *OpenCVQRDecoder) Name() string { return "opencv-qr" }

// Decode returns every QR payload found in img.
func (d *OpenCVQRDecoder) Decode(img image.Image) ([]string, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("empty image")
	}

	mat, err := gocv.ImageToMatRGB(prepare(img))
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	detector := gocv.NewQRCodeDetector()
	defer detector.Close()

	points := gocv.NewMat()
	defer points.Close()

	var decoded []string
	var codes []gocv.Mat
	found := detector.DetectAndDecodeMulti(mat, &decoded, &points, &codes)
	for _, c := range codes {
		c.Close()
	}
	if !found {
		return nil, nil
	}

	var payloads []string
	for _, text := range decoded {
		if text != "" {
			payloads = append(payloads, text)
		}
	}
	return payloads, nil
}
