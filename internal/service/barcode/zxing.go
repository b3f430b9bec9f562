// Package barcode wraps the barcode libraries used to confirm label crops.
package barcode

import (
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// minDecodeWidth is the width small crops are upscaled to before decoding.
const minDecodeWidth = 480

// ZXingDecoder reads 1D retail codes and QR codes with the gozxing port of ZXing.
type ZXingDecoder struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

func NewZXingDecoder() *ZXingDecoder {
	return &ZXingDecoder{
		readers: []gozxing.Reader{
			oned.NewMultiFormatUPCEANReader(nil),
			oned.NewCode128Reader(),
			oned.NewCode39Reader(),
			oned.NewITFReader(),
			qrcode.NewQRCodeReader(),
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

func (d *ZXingDecoder) Name() string { return "zxing" }

// Decode tries the grayscale crop first and a contrast-boosted copy second.
// A crop with nothing to read yields no payloads and no error.
func (d *ZXingDecoder) Decode(img image.Image) ([]string, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("empty image")
	}

	gray := prepare(img)
	payloads, err := d.decodeAll(gray)
	if err != nil || len(payloads) > 0 {
		return payloads, err
	}
	return d.decodeAll(effect.Sharpen(adjust.Contrast(gray, 0.4)))
}

func (d *ZXingDecoder) decodeAll(img image.Image) ([]string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("binarize: %w", err)
	}

	var payloads []string
	seen := make(map[string]bool)
	for _, reader := range d.readers {
		result, err := reader.Decode(bmp, d.hints)
		reader.Reset()
		if err != nil {
			// NotFound, checksum and format errors all mean "nothing here"
			continue
		}
		if text := result.GetText(); text != "" && !seen[text] {
			seen[text] = true
			payloads = append(payloads, text)
		}
	}
	return payloads, nil
}

// prepare converts to grayscale and upscales crops that are too narrow for
// the 1D readers to resolve individual bars.
func prepare(img image.Image) image.Image {
	gray := effect.Grayscale(img)
	if w := gray.Bounds().Dx(); w < minDecodeWidth {
		return imaging.Resize(gray, minDecodeWidth, 0, imaging.Lanczos)
	}
	return gray
}
