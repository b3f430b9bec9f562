// Package ocr reads label text with Tesseract through gosseract.
//
// Tesseract and the language data for the configured language must be
// installed on the host (apt-get install tesseract-ocr tesseract-ocr-eng).
package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// minTextHeight is the crop height small labels are upscaled to; Tesseract
// loses digits below roughly 20px glyphs.
const minTextHeight = 96

// TesseractReader extracts text fragments from image crops.
type TesseractReader struct {
	Language    string
	TessdataDir string
}

func NewTesseractReader(language, tessdataDir string) *TesseractReader {
	if language == "" {
		language = "eng"
	}
	return &TesseractReader{Language: language, TessdataDir: tessdataDir}
}

// ReadText returns the whitespace-separated fragments Tesseract recognizes.
// A fresh client is created per call, so a reader is safe for concurrent use.
func (r *TesseractReader) ReadText(img image.Image) ([]string, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("empty image")
	}

	data, err := encodePNG(Preprocess(img))
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if r.TessdataDir != "" {
		if err := client.SetTessdataPrefix(r.TessdataDir); err != nil {
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(r.Language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	return Fragments(text), nil
}

// Preprocess converts the crop to a high-contrast grayscale image and
// upscales short crops.
func Preprocess(img image.Image) image.Image {
	gray := effect.Grayscale(img)
	out := image.Image(adjust.Contrast(gray, 0.3))
	if h := out.Bounds().Dy(); h < minTextHeight {
		out = imaging.Resize(out, 0, minTextHeight, imaging.Lanczos)
	}
	return out
}

// Fragments splits recognized text on any whitespace, newlines included.
func Fragments(text string) []string {
	return strings.Fields(text)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
