package ai

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"

	"boxcounter/internal/model"
)

var outcomePalette = map[model.Outcome]string{
	model.Type618Confirmed: "#2ecc71",
	model.Type623Confirmed: "#3498db",
	model.Type618Visual:    "#f1c40f",
	model.Type623Visual:    "#e67e22",
	model.Unidentified:     "#e74c3c",
}

const deduplicatedColor = "#95a5a6"

func findingColor(f model.Finding) color.RGBA {
	hex := outcomePalette[f.Outcome]
	if f.Deduplicated {
		hex = deduplicatedColor
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{R: 255, A: 255}
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func findingCaption(f model.Finding) string {
	switch {
	case f.Deduplicated:
		return "dup"
	case f.Outcome == model.Unidentified:
		return f.Stage + " ?"
	default:
		return fmt.Sprintf("%s %s", f.Outcome.ProductType(), f.Evidence)
	}
}

// Annotate draws every finding on img and returns the result as JPEG.
func Annotate(img image.Image, findings []model.Finding) ([]byte, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	origin := img.Bounds().Min
	for _, f := range findings {
		c := findingColor(f)
		rect := f.Region.Rect().Sub(origin)

		thickness := 2
		if f.Stage == model.StageLabel {
			thickness = 3
		}
		if err := gocv.Rectangle(&mat, rect, c, thickness); err != nil {
			return nil, fmt.Errorf("failed to draw rectangle: %w", err)
		}

		pt := image.Pt(rect.Min.X, max(rect.Min.Y-5, 12))
		if err := gocv.PutText(&mat, findingCaption(f), pt, gocv.FontHersheySimplex, 0.5, c, 1); err != nil {
			return nil, fmt.Errorf("failed to draw text: %w", err)
		}
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
