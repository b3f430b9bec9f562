package analyzer

import (
	"context"
	"fmt"
	"image"
	"strings"

	"boxcounter/internal/logger"
	"boxcounter/internal/model"
)

// Barcode payload markers for each product.
const (
	Barcode618Marker = "5592261800"
	Barcode623Marker = "5592262300"
)

// Match is what a probe found on a crop. Payload is the decoded barcode text
// and stays empty for other techniques.
type Match struct {
	Outcome model.Outcome
	Payload string
}

// Found reports whether the match identifies a product.
func (m Match) Found() bool {
	return m.Outcome != model.Unidentified
}

// Probe is one identification technique. Run returns a zero Match when the
// technique found no usable evidence.
type Probe struct {
	Name string
	Run  func(ctx context.Context, img image.Image) (Match, error)
}

// Cascade tries its probes in order and returns the first outcome found.
type Cascade struct {
	probes []Probe
	logger *logger.Logger
}

func NewCascade(log *logger.Logger, probes ...Probe) *Cascade {
	return &Cascade{probes: probes, logger: log}
}

// Classify returns the match of the first probe that identifies the crop,
// with the probe's name as evidence. Probe errors and panics count as no
// evidence.
func (c *Cascade) Classify(ctx context.Context, img image.Image) (Match, string) {
	for _, probe := range c.probes {
		match, err := runProbe(ctx, probe, img)
		if err != nil {
			c.logger.Debug("%s probe failed: %v", probe.Name, err)
			continue
		}
		if match.Found() {
			return match, probe.Name
		}
	}
	return Match{}, ""
}

func runProbe(ctx context.Context, probe Probe, img image.Image) (match Match, err error) {
	defer func() {
		if r := recover(); r != nil {
			match, err = Match{}, fmt.Errorf("panic: %v", r)
		}
	}()
	return probe.Run(ctx, img)
}

// NewBarcodeProbe tries each decoder in order. A decoder that errors or
// yields no marked payload hands over to the next one.
func NewBarcodeProbe(log *logger.Logger, decoders ...BarcodeDecoder) Probe {
	return Probe{
		Name: model.EvidenceBarcode,
		Run: func(ctx context.Context, img image.Image) (Match, error) {
			for _, decoder := range decoders {
				payloads, err := safeDecode(decoder, img)
				if err != nil {
					log.Debug("barcode decoder %s failed: %v", decoder.Name(), err)
					continue
				}
				for _, payload := range payloads {
					if outcome := MatchBarcode(payload); outcome != model.Unidentified {
						return Match{Outcome: outcome, Payload: payload}, nil
					}
				}
			}
			return Match{}, nil
		},
	}
}

// NewOCRProbe matches recognized text against the product numbers.
func NewOCRProbe(reader TextReader) Probe {
	return Probe{
		Name: model.EvidenceOCR,
		Run: func(ctx context.Context, img image.Image) (Match, error) {
			fragments, err := reader.ReadText(img)
			if err != nil {
				return Match{}, err
			}
			return Match{Outcome: MatchText(fragments)}, nil
		},
	}
}

func safeDecode(decoder BarcodeDecoder, img image.Image) (payloads []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			payloads, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return decoder.Decode(img)
}

// MatchBarcode maps a decoded payload to a confirmed outcome.
func MatchBarcode(payload string) model.Outcome {
	switch {
	case strings.Contains(payload, Barcode618Marker):
		return model.Type618Confirmed
	case strings.Contains(payload, Barcode623Marker):
		return model.Type623Confirmed
	}
	return model.Unidentified
}

// MatchText joins OCR fragments, lowercases and drops spaces, then looks
// for "618" before "623".
func MatchText(fragments []string) model.Outcome {
	text := strings.ReplaceAll(strings.ToLower(strings.Join(fragments, "")), " ", "")
	switch {
	case strings.Contains(text, model.Product618):
		return model.Type618Visual
	case strings.Contains(text, model.Product623):
		return model.Type623Visual
	}
	return model.Unidentified
}

// MatchClassLabel maps a detector class name to a visual outcome.
func MatchClassLabel(label string) model.Outcome {
	switch {
	case strings.Contains(label, model.Product618):
		return model.Type618Visual
	case strings.Contains(label, model.Product623):
		return model.Type623Visual
	}
	return model.Unidentified
}
