package analyzer

import (
	"context"
	"errors"
	"image"
	"testing"

	"boxcounter/internal/model"
)

func newTestCascade(primary, secondary *fakeDecoder, reader *fakeReader) *Cascade {
	log := testLogger()
	return NewCascade(log, NewBarcodeProbe(log, primary, secondary), NewOCRProbe(reader))
}

func TestCascade_BarcodeWinsOverOCR(t *testing.T) {
	primary := &fakeDecoder{name: "primary", payloads: []string{"5592261800XYZ"}}
	secondary := &fakeDecoder{name: "secondary"}
	reader := &fakeReader{fragments: []string{"623"}}

	match, evidence := newTestCascade(primary, secondary, reader).Classify(context.Background(), testImage(20, 20))
	outcome := match.Outcome

	if outcome != model.Type618Confirmed {
		t.Errorf("outcome = %v, expected type_618_confirmed", outcome)
	}
	if evidence != model.EvidenceBarcode {
		t.Errorf("evidence = %q", evidence)
	}
	if match.Payload != "5592261800XYZ" {
		t.Errorf("payload = %q", match.Payload)
	}
	if secondary.calls != 0 {
		t.Errorf("secondary decoder called %d times after primary matched", secondary.calls)
	}
	if reader.calls != 0 {
		t.Errorf("OCR called %d times after barcode matched", reader.calls)
	}
}

func TestCascade_SecondaryDecoderFallback(t *testing.T) {
	tests := []struct {
		name    string
		primary *fakeDecoder
	}{
		{"primary empty", &fakeDecoder{name: "primary"}},
		{"primary unrelated payload", &fakeDecoder{name: "primary", payloads: []string{"0000000000"}}},
		{"primary error", &fakeDecoder{name: "primary", err: errors.New("boom")}},
		{"primary panic", &fakeDecoder{name: "primary", panicMsg: "cgo crash"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secondary := &fakeDecoder{name: "secondary", payloads: []string{"ab5592262300"}}
			reader := &fakeReader{}

			match, _ := newTestCascade(tt.primary, secondary, reader).Classify(context.Background(), testImage(20, 20))
			outcome := match.Outcome

			if outcome != model.Type623Confirmed {
				t.Errorf("outcome = %v, expected type_623_confirmed", outcome)
			}
			if secondary.calls != 1 {
				t.Errorf("secondary calls = %d", secondary.calls)
			}
		})
	}
}

func TestCascade_ScansAllPayloads(t *testing.T) {
	primary := &fakeDecoder{name: "primary", payloads: []string{"QR-OTHER", "7895592262300"}}
	reader := &fakeReader{}

	match, _ := newTestCascade(primary, &fakeDecoder{name: "secondary"}, reader).Classify(context.Background(), testImage(10, 10))
	outcome := match.Outcome

	if outcome != model.Type623Confirmed || match.Payload != "7895592262300" {
		t.Errorf("got (%v, %q)", outcome, match.Payload)
	}
}

func TestCascade_OCR(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
		expected  model.Outcome
	}{
		{"623 only", []string{"CX", "623"}, model.Type623Visual},
		{"618 split by spaces", []string{"Caixa 6 1", "8"}, model.Type618Visual},
		{"both prefers 618", []string{"623", "618"}, model.Type618Visual},
		{"uppercase text", []string{"TIPO 623 A"}, model.Type623Visual},
		{"no match", []string{"hello", "world"}, model.Unidentified},
		{"empty", nil, model.Unidentified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &fakeReader{fragments: tt.fragments}
			match, evidence := newTestCascade(&fakeDecoder{name: "a"}, &fakeDecoder{name: "b"}, reader).
				Classify(context.Background(), testImage(10, 10))
			outcome := match.Outcome

			if outcome != tt.expected {
				t.Errorf("outcome = %v, expected %v", outcome, tt.expected)
			}
			if match.Payload != "" {
				t.Errorf("OCR match carries payload %q", match.Payload)
			}
			if tt.expected != model.Unidentified && evidence != model.EvidenceOCR {
				t.Errorf("evidence = %q, expected ocr", evidence)
			}
		})
	}
}

func TestCascade_TechniqueFailuresAreContained(t *testing.T) {
	primary := &fakeDecoder{name: "primary", panicMsg: "segfault"}
	secondary := &fakeDecoder{name: "secondary", err: errors.New("unsupported")}
	reader := &fakeReader{err: errors.New("tesseract missing")}

	match, evidence := newTestCascade(primary, secondary, reader).Classify(context.Background(), testImage(10, 10))
	outcome := match.Outcome

	if outcome != model.Unidentified || evidence != "" {
		t.Errorf("got (%v, %q), expected unidentified with no evidence", outcome, evidence)
	}
}

func TestCascade_PanickingProbe(t *testing.T) {
	log := testLogger()
	panicking := Probe{Name: "broken", Run: func(ctx context.Context, img image.Image) (Match, error) {
		panic("nil map")
	}}
	reader := &fakeReader{fragments: []string{"618"}}

	match, _ := NewCascade(log, panicking, NewOCRProbe(reader)).Classify(context.Background(), testImage(5, 5))
	outcome := match.Outcome

	if outcome != model.Type618Visual {
		t.Errorf("outcome = %v, expected next probe to answer", outcome)
	}
}

func TestMatchBarcode(t *testing.T) {
	tests := []struct {
		payload  string
		expected model.Outcome
	}{
		{"5592261800", model.Type618Confirmed},
		{"07895592261800123", model.Type618Confirmed},
		{"5592262300", model.Type623Confirmed},
		{"559226", model.Unidentified},
		{"", model.Unidentified},
	}

	for _, tt := range tests {
		if got := MatchBarcode(tt.payload); got != tt.expected {
			t.Errorf("MatchBarcode(%q) = %v, expected %v", tt.payload, got, tt.expected)
		}
	}
}

func TestMatchClassLabel(t *testing.T) {
	tests := []struct {
		label    string
		expected model.Outcome
	}{
		{"caixa_618", model.Type618Visual},
		{"caixa_623", model.Type623Visual},
		{"etiqueta", model.Unidentified},
		{"", model.Unidentified},
	}

	for _, tt := range tests {
		if got := MatchClassLabel(tt.label); got != tt.expected {
			t.Errorf("MatchClassLabel(%q) = %v, expected %v", tt.label, got, tt.expected)
		}
	}
}
