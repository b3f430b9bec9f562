package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"boxcounter/internal/logger"
	"boxcounter/internal/model"
)

// Remote model names understood by the inference service.
const (
	RemoteLabelModel = "label"
	RemoteBoxModel   = "box"
)

const detectionsSchema = `{
	"type": "object",
	"required": ["detections"],
	"properties": {
		"detections": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["x1", "y1", "x2", "y2"],
				"properties": {
					"x1": {"type": "number"},
					"y1": {"type": "number"},
					"x2": {"type": "number"},
					"y2": {"type": "number"},
					"label": {"type": "string"},
					"confidence": {"type": "number", "minimum": 0, "maximum": 1}
				}
			}
		}
	}
}`

type remoteDetection struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// RemoteDetector sends images to an external inference service instead of
// running a local network.
type RemoteDetector struct {
	baseURL string
	model   string
	client  *http.Client
	schema  *jsonschema.Schema
	logger  *logger.Logger
}

// NewRemoteDetector targets baseURL/predict?model=<modelName>.
func NewRemoteDetector(baseURL, modelName string, timeout time.Duration, logger *logger.Logger) (*RemoteDetector, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid inference url %q: %w", baseURL, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("detections.json", strings.NewReader(detectionsSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("detections.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &RemoteDetector{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelName,
		client:  &http.Client{Timeout: timeout},
		schema:  schema,
		logger:  logger,
	}, nil
}

// Detect uploads img as JPEG and returns the service's detections.
func (m *RemoteDetector) Detect(ctx context.Context, img image.Image) ([]model.Detection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if err := jpeg.Encode(part, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	writer.Close()

	endpoint := fmt.Sprintf("%s/predict?model=%s", m.baseURL, url.QueryEscape(m.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if err := m.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("response does not match schema: %w", err)
	}

	var result struct {
		Detections []remoteDetection `json:"detections"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode detections: %w", err)
	}

	bounds := img.Bounds()
	detections := make([]model.Detection, 0, len(result.Detections))
	for _, d := range result.Detections {
		region := model.Region{X1: int(d.X1), Y1: int(d.Y1), X2: int(d.X2), Y2: int(d.Y2)}.Clip(bounds)
		if region.Empty() {
			continue
		}
		detections = append(detections, model.Detection{Region: region, Label: d.Label, Confidence: d.Confidence})
	}

	m.logger.Debug("remote %s model returned %d detections", m.model, len(detections))
	return detections, nil
}

// CheckHealth reports whether the inference service is reachable.
func (m *RemoteDetector) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}
