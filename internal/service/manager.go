package service

import (
	"context"
	"encoding/json"
	"image"
	"time"

	"github.com/google/uuid"

	"boxcounter/internal/dto"
	"boxcounter/internal/logger"
	"boxcounter/internal/model"
	"boxcounter/internal/service/ai"
	"boxcounter/internal/service/analyzer"
	"boxcounter/internal/service/storage"
	"boxcounter/internal/service/websocket"
)

// Manager ties the analyzer to the services around it: result persistence
// and the live feed.
type Manager struct {
	analyzer         *analyzer.Analyzer
	bufferService    *storage.BufferService
	websocketService *websocket.HubService
	logger           *logger.Logger

	annotate func(image.Image, []model.Finding) ([]byte, error)
	now      func() time.Time
}

// NewManager wires the services. bufferService and websocketService may be nil.
func NewManager(analyzer *analyzer.Analyzer, bufferService *storage.BufferService, websocketService *websocket.HubService, logger *logger.Logger) *Manager {
	return &Manager{
		analyzer:         analyzer,
		bufferService:    bufferService,
		websocketService: websocketService,
		logger:           logger,
		annotate:         ai.Annotate,
		now:              time.Now,
	}
}

// Ready reports whether uploads can be analyzed.
func (m *Manager) Ready() bool {
	return m.analyzer.Ready()
}

// Analyze counts the boxes in img, hands the result to the buffer and
// announces it to live viewers. The returned id identifies the stored analysis.
func (m *Manager) Analyze(ctx context.Context, filename string, img image.Image) (string, *model.AnalysisResult, error) {
	id := uuid.NewString()
	started := m.now()

	result, err := m.analyzer.Analyze(ctx, img)
	if err != nil {
		return "", nil, err
	}
	duration := m.now().Sub(started)

	m.logger.Info("Analysis %s (%s): 618=%d 623=%d confirmed=%d visual=%d in %v",
		id, filename, result.Boxes618Total(), result.Boxes623Total(),
		result.Confirmed.Total(), result.Visual.Total(), duration)

	if m.bufferService != nil {
		var annotated []byte
		if m.annotate != nil {
			annotated, err = m.annotate(img, result.Findings)
			if err != nil {
				m.logger.Warning("Failed to annotate analysis %s: %v", id, err)
				annotated = nil
			}
		}

		m.bufferService.Add(dto.BufferedAnalysis{
			ID:        id,
			Filename:  filename,
			CreatedAt: started,
			Duration:  duration,
			Result:    result,
			Image:     annotated,
		})
	}

	m.SendToViewers(id, filename, started, duration, result)
	return id, result, nil
}

// SendToViewers broadcasts a summary of the analysis over the live feed.
func (m *Manager) SendToViewers(id, filename string, at time.Time, duration time.Duration, result *model.AnalysisResult) {
	if m.websocketService == nil {
		return
	}

	msg, err := json.Marshal(dto.LiveEvent{
		Type:       "analysis",
		AnalysisID: id,
		Filename:   filename,
		Timestamp:  at,
		DurationMs: duration.Milliseconds(),
		Data:       dto.NewAnalysisData(id, result),
	})
	if err != nil {
		m.logger.Error("Error encoding live event: %v", err)
		return
	}

	m.websocketService.Broadcast(msg)
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.websocketService
}

func (m *Manager) GetBufferService() *storage.BufferService {
	return m.bufferService
}
