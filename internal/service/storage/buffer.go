package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"boxcounter/internal/config"
	"boxcounter/internal/dto"
	"boxcounter/internal/logger"
	"boxcounter/internal/model"
	"boxcounter/internal/repository"
)

// ResultTimestampLayout prefixes every stored result image.
const ResultTimestampLayout = "2006-01-02_15-04_05.000"

// ResultFilename names the annotated image of an analysis.
func ResultFilename(createdAt time.Time, id string) string {
	return fmt.Sprintf("%s_%s.jpg", createdAt.Format(ResultTimestampLayout), id)
}

// ParseResultFilename recovers the timestamp and analysis id from a name
// built by ResultFilename.
func ParseResultFilename(filename string) (time.Time, string, error) {
	name := strings.TrimSuffix(filename, ".jpg")
	parts := strings.Split(name, "_")
	if len(parts) != 4 || parts[3] == "" {
		return time.Time{}, "", fmt.Errorf("invalid filename format: %s", filename)
	}

	timestamp, err := time.Parse(ResultTimestampLayout, strings.Join(parts[:3], "_"))
	if err != nil {
		return time.Time{}, "", fmt.Errorf("failed to parse timestamp: %w", err)
	}
	return timestamp, parts[3], nil
}

// BufferService buffers finished analyses in memory and periodically flushes
// them to disk and the history database.
type BufferService struct {
	resultsDir   string
	limit        int
	interval     time.Duration
	analyses     []dto.BufferedAnalysis
	mu           sync.Mutex
	logger       *logger.Logger
	analysisRepo repository.AnalysisRepository
	findingRepo  repository.FindingRepository
}

// NewBufferService creates a new BufferService writing to the configured result directory.
func NewBufferService(config *config.Config, logger *logger.Logger, analysisRepo repository.AnalysisRepository, findingRepo repository.FindingRepository) *BufferService {
	limit := config.ResultBufferLimit
	if limit <= 0 {
		limit = 1
	}
	interval := config.ResultFlushInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &BufferService{
		resultsDir:   config.ResultDirectory,
		limit:        limit,
		interval:     interval,
		analyses:     make([]dto.BufferedAnalysis, 0, limit),
		logger:       logger,
		analysisRepo: analysisRepo,
		findingRepo:  findingRepo,
	}
}

// Run flushes on a ticker until ctx is done, then flushes what is left.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Flush()
		case <-ctx.Done():
			s.Flush()
			return
		}
	}
}

// Add appends a finished analysis. A full buffer is flushed right away
// so no analysis is dropped.
func (s *BufferService) Add(analysis dto.BufferedAnalysis) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.analyses = append(s.analyses, analysis)
	s.logger.Debug("Result buffer size: %d/%d", len(s.analyses), s.limit)

	if len(s.analyses) >= s.limit {
		s.flushLocked()
	}
}

// Pending returns the number of analyses not yet flushed.
func (s *BufferService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.analyses)
}

// Flush writes buffered analyses to disk and database and resets the buffer.
func (s *BufferService) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

func (s *BufferService) flushLocked() {
	if len(s.analyses) == 0 {
		return
	}

	savedCount := 0
	for _, analysis := range s.analyses {
		if err := s.save(analysis); err != nil {
			s.logger.Error("Error saving analysis %s: %v", analysis.ID, err)
			continue
		}
		savedCount++
	}

	s.logger.Info("Flushed %d analyses", savedCount)
	s.analyses = s.analyses[:0]
}

func (s *BufferService) save(analysis dto.BufferedAnalysis) error {
	rec := model.NewAnalysisRecord(analysis.ID, analysis.Filename, analysis.CreatedAt, analysis.Result)
	rec.DurationMs = analysis.Duration.Milliseconds()

	if len(analysis.Image) > 0 && s.resultsDir != "" {
		path, err := s.writeImage(analysis)
		if err != nil {
			// The counts are still worth keeping without the picture.
			s.logger.Error("Error saving annotated image for %s: %v", analysis.ID, err)
		} else {
			rec.ImagePath = path
			rec.FileSize = int64(len(analysis.Image))
		}
	}

	if s.analysisRepo == nil {
		return nil
	}

	if err := s.analysisRepo.Insert(rec); err != nil {
		return err
	}

	if s.findingRepo != nil && len(analysis.Result.Findings) > 0 {
		findings := make([]model.FindingRecord, 0, len(analysis.Result.Findings))
		for _, f := range analysis.Result.Findings {
			findings = append(findings, model.NewFindingRecord(analysis.ID, f))
		}
		if err := s.findingRepo.InsertBatch(findings); err != nil {
			return fmt.Errorf("failed to save findings: %w", err)
		}
	}

	return nil
}

func (s *BufferService) writeImage(analysis dto.BufferedAnalysis) (string, error) {
	if err := os.MkdirAll(s.resultsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	filename := ResultFilename(analysis.CreatedAt, analysis.ID)
	fullpath := filepath.Join(s.resultsDir, filename)

	if err := os.WriteFile(fullpath, analysis.Image, 0644); err != nil {
		return "", err
	}
	return fullpath, nil
}
