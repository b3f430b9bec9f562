package repository

import (
	"boxcounter/internal/dto"
	"boxcounter/internal/model"
)

// AnalysisRepository defines the interface for analysis history operations.
type AnalysisRepository interface {
	// Create operations
	Insert(rec *model.AnalysisRecord) error

	// Read operations
	GetByID(id string) (*model.AnalysisRecord, error)
	GetAll(filter *dto.AnalysisFilters) ([]model.AnalysisRecord, error)
	GetTotalCount(filter *dto.AnalysisFilters) (int, error)
	GetStats() (*model.AnalysisStats, error)

	// Delete operations
	Delete(id string) error
	DeleteAll() error
}

// FindingRepository defines the interface for per-region finding operations.
type FindingRepository interface {
	// Create operations
	InsertBatch(findings []model.FindingRecord) error

	// Read operations
	GetByAnalysisID(analysisID string) ([]model.FindingRecord, error)

	// Delete operations
	DeleteByAnalysisID(analysisID string) error
}
