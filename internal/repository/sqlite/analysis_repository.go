package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"boxcounter/internal/dto"
	"boxcounter/internal/model"
)

// AnalysisRepository implements repository.AnalysisRepository for SQLite.
type AnalysisRepository struct {
	db *DB
}

// NewAnalysisRepository creates a new SQLite analysis repository.
func NewAnalysisRepository(db *DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const analysisColumns = `id, filename, created_at, confirmed_618, confirmed_623, visual_618, visual_623,
	total_boxes_detected, labels_detected, unidentified_labels, duration_ms, image_path, file_size`

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (*model.AnalysisRecord, error) {
	var rec model.AnalysisRecord
	err := s.Scan(&rec.ID, &rec.Filename, &rec.CreatedAt, &rec.Confirmed618, &rec.Confirmed623,
		&rec.Visual618, &rec.Visual623, &rec.TotalBoxesDetected, &rec.LabelsDetected,
		&rec.UnidentifiedLabels, &rec.DurationMs, &rec.ImagePath, &rec.FileSize)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Insert adds a new analysis record to the database.
func (r *AnalysisRepository) Insert(rec *model.AnalysisRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO analyses (`+analysisColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Filename, rec.CreatedAt.UTC(), rec.Confirmed618, rec.Confirmed623, rec.Visual618, rec.Visual623,
		rec.TotalBoxesDetected, rec.LabelsDetected, rec.UnidentifiedLabels, rec.DurationMs, rec.ImagePath, rec.FileSize)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// GetByID retrieves an analysis by its ID. It returns nil, nil when absent.
func (r *AnalysisRepository) GetByID(id string) (*model.AnalysisRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rec, err := scanAnalysis(r.db.Conn().QueryRow(`SELECT `+analysisColumns+` FROM analyses WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return rec, nil
}

// whereClause builds the shared date filter.
func whereClause(filter *dto.AnalysisFilters) (string, []interface{}) {
	query := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return query, args
	}

	if !filter.DateAfter.IsZero() {
		query += " AND DATE(created_at) >= DATE(?)"
		args = append(args, filter.DateAfter.Format("2006-01-02"))
	}

	if !filter.DateBefore.IsZero() {
		query += " AND DATE(created_at) <= DATE(?)"
		args = append(args, filter.DateBefore.Format("2006-01-02"))
	}

	return query, args
}

// GetAll retrieves analyses, newest first, based on filter criteria.
func (r *AnalysisRepository) GetAll(filter *dto.AnalysisFilters) ([]model.AnalysisRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)
	query := `SELECT ` + analysisColumns + ` FROM analyses` + where + ` ORDER BY created_at DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var records []model.AnalysisRecord
	for rows.Next() {
		rec, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		records = append(records, *rec)
	}

	return records, rows.Err()
}

// GetTotalCount returns the number of analyses matching the filter.
func (r *AnalysisRepository) GetTotalCount(filter *dto.AnalysisFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM analyses`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}

	return count, nil
}

// GetStats returns totals over the whole history.
func (r *AnalysisRepository) GetStats() (*model.AnalysisStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.AnalysisStats{
		EvidenceCounts: make(map[string]int),
	}

	var last sql.NullString
	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(confirmed_618), 0), COALESCE(SUM(confirmed_623), 0),
			COALESCE(SUM(visual_618), 0), COALESCE(SUM(visual_623), 0),
			COALESCE(SUM(file_size), 0), COALESCE(AVG(duration_ms), 0),
			MAX(created_at)
		FROM analyses
	`).Scan(&stats.TotalAnalyses, &stats.Confirmed618, &stats.Confirmed623,
		&stats.Visual618, &stats.Visual623, &stats.TotalSizeBytes, &stats.AvgDurationMs, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate analyses: %w", err)
	}
	if last.Valid {
		if ts, ok := parseTimestamp(last.String); ok {
			stats.LastAnalysisAt = &ts
		}
	}

	// Which technique produced the counted findings
	rows, err := r.db.Conn().Query(`
		SELECT evidence, COUNT(*)
		FROM findings
		WHERE evidence != '' AND deduplicated = 0
		GROUP BY evidence
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var evidence string
		var count int
		if err := rows.Scan(&evidence, &count); err != nil {
			return nil, err
		}
		stats.EvidenceCounts[evidence] = count
	}

	return stats, rows.Err()
}

// parseTimestamp reads the text form MAX() returns for a DATETIME column.
func parseTimestamp(v string) (time.Time, bool) {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Delete removes an analysis and its findings.
func (r *AnalysisRepository) Delete(id string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM findings WHERE analysis_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete findings: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM analyses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	return nil
}

// DeleteAll removes all analyses and their findings.
func (r *AnalysisRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM findings`); err != nil {
		return fmt.Errorf("failed to delete findings: %w", err)
	}

	if _, err := r.db.Conn().Exec(`DELETE FROM analyses`); err != nil {
		return fmt.Errorf("failed to delete analyses: %w", err)
	}

	return nil
}
