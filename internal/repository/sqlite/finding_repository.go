package sqlite

import (
	"fmt"

	"boxcounter/internal/model"
)

// FindingRepository implements repository.FindingRepository for SQLite.
type FindingRepository struct {
	db *DB
}

// NewFindingRepository creates a new SQLite finding repository.
func NewFindingRepository(db *DB) *FindingRepository {
	return &FindingRepository{db: db}
}

// InsertBatch adds multiple findings in a single transaction.
func (r *FindingRepository) InsertBatch(findings []model.FindingRecord) error {
	if len(findings) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO findings (analysis_id, stage, x1, y1, x2, y2, label, confidence, outcome, evidence, deduplicated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, f := range findings {
		if _, err := stmt.Exec(f.AnalysisID, f.Stage, f.X1, f.Y1, f.X2, f.Y2,
			f.Label, f.Confidence, f.Outcome, f.Evidence, f.Deduplicated); err != nil {
			return fmt.Errorf("failed to insert finding: %w", err)
		}
	}

	return tx.Commit()
}

// GetByAnalysisID retrieves all findings of an analysis in insertion order.
func (r *FindingRepository) GetByAnalysisID(analysisID string) ([]model.FindingRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, analysis_id, stage, x1, y1, x2, y2, label, confidence, outcome, evidence, deduplicated
		FROM findings WHERE analysis_id = ? ORDER BY id
	`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var findings []model.FindingRecord
	for rows.Next() {
		var f model.FindingRecord
		if err := rows.Scan(&f.ID, &f.AnalysisID, &f.Stage, &f.X1, &f.Y1, &f.X2, &f.Y2,
			&f.Label, &f.Confidence, &f.Outcome, &f.Evidence, &f.Deduplicated); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		findings = append(findings, f)
	}

	return findings, rows.Err()
}

// DeleteByAnalysisID removes all findings of an analysis.
func (r *FindingRepository) DeleteByAnalysisID(analysisID string) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`DELETE FROM findings WHERE analysis_id = ?`, analysisID)
	if err != nil {
		return fmt.Errorf("failed to delete findings: %w", err)
	}
	return nil
}
