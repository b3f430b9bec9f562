package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"boxcounter/internal/dto"
	"boxcounter/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func record(id string, createdAt time.Time) *model.AnalysisRecord {
	return &model.AnalysisRecord{
		ID:                 id,
		Filename:           id + ".jpg",
		CreatedAt:          createdAt,
		Confirmed618:       2,
		Confirmed623:       1,
		Visual618:          1,
		TotalBoxesDetected: 5,
		LabelsDetected:     4,
		UnidentifiedLabels: 1,
		DurationMs:         120,
		FileSize:           2048,
	}
}

func TestDatabase_CreatesDirectoryAndFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "a", "b", "results.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestAnalysisRepository_InsertAndGet(t *testing.T) {
	repo := NewAnalysisRepository(newTestDB(t))

	now := time.Now().UTC().Truncate(time.Second)
	if err := repo.Insert(record("a1", now)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByID("a1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected record")
	}
	if got.Confirmed618 != 2 || got.Visual618 != 1 || got.TotalProcessed() != 4 {
		t.Errorf("unexpected record: %+v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, expected %v", got.CreatedAt, now)
	}

	missing, err := repo.GetByID("nope")
	if err != nil || missing != nil {
		t.Errorf("missing record: got %v, err %v", missing, err)
	}

	if err := repo.Insert(record("a1", now)); err == nil {
		t.Error("duplicate id should fail")
	}
}

func TestAnalysisRepository_FiltersAndPaging(t *testing.T) {
	repo := NewAnalysisRepository(newTestDB(t))

	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := repo.Insert(record(fmt.Sprintf("r%d", i), base.AddDate(0, 0, i))); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	all, err := repo.GetAll(&dto.AnalysisFilters{})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 records, got %d", len(all))
	}
	if all[0].ID != "r4" {
		t.Errorf("newest first expected, got %s", all[0].ID)
	}

	filter := &dto.AnalysisFilters{
		DateAfter:  base.AddDate(0, 0, 1),
		DateBefore: base.AddDate(0, 0, 3),
	}
	count, err := repo.GetTotalCount(filter)
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 in range, got %d", count)
	}

	filter.Limit = 2
	filter.Offset = 2
	page, err := repo.GetAll(filter)
	if err != nil {
		t.Fatalf("GetAll page failed: %v", err)
	}
	if len(page) != 1 || page[0].ID != "r1" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestAnalysisRepository_Stats(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnalysisRepository(db)
	findings := NewFindingRepository(db)

	empty, err := repo.GetStats()
	if err != nil {
		t.Fatalf("GetStats on empty db failed: %v", err)
	}
	if empty.TotalAnalyses != 0 || empty.LastAnalysisAt != nil {
		t.Errorf("unexpected empty stats: %+v", empty)
	}

	now := time.Now().UTC()
	repo.Insert(record("s1", now.Add(-time.Hour)))
	repo.Insert(record("s2", now))

	err = findings.InsertBatch([]model.FindingRecord{
		{AnalysisID: "s1", Stage: model.StageLabel, Outcome: "type_618_confirmed", Evidence: model.EvidenceBarcode},
		{AnalysisID: "s1", Stage: model.StageLabel, Outcome: "type_623_confirmed", Evidence: model.EvidenceBarcode},
		{AnalysisID: "s2", Stage: model.StageLabel, Outcome: "type_618_visual", Evidence: model.EvidenceOCR},
		{AnalysisID: "s2", Stage: model.StageBox, Outcome: "type_618_visual", Evidence: model.EvidenceClassifier, Deduplicated: true},
		{AnalysisID: "s2", Stage: model.StageLabel, Outcome: "unidentified"},
	})
	if err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	stats, err := repo.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalAnalyses != 2 || stats.Confirmed618 != 4 || stats.Confirmed623 != 2 || stats.Visual618 != 2 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.TotalSizeBytes != 4096 || stats.AvgDurationMs != 120 {
		t.Errorf("unexpected size/duration: %+v", stats)
	}
	if stats.EvidenceCounts[model.EvidenceBarcode] != 2 || stats.EvidenceCounts[model.EvidenceOCR] != 1 {
		t.Errorf("unexpected evidence counts: %v", stats.EvidenceCounts)
	}
	if _, ok := stats.EvidenceCounts[model.EvidenceClassifier]; ok {
		t.Error("deduplicated findings must not be counted")
	}
	if stats.LastAnalysisAt == nil {
		t.Error("LastAnalysisAt should be set")
	}
}

func TestFindingRepository_RoundTripAndCascade(t *testing.T) {
	db := newTestDB(t)
	analyses := NewAnalysisRepository(db)
	findings := NewFindingRepository(db)

	analyses.Insert(record("f1", time.Now()))

	if err := findings.InsertBatch(nil); err != nil {
		t.Errorf("empty batch should be a no-op: %v", err)
	}

	batch := []model.FindingRecord{
		{AnalysisID: "f1", Stage: model.StageLabel, X1: 10, Y1: 10, X2: 100, Y2: 60, Label: "label", Confidence: 0.9, Outcome: "type_618_confirmed", Evidence: model.EvidenceBarcode},
		{AnalysisID: "f1", Stage: model.StageBox, X1: 12, Y1: 11, X2: 99, Y2: 61, Label: "caixa_618", Confidence: 0.8, Outcome: "type_618_visual", Evidence: model.EvidenceClassifier, Deduplicated: true},
	}
	if err := findings.InsertBatch(batch); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	got, err := findings.GetByAnalysisID("f1")
	if err != nil {
		t.Fatalf("GetByAnalysisID failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(got))
	}
	if got[0].Stage != model.StageLabel || got[1].Deduplicated != true || got[1].X2 != 99 {
		t.Errorf("unexpected findings: %+v", got)
	}

	if err := analyses.Delete("f1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, _ = findings.GetByAnalysisID("f1")
	if len(got) != 0 {
		t.Errorf("expected findings removed with analysis, got %d", len(got))
	}
}

func TestFindingRepository_RejectsUnknownAnalysis(t *testing.T) {
	findings := NewFindingRepository(newTestDB(t))

	err := findings.InsertBatch([]model.FindingRecord{{AnalysisID: "ghost", Stage: model.StageBox, Outcome: "unidentified"}})
	if err == nil {
		t.Error("expected foreign key violation")
	}
}

func TestAnalysisRepository_ConcurrentInsert(t *testing.T) {
	repo := NewAnalysisRepository(newTestDB(t))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := repo.Insert(record(fmt.Sprintf("c%d", idx), time.Now())); err != nil {
				t.Errorf("Concurrent insert %d failed: %v", idx, err)
			}
		}(i)
	}
	wg.Wait()

	count, _ := repo.GetTotalCount(nil)
	if count != 10 {
		t.Errorf("Expected 10 analyses, got %d", count)
	}

	if err := repo.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	count, _ = repo.GetTotalCount(nil)
	if count != 0 {
		t.Errorf("Expected 0 analyses after DeleteAll, got %d", count)
	}
}
