package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"boxcounter/internal/config"
	"boxcounter/internal/dto"
	"boxcounter/internal/logger"
	"boxcounter/internal/model"
	"boxcounter/internal/repository"
	"boxcounter/internal/service/export"
)

const (
	defaultPageSize = 24
	maxPageSize     = 200
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// historyFilter reads page/limit and the from/to date range from the query.
func historyFilter(r *http.Request) (*dto.AnalysisFilters, int, int) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	limit := atoiDefault(q.Get("limit"), defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := &dto.AnalysisFilters{
		DateAfter:  parseDate(q.Get("from")),
		DateBefore: parseDate(q.Get("to")),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	return filter, page, limit
}

// GetAnalysesHandler returns one page of the analysis history, newest first.
func GetAnalysesHandler(logger *logger.Logger, analysisRepo repository.AnalysisRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !methodAllowed(w, r, logger, http.MethodGet) {
			return
		}

		filter, page, limit := historyFilter(r)

		records, err := analysisRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying analyses from database: %v", err)
			respondError(w, logger, http.StatusInternalServerError, "Internal server error", "Try again later")
			return
		}

		totalCount, err := analysisRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting analyses: %v", err)
			totalCount = len(records)
		}

		analyses := make([]dto.AnalysisInfo, 0, len(records))
		for _, rec := range records {
			analyses = append(analyses, dto.NewAnalysisInfo(rec))
		}

		respondJSON(w, logger, http.StatusOK, dto.AnalysesData{
			Analyses:    analyses,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		})
	}
}

// GetAnalysisHandler returns one stored analysis with its findings.
func GetAnalysisHandler(logger *logger.Logger, analysisRepo repository.AnalysisRepository, findingRepo repository.FindingRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !methodAllowed(w, r, logger, http.MethodGet) {
			return
		}

		rec, ok := lookupAnalysis(w, r, logger, analysisRepo)
		if !ok {
			return
		}

		findings, err := findingRepo.GetByAnalysisID(rec.ID)
		if err != nil {
			logger.Error("Error getting findings for analysis %s: %v", rec.ID, err)
			findings = nil
		}
		if findings == nil {
			findings = []model.FindingRecord{}
		}

		respondJSON(w, logger, http.StatusOK, map[string]any{
			"success":  true,
			"analysis": rec,
			"findings": findings,
		})
	}
}

// GetAnalysisStatsHandler returns totals over the whole history.
func GetAnalysisStatsHandler(logger *logger.Logger, analysisRepo repository.AnalysisRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !methodAllowed(w, r, logger, http.MethodGet) {
			return
		}

		stats, err := analysisRepo.GetStats()
		if err != nil {
			logger.Error("Error computing analysis stats: %v", err)
			respondError(w, logger, http.StatusInternalServerError, "Internal server error", "Try again later")
			return
		}
		respondJSON(w, logger, http.StatusOK, stats)
	}
}

// ExportAnalysesHandler streams the (optionally date-filtered) history as an XLSX workbook.
func ExportAnalysesHandler(logger *logger.Logger, analysisRepo repository.AnalysisRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !methodAllowed(w, r, logger, http.MethodGet) {
			return
		}

		q := r.URL.Query()
		filter := &dto.AnalysisFilters{
			DateAfter:  parseDate(q.Get("from")),
			DateBefore: parseDate(q.Get("to")),
		}

		records, err := analysisRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying analyses for export: %v", err)
			respondError(w, logger, http.StatusInternalServerError, "Internal server error", "Try again later")
			return
		}

		data, err := export.AnalysesXLSX(records)
		if err != nil {
			logger.Error("Error building export workbook: %v", err)
			respondError(w, logger, http.StatusInternalServerError, "Export failed", "Try again later")
			return
		}

		filename := fmt.Sprintf("analyses_%s.xlsx", time.Now().Format("20060102_150405"))
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		if _, err := w.Write(data); err != nil {
			logger.Error("Error writing export: %v", err)
		}
		logger.Info("Exported %d analyses", len(records))
	}
}

// ViewAnalysisHandler serves the annotated image of the analysis given by the "id" query parameter.
func ViewAnalysisHandler(logger *logger.Logger, analysisRepo repository.AnalysisRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !methodAllowed(w, r, logger, http.MethodGet) {
			return
		}

		rec, ok := lookupAnalysis(w, r, logger, analysisRepo)
		if !ok {
			return
		}
		if rec.ImagePath == "" {
			respondError(w, logger, http.StatusNotFound, "Not found", "No annotated image stored for this analysis")
			return
		}
		if _, err := os.Stat(rec.ImagePath); err != nil {
			respondError(w, logger, http.StatusNotFound, "Not found", "Annotated image is no longer available")
			return
		}

		w.Header().Set("Cache-Control", "private, max-age=3600")
		http.ServeFile(w, r, rec.ImagePath)
	}
}

// DeleteAnalysisHandler removes one analysis, its findings and its image.
func DeleteAnalysisHandler(logger *logger.Logger, analysisRepo repository.AnalysisRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !methodAllowed(w, r, logger, http.MethodDelete) {
			return
		}

		rec, ok := lookupAnalysis(w, r, logger, analysisRepo)
		if !ok {
			return
		}

		if rec.ImagePath != "" {
			if err := os.Remove(rec.ImagePath); err != nil && !os.IsNotExist(err) {
				logger.Error("Failed to delete file %s: %v", rec.ImagePath, err)
			}
		}

		if err := analysisRepo.Delete(rec.ID); err != nil {
			logger.Error("Failed to delete analysis %s: %v", rec.ID, err)
			respondError(w, logger, http.StatusInternalServerError, "Internal server error", "Try again later")
			return
		}

		logger.Info("Deleted analysis: %s", rec.ID)
		respondJSON(w, logger, http.StatusOK, map[string]any{"success": true, "id": rec.ID})
	}
}

// ClearAnalysesHandler deletes every stored result image and clears the history.
func ClearAnalysesHandler(cfg *config.Config, logger *logger.Logger, analysisRepo repository.AnalysisRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !methodAllowed(w, r, logger, http.MethodDelete) {
			return
		}

		files, err := os.ReadDir(cfg.ResultDirectory)
		if err != nil && !os.IsNotExist(err) {
			logger.Error("Error reading results directory: %v", err)
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			if err := os.Remove(filepath.Join(cfg.ResultDirectory, file.Name())); err != nil {
				logger.Error("Error deleting file %s: %v", file.Name(), err)
			}
		}

		if err := analysisRepo.DeleteAll(); err != nil {
			logger.Error("Error clearing database: %v", err)
			respondError(w, logger, http.StatusInternalServerError, "Internal server error", "Try again later")
			return
		}

		logger.Info("Analysis history cleared, results directory: %s", cfg.ResultDirectory)
		w.WriteHeader(http.StatusNoContent)
	}
}

// lookupAnalysis resolves the "id" query parameter, answering 400/404/500 itself.
func lookupAnalysis(w http.ResponseWriter, r *http.Request, logger *logger.Logger, analysisRepo repository.AnalysisRepository) (*model.AnalysisRecord, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		respondError(w, logger, http.StatusBadRequest, "Missing parameter", "The id parameter is required")
		return nil, false
	}

	rec, err := analysisRepo.GetByID(id)
	if err != nil {
		logger.Error("Error loading analysis %s: %v", id, err)
		respondError(w, logger, http.StatusInternalServerError, "Internal server error", "Try again later")
		return nil, false
	}
	if rec == nil {
		respondError(w, logger, http.StatusNotFound, "Not found", "No analysis with this id")
		return nil, false
	}
	return rec, true
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
