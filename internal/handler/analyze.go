package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"boxcounter/internal/config"
	"boxcounter/internal/dto"
	"boxcounter/internal/logger"
	"boxcounter/internal/service"
	"boxcounter/internal/service/analyzer"
)

// AnalyzeHandler handles POST /analyze: one image in the multipart field
// "file", box counts out.
func AnalyzeHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !methodAllowed(w, r, logger, http.MethodPost) {
			return
		}

		if !manager.Ready() {
			respondError(w, logger, http.StatusServiceUnavailable,
				"Service unavailable", "AI models could not be loaded")
			return
		}

		tooLarge := func() {
			respondError(w, logger, http.StatusRequestEntityTooLarge,
				"File too large", fmt.Sprintf("Maximum allowed size: %dMB", cfg.MaxUploadMB))
		}
		if r.ContentLength > cfg.MaxUploadBytes() {
			tooLarge()
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes())
		if err := r.ParseMultipartForm(cfg.MaxUploadBytes()); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				tooLarge()
				return
			}
			respondError(w, logger, http.StatusBadRequest,
				"No file provided", "Send an image in the 'file' field")
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			respondError(w, logger, http.StatusBadRequest,
				"No file provided", "Send an image in the 'file' field")
			return
		}
		defer file.Close()

		if err := validateFilename(header.Filename); err != nil {
			logger.Warning("Rejected upload %q: %v", header.Filename, err)
			message := "Allowed file types: " + strings.Join(AllowedExtensionList(), ", ")
			if errors.Is(err, errNoFilename) {
				message = "No file selected"
			}
			respondError(w, logger, http.StatusBadRequest, "Invalid file", message)
			return
		}

		img, format, err := decodeImage(file)
		if err != nil {
			logger.Warning("Rejected upload %s: %v", header.Filename, err)
			respondError(w, logger, http.StatusBadRequest, "Invalid file", "File is not a valid image")
			return
		}
		logger.Debug("Decoded %s upload %s (%dx%d)", format, header.Filename, img.Bounds().Dx(), img.Bounds().Dy())

		ctx := r.Context()
		if cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout)
			defer cancel()
		}

		id, result, err := manager.Analyze(ctx, header.Filename, img)
		if err != nil {
			logger.Error("Analysis of %s failed: %v", header.Filename, err)
			if errors.Is(err, analyzer.ErrDetectorUnavailable) {
				respondError(w, logger, http.StatusServiceUnavailable,
					"Service unavailable", "AI models could not be loaded")
				return
			}
			respondError(w, logger, http.StatusInternalServerError,
				"Analysis error", "Could not process the image")
			return
		}

		logger.Info("Analysis complete: %d boxes processed", result.TotalProcessed())
		respondJSON(w, logger, http.StatusOK, dto.AnalyzeResponse{
			Success: true,
			Data:    dto.NewAnalysisData(id, result),
		})
	}
}
