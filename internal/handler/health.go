package handler

import (
	"net/http"

	"boxcounter/internal/dto"
	"boxcounter/internal/logger"
	"boxcounter/internal/service"
)

// ServiceName identifies this server in health responses.
const ServiceName = "boxcounter"

// HealthHandler reports liveness and whether the analyzer can take uploads.
func HealthHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !methodAllowed(w, r, logger, http.MethodGet) {
			return
		}
		respondJSON(w, logger, http.StatusOK, dto.HealthResponse{
			Success:       true,
			Status:        "healthy",
			AnalyzerReady: manager.Ready(),
			Service:       ServiceName,
		})
	}
}
