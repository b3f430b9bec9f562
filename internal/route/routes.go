package route

import (
	"net/http"
	"strings"

	"boxcounter/internal/config"
	"boxcounter/internal/handler"
	"boxcounter/internal/logger"
	"boxcounter/internal/middleware"
	"boxcounter/internal/repository"
	"boxcounter/internal/service"
)

// SetupRoutes registers the analysis, history, live feed and log endpoints
// and wraps the mux with the CORS and authentication middleware.
func SetupRoutes(manager *service.Manager, cfg *config.Config, log *logger.Logger,
	analysisRepo repository.AnalysisRepository, findingRepo repository.FindingRepository) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handler.HealthHandler(manager, log))
	mux.HandleFunc("/analyze", handler.AnalyzeHandler(manager, cfg, log))

	// History endpoints
	if analysisRepo != nil {
		mux.HandleFunc("/api/analyses", handler.GetAnalysesHandler(log, analysisRepo))
		mux.HandleFunc("/api/analyses/stats", handler.GetAnalysisStatsHandler(log, analysisRepo))
		mux.HandleFunc("/api/analyses/export", handler.ExportAnalysesHandler(log, analysisRepo))
		mux.HandleFunc("/api/analyses/view", handler.ViewAnalysisHandler(log, analysisRepo))
		mux.HandleFunc("/api/analyses/delete", handler.DeleteAnalysisHandler(log, analysisRepo))
		mux.HandleFunc("/api/analyses/clear", handler.ClearAnalysesHandler(cfg, log, analysisRepo))
		if findingRepo != nil {
			mux.HandleFunc("/api/analyses/detail", handler.GetAnalysisHandler(log, analysisRepo, findingRepo))
		}
	}

	mux.HandleFunc("/api/live", handler.LiveWebsocketHandler(manager, handler.NewUpgrader(cfg.AllowedOrigins), log))

	// Log endpoints
	for _, file := range []string{logger.DebugFile, logger.InfoFile, logger.WarningFile, logger.ErrorFile} {
		name := strings.TrimSuffix(file, ".log")
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(log, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(log, file))
	}

	// Apply middleware
	return middleware.CORSMiddleware(cfg.AllowedOrigins)(middleware.AuthMiddleware(cfg.APIToken)(mux))
}
