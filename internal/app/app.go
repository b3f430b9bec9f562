package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"boxcounter/internal/config"
	"boxcounter/internal/logger"
	"boxcounter/internal/repository/sqlite"
	"boxcounter/internal/route"
	"boxcounter/internal/service"
	"boxcounter/internal/service/ai"
	"boxcounter/internal/service/analyzer"
	"boxcounter/internal/service/barcode"
	"boxcounter/internal/service/ocr"
	"boxcounter/internal/service/storage"
	"boxcounter/internal/service/websocket"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	config        *config.Config
	logger        *logger.Logger
	db            *sqlite.DB
	detectors     []io.Closer
	bufferService *storage.BufferService
	hubService    *websocket.HubService
	manager       *service.Manager
	server        *http.Server
}

// NewApp loads both detectors, opens the history database and wires the
// services. It fails when a model cannot be loaded: the server is useless
// without them.
func NewApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{config: cfg, logger: log}

	labelDetector, err := a.buildDetector(ctx, cfg.LabelModelPath, cfg.LabelClasses, ai.RemoteLabelModel)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("label detector: %w", err)
	}
	boxDetector, err := a.buildDetector(ctx, cfg.BoxModelPath, cfg.BoxClasses, ai.RemoteBoxModel)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("box detector: %w", err)
	}

	cascade := analyzer.NewCascade(log,
		analyzer.NewBarcodeProbe(log, barcode.NewZXingDecoder(), barcode.NewOpenCVQRDecoder()),
		analyzer.NewOCRProbe(ocr.NewTesseractReader(cfg.OCRLanguage, cfg.TessdataPrefix)),
	)

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.db = db
	analysisRepo := sqlite.NewAnalysisRepository(db)
	findingRepo := sqlite.NewFindingRepository(db)

	a.bufferService = storage.NewBufferService(cfg, log, analysisRepo, findingRepo)
	a.hubService = websocket.NewHubService(log)
	a.manager = service.NewManager(
		analyzer.New(labelDetector, boxDetector, cascade, log),
		a.bufferService, a.hubService, log,
	)

	a.server = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           route.SetupRoutes(a.manager, cfg, log, analysisRepo, findingRepo),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	return a, nil
}

// buildDetector returns a pool of local YOLO networks, or a remote detector
// when INFERENCE_URL is set.
func (a *App) buildDetector(ctx context.Context, modelPath string, classes []string, remoteModel string) (analyzer.Detector, error) {
	cfg := a.config

	if cfg.InferenceURL != "" {
		remote, err := ai.NewRemoteDetector(cfg.InferenceURL, remoteModel, cfg.RequestTimeout, a.logger)
		if err != nil {
			return nil, err
		}
		if err := remote.CheckHealth(ctx); err != nil {
			return nil, fmt.Errorf("inference service %s: %w", cfg.InferenceURL, err)
		}
		a.logger.Info("Using remote %s model at %s", remoteModel, cfg.InferenceURL)
		return remote, nil
	}

	opts := ai.Options{
		ModelPath:    modelPath,
		Classes:      classes,
		InputSize:    cfg.ModelInputSize,
		Threshold:    cfg.DetectionThreshold,
		NMSThreshold: cfg.NMSThreshold,
	}
	pool, err := ai.NewPool(cfg.ProcessingWorkers, func(i int) (analyzer.Detector, error) {
		return ai.NewYOLODetector(opts, a.logger)
	})
	if err != nil {
		return nil, err
	}
	a.detectors = append(a.detectors, pool)
	a.logger.Info("Loaded %s with %d worker(s)", modelPath, pool.Size())
	return pool, nil
}

// Run serves HTTP until ctx is done, then shuts down gracefully and flushes
// buffered results.
func (a *App) Run(ctx context.Context) error {
	bgCtx, stopBackground := context.WithCancel(context.Background())
	bufferDone := make(chan struct{})
	go func() {
		a.bufferService.Run(bgCtx)
		close(bufferDone)
	}()
	go a.hubService.Run(bgCtx)

	a.logger.Info("🚀 Box counter listening on %s", a.server.Addr)
	a.logger.Info("📁 Results: %s, history: %s", a.config.ResultDirectory, a.config.DatabasePath)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.server.ListenAndServe()
	}()

	var err error
	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		a.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err = a.server.Shutdown(shutdownCtx)
		cancel()
	}

	stopBackground()
	<-bufferDone
	return err
}

// Close releases detectors and the database.
func (a *App) Close() error {
	var errs []error
	for _, d := range a.detectors {
		errs = append(errs, d.Close())
	}
	a.detectors = nil
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	return errors.Join(errs...)
}
