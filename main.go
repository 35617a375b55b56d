package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vidserve/internal/handlers"
	"vidserve/internal/logging"
	"vidserve/internal/metrics"
	"vidserve/internal/middleware"
	"vidserve/internal/startup"
	"vidserve/internal/store"
	"vidserve/internal/transcoder"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize blob store
	st, err := store.New(config.UploadDir, config.MaxUploadBytes)
	if err != nil {
		startup.LogFatal("Failed to initialize blob store: %v", err)
	}

	// Initialize catalog
	catalogStart := time.Now()
	catalog, err := store.OpenCatalog(context.Background(), config.CatalogPath)
	if err != nil {
		startup.LogFatal("Failed to initialize catalog: %v", err)
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			logging.Warn("Failed to close catalog: %v", err)
		}
	}()
	startup.LogCatalogInit(time.Since(catalogStart))

	// Initialize transcoder
	trans, err := transcoder.New(config.ScratchDir, config.FFmpegPath, config.MaxConcurrentEncodes)
	if err != nil {
		startup.LogFatal("Failed to initialize transcoder: %v", err)
	}
	startup.LogTranscoderInit(config.FFmpegPath, trans.Slots().Capacity())

	// Initialize metrics
	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	}

	// Initialize handlers
	h := handlers.New(st, catalog, trans)

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply metrics middleware
	var handler http.Handler = router
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	// Create server. WriteTimeout stays 0 so long video deliveries are not
	// cut off mid-stream.
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start metrics server on its own port so scrapes never contend with
	// media delivery
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := mux.NewRouter()
		metricsMux.Handle("/metrics", h.MetricsHandler()).Methods("GET")
		metricsSrv = &http.Server{
			Addr:         ":" + config.MetricsPort,
			Handler:      metricsMux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Upload, listing, and delivery
	r.HandleFunc("/videos/upload", h.UploadVideo).Methods("POST")
	r.HandleFunc("/videos", h.ListVideos).Methods("GET")
	r.HandleFunc("/videos/{storedFilename}", h.GetVideo).Methods("GET")

	// Transcoding
	r.HandleFunc("/encode", h.EncodeVideo).Methods("POST")
	r.HandleFunc("/encode/multi", h.EncodeVideoLadder).Methods("POST")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
