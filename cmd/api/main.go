package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skils4/video-maker/internal/api"
	"github.com/skils4/video-maker/internal/assets"
	"github.com/skils4/video-maker/internal/config"
	"github.com/skils4/video-maker/internal/progress"
	"github.com/skils4/video-maker/internal/queue"
	"github.com/skils4/video-maker/internal/services"
	"github.com/skils4/video-maker/internal/worker"
)

func main() {
	log.Println("Starting Video Maker API...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to Redis queue
	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()
	log.Println("Connected to Redis queue")

	// Initialize asset storage and locator
	store, err := assets.NewStore(cfg.UploadsDir)
	if err != nil {
		log.Fatalf("Failed to initialize uploads storage: %v", err)
	}
	locator := assets.NewLocator(cfg.UploadsDir)

	// Websocket hub for live progress
	hub := progress.NewHub()

	// Initialize services
	openaiSvc := services.NewOpenAIService(cfg.OpenAIKey)
	ttsSvc := services.NewGeminiService(cfg.GeminiKey)
	imagenSvc := services.NewImagenService(cfg.GeminiKey, cfg.HuggingFaceKey, cfg.ImageProvider)
	ffmpegSvc := services.NewFFmpegService(cfg.ScratchDir, cfg.OutputDir, cfg.EngineTimeout)

	// Create API handler
	handler := api.NewHandler(q, store, ttsSvc, imagenSvc, openaiSvc, hub)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsOrigins,
		UploadsDir:         cfg.UploadsDir,
		VideosDir:          cfg.OutputDir,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set — API is unprotected (dev mode)")
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Start worker if enabled
	var workerCancel context.CancelFunc
	if cfg.WorkerEnabled {
		log.Println("Worker enabled, starting background processing...")

		w := worker.New(q, locator, store, ffmpegSvc, imagenSvc, ttsSvc, hub)

		var workerCtx context.Context
		workerCtx, workerCancel = context.WithCancel(context.Background())
		go w.Start(workerCtx, cfg.MaxConcurrentJobs)
	}

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Shutdown worker
	if workerCancel != nil {
		workerCancel()
	}

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
