package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trustai/trust-server/internal/api"
	"github.com/trustai/trust-server/internal/config"
	"github.com/trustai/trust-server/internal/db"
	"github.com/trustai/trust-server/internal/factcheck"
	"github.com/trustai/trust-server/internal/llm"
	"github.com/trustai/trust-server/internal/media"
	"github.com/trustai/trust-server/internal/pipeline"
	"github.com/trustai/trust-server/internal/scheduler"
	"github.com/trustai/trust-server/internal/scratch"
	"github.com/trustai/trust-server/internal/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting trust-server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// Scratch workspace for frame artifacts
	workspace, err := scratch.NewWorkspace(cfg.ScratchDir)
	if err != nil {
		log.Fatalf("Failed to create scratch workspace: %v", err)
	}

	// Create LLM client
	llmClient := llm.NewClient(cfg.OpenAIKey, cfg.OpenAITextModel, cfg.OpenAIImageModel)

	// Validate OpenAI connection at startup
	log.Println("Validating OpenAI connection...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := llmClient.HealthCheck(ctx); err != nil {
		log.Printf("WARNING: OpenAI health check failed: %v", err)
		log.Println("Server will start but analysis features may not work")
	} else {
		log.Printf("OpenAI connected (models: %s, %s)", cfg.OpenAITextModel, cfg.OpenAIImageModel)
	}
	cancel()

	// Media branch
	frameAnalyzer := media.NewFrameAnalyzer(llmClient)

	var videoAnalyzer *media.Aggregator
	var frameStore *storage.GCSStore
	if cfg.VideoEnabled() {
		frameStore, err = storage.NewGCSStore(context.Background(), cfg.GCSBucket, "frames", cfg.GCSKeyPath)
		if err != nil {
			log.Fatalf("Failed to create frame store: %v", err)
		}
		extractor := media.NewFFmpegExtractor(cfg.FFmpegPath)
		videoAnalyzer = media.NewAggregator(extractor, frameStore, frameAnalyzer, workspace, cfg.FrameWorkers)
		log.Printf("Video analysis enabled (bucket: %s)", cfg.GCSBucket)
	} else {
		log.Println("Video analysis disabled: no frame bucket configured")
	}

	// Text branch
	claimExtractor := factcheck.NewExtractor(llmClient)
	evidenceClient := factcheck.NewEvidenceClient(cfg.WikipediaURL, cfg.SearchAPIURL, cfg.SearchAPIKey)
	fuser := factcheck.NewFuser(llmClient)

	// Orchestrator
	var videos pipeline.VideoAnalyzer
	if videoAnalyzer != nil {
		videos = videoAnalyzer
	}
	orchestrator := pipeline.New(frameAnalyzer, videos, claimExtractor, evidenceClient, fuser, llmClient, database)

	// Create router
	router := api.NewRouter(api.NewHandlers(api.Deps{
		Pipeline:     orchestrator,
		Images:       frameAnalyzer,
		Videos:       videos,
		Extractor:    claimExtractor,
		Evidence:     evidenceClient,
		Fuser:        fuser,
		Chats:        database,
		LLM:          llmClient,
		Workspace:    workspace,
		StorageReady: frameStore != nil,
	}))

	// Create and start scheduler
	sched, err := scheduler.New(workspace, llmClient, cfg.Timezone)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	if err := sched.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	// Start server
	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down gracefully...")

	// Give ongoing requests 10 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Stopping scheduler...")
	if err := sched.Stop(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}

	if frameStore != nil {
		if err := frameStore.Close(); err != nil {
			log.Printf("Frame store close error: %v", err)
		}
	}

	log.Println("Closing database...")
	if err := database.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("Shutdown complete")
}
