package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mnedoszytko/leitner-flashcards/internal/api"
	"github.com/mnedoszytko/leitner-flashcards/internal/config"
	"github.com/mnedoszytko/leitner-flashcards/internal/db"
	"github.com/mnedoszytko/leitner-flashcards/internal/logger"
	"github.com/mnedoszytko/leitner-flashcards/internal/repository/sqlite"
	"github.com/mnedoszytko/leitner-flashcards/internal/services"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("Leitner Flashcards Server Starting")
	log.Info("===========================================")

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("cors_allowed_origins=%v", cfg.CORSAllowedOrigins)
	log.Debug("max_import_bytes=%d", cfg.MaxImportBytes)

	ctx := logger.NewContext(context.Background(), log)

	// Open database
	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Repositories
	subjectRepo := sqlite.NewSubjectRepository(database.DB)
	deckRepo := sqlite.NewDeckRepository(database.DB)
	cardRepo := sqlite.NewCardRepository(database.DB)
	sessionRepo := sqlite.NewSessionRepository(database.DB)
	exchangeRepo := sqlite.NewExchangeRepository(database.DB)

	// Initialize services
	opts := []services.Option{services.WithExportSource(cfg.ExportSource)}
	srv := &api.Server{
		SubjectService:     services.NewSubjectService(subjectRepo, deckRepo, cardRepo, opts...),
		DeckService:        services.NewDeckService(deckRepo, subjectRepo, opts...),
		CardService:        services.NewCardService(cardRepo, deckRepo, opts...),
		ReviewService:      services.NewReviewService(cardRepo, sessionRepo, opts...),
		ExchangeService:    services.NewExchangeService(exchangeRepo, opts...),
		StatsService:       services.NewStatsService(subjectRepo, deckRepo, cardRepo, opts...),
		DB:                 database.DB,
		MaxImportBytes:     cfg.MaxImportBytes,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Info("===========================================")
	log.Info("Leitner Flashcards Server Stopped")
	log.Info("===========================================")
}
