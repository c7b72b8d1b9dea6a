package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/a3tai/pdf-sign-server/internal/audit"
	"github.com/a3tai/pdf-sign-server/internal/config"
	"github.com/a3tai/pdf-sign-server/internal/logging"
	"github.com/a3tai/pdf-sign-server/internal/sign"
	"github.com/a3tai/pdf-sign-server/internal/sourcedoc"
	"github.com/a3tai/pdf-sign-server/internal/storage"
	"github.com/a3tai/pdf-sign-server/internal/web"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
)

func main() {
	if hasVersionFlag() {
		fmt.Printf("pdf-sign-server %s (built %s)\n", version, buildTime)
		return
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck // stdout sync errors are not actionable

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	source := sourcedoc.NewProvider(cfg.SourceDocument, cfg.MaxFileSize)
	if err := source.Probe(); err != nil {
		return err
	}

	artifacts, err := storage.NewStore(cfg.OutputDir, cfg.PublicDir)
	if err != nil {
		return fmt.Errorf("failed to initialize artifact store: %w", err)
	}

	audits, err := audit.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize audit store: %w", err)
	}
	defer audits.Close()

	pipeline := sign.NewPipeline(source, artifacts, audits, logger)
	server := web.NewServer(pipeline, audits, artifacts, cfg.PublicDir, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		sig := <-signalCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	logger.Info("starting server",
		zap.String("address", cfg.Address()),
		zap.String("source_document", cfg.SourceDocument),
		zap.String("output_dir", cfg.OutputDir))

	return server.Run(ctx, cfg.Address())
}

func hasVersionFlag() bool {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}
