package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mzolotukhin/daybook/internal/aggregator"
	"github.com/mzolotukhin/daybook/internal/config"
	"github.com/mzolotukhin/daybook/internal/logger"
	"github.com/mzolotukhin/daybook/internal/playlist"
	"github.com/mzolotukhin/daybook/internal/server"
	"github.com/mzolotukhin/daybook/internal/store"
	"github.com/mzolotukhin/daybook/internal/summarizer"
	"github.com/mzolotukhin/daybook/internal/transcriber"
	"github.com/mzolotukhin/daybook/internal/watcher"
	"github.com/mzolotukhin/daybook/pkg/executor"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("daybook pipeline starting",
		"recordings", cfg.Paths.Recordings,
		"database", cfg.Paths.Database,
		"whisper_mock", cfg.Whisper.Mock,
		"summary_provider", cfg.Summary.Provider)

	if err := os.MkdirAll(cfg.Paths.Recordings, 0o755); err != nil {
		log.Error("failed to create recordings directory", "err", err)
		os.Exit(1)
	}

	st, err := store.New(cfg.Paths.Database, log)
	if err != nil {
		log.Error("failed to open store", "err", err)
		os.Exit(1)
	}

	client, err := summaryClient(cfg, log)
	if err != nil {
		log.Error("failed to create summary client", "err", err)
		os.Exit(1)
	}

	agg := aggregator.New(st, log)
	engine := transcriber.NewEngine(cfg, executor.New(), log)
	trans := transcriber.New(cfg, st, engine, agg, log)
	sum := summarizer.New(cfg, st, client, log)
	srv := server.New(cfg, st, sum, playlist.NewBuilder(st), trans, log)

	w, err := watcher.New(cfg, st, trans, log)
	if err != nil {
		log.Error("failed to create watcher", "err", err)
		os.Exit(1)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	trans.Start(ctx)

	errChan := make(chan error, 2)
	go func() {
		if err := w.Start(ctx); err != nil && err != context.Canceled {
			errChan <- fmt.Errorf("watcher: %w", err)
		}
	}()
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- fmt.Errorf("server: %w", err)
		}
	}()

	log.Info("daybook pipeline is ready", "addr", cfg.Server.Addr)

	select {
	case <-sigChan:
		log.Info("shutdown signal received")
	case err := <-errChan:
		log.Error("component failed", "err", err)
	}

	log.Info("shutting down")
	cancel()

	sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error("server shutdown failed", "err", err)
	}

	trans.Stop()
	log.Info("daybook pipeline stopped")
}

// summaryClient picks the provider configured for short summaries. API
// keys come from the environment so they never land in config files.
func summaryClient(cfg *config.Config, log logger.Logger) (summarizer.Client, error) {
	switch cfg.Summary.Provider {
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return summarizer.NewOpenAIClient(key, cfg.Summary.OpenAIModel), nil
	case "gemini":
		raw := os.Getenv("GEMINI_API_KEYS")
		if raw == "" {
			return nil, fmt.Errorf("GEMINI_API_KEYS is not set")
		}
		var keys []string
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("GEMINI_API_KEYS contains no keys")
		}
		return summarizer.NewGeminiClient(keys, cfg.Summary.GeminiModel, log), nil
	default:
		return nil, fmt.Errorf("unknown summary provider %q", cfg.Summary.Provider)
	}
}
