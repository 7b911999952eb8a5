package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MikeSquared-Agency/mnemosyne/internal/api"
	"github.com/MikeSquared-Agency/mnemosyne/internal/backfill"
	"github.com/MikeSquared-Agency/mnemosyne/internal/config"
	"github.com/MikeSquared-Agency/mnemosyne/internal/embed"
	"github.com/MikeSquared-Agency/mnemosyne/internal/hermes"
	"github.com/MikeSquared-Agency/mnemosyne/internal/openai"
	"github.com/MikeSquared-Agency/mnemosyne/internal/processor"
	"github.com/MikeSquared-Agency/mnemosyne/internal/retrieval"
	"github.com/MikeSquared-Agency/mnemosyne/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("mnemosyne starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected", "dialect", cfg.StoreDialect)

	// Embedding provider: remote when configured, deterministic otherwise.
	var embedder embed.Embedder
	provider := "deterministic"
	if cfg.OpenAIAPIKey != "" {
		embedder = openai.NewEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
		provider = cfg.EmbeddingModel
		slog.Info("openai embedder ready", "model", cfg.EmbeddingModel, "dimensions", cfg.EmbeddingDimensions)
	} else {
		embedder = embed.NewDeterministic()
		slog.Warn("no embedding provider configured, using deterministic embedder")
	}

	// NATS/Hermes
	bus, err := hermes.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer bus.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	// Live summarize-and-embed path
	proc := processor.New(db, embedder, bus, cfg.EmbeddingDimensions, slog.Default())
	if err := bus.Subscribe(hermes.SubjectSessionClosed, proc.HandleSessionClosed); err != nil {
		slog.Error("failed to subscribe to session events", "error", err)
		os.Exit(1)
	}

	// Retrieval + maintenance surface
	retriever := retrieval.New(db, embedder, cfg.EmbeddingDimensions, cfg.VectorCapable(), slog.Default())
	runner := backfill.NewRunner(backfill.Config{
		Dimensions:    cfg.EmbeddingDimensions,
		VectorCapable: cfg.VectorCapable(),
		BatchSize:     cfg.BackfillBatchSize,
		BatchDelay:    time.Duration(cfg.BackfillDelayMs) * time.Millisecond,
	}, db, embedder, slog.Default())

	srv := api.NewServer(cfg.Port, retriever, runner, provider)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Announce registration
	if err := bus.Publish(hermes.SubjectRegistered, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      cfg.Port,
		"provider":  provider,
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("mnemosyne ready", "port", cfg.Port, "provider", provider)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("mnemosyne stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
