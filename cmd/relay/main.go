package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ChamsBouzaiene/relay/internal/config"
	"github.com/ChamsBouzaiene/relay/internal/engine"
	"github.com/ChamsBouzaiene/relay/internal/eventlog"
	"github.com/ChamsBouzaiene/relay/internal/providers"
	"github.com/ChamsBouzaiene/relay/internal/session"
	"github.com/ChamsBouzaiene/relay/internal/tools"
	"github.com/ChamsBouzaiene/relay/internal/ws"
)

func main() {
	// Load .env file if it exists.
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	if cfg.AnthropicAPIKey == "" {
		log.Fatal().Msg("ANTHROPIC_API_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recorder := openRecorder(ctx, cfg.EventDBPath)

	store := session.NewStore()
	hub := ws.NewHub()
	llm := providers.NewAnthropicClient(cfg.AnthropicAPIKey)
	orch := engine.New(llm, tools.NewRegistry(), store, hub, engine.Config{
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
		System:    cfg.SystemPrompt,
		MaxRounds: cfg.MaxRounds,
	})
	server := ws.NewServer(cfg, hub, store, orch, recorder)

	e := echo.New()
	e.HideBanner = true
	e.File("/", "static/index.html")
	e.Static("/static", "static")
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/ws/session/:session_id", server.HandleSession)

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("model", cfg.Model).Msg("relay listening")
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(lvl)
}

// openRecorder opens the audit database, falling back to a no-op recorder:
// audit persistence is best-effort and must not keep the relay from serving.
func openRecorder(ctx context.Context, path string) eventlog.Recorder {
	if path == "" {
		log.Info().Msg("audit database disabled")
		return eventlog.Nop{}
	}
	rec, err := eventlog.Open(ctx, path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("audit database unavailable, events will not be persisted")
		return eventlog.Nop{}
	}
	return rec
}
