// Command clashbot is the Clash of Code lobby bot.
// It:
//   - Loads configuration and initializes structured logging.
//   - Fetches the language catalog from CodinGame once at startup.
//   - Connects to Discord, registers the /clash command, and serves
//     invocations and language autocomplete.
//   - Exposes a minimal HTTP server with /healthz, /status, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cocbot/clashbot/catalog"
	"github.com/cocbot/clashbot/codingame"
	"github.com/cocbot/clashbot/config"
	"github.com/cocbot/clashbot/discord"
	"github.com/cocbot/clashbot/lobby"
	"github.com/cocbot/clashbot/server"
	"github.com/cocbot/clashbot/telemetry"
)

// catalogAttempts bounds the startup language fetch. The bot cannot validate
// language input without the catalog, so exhausting these is fatal.
const catalogAttempts = 3

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateBotReady(); err != nil {
		slog.Error("missing credentials", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()
	shutdownTracing, err := telemetry.InitTracing("clashbot", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdownTracing()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Language catalog: fetched once before any command traffic, immutable after.
	client := codingame.NewClient(cfg.RememberMeCookie)
	languages, err := fetchLanguages(ctx, client)
	if err != nil {
		slog.Error("language catalog fetch failed; cannot validate input without it", slog.Any("err", err))
		os.Exit(1)
	}
	slog.Info("language catalog loaded", slog.Int("languages", languages.Len()))

	var active atomic.Int64
	orch := &lobby.Orchestrator{
		Client:       client,
		Modes:        catalog.New(cfg.Modes),
		Languages:    languages,
		PollInterval: cfg.PollInterval,
		PollTimeout:  cfg.PollTimeout,
		MessageTTL:   cfg.MessageTTL,
		RejectTTL:    cfg.RejectTTL,
		Active:       &active,
	}

	bot, err := discord.New(ctx, cfg.DiscordToken, cfg.DiscordGuildID, cfg.Modes, languages, orch)
	if err != nil {
		slog.Error("discord setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := bot.Start(); err != nil {
		slog.Error("discord start failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := bot.Close(); err != nil {
			slog.Error("discord close failed", slog.Any("err", err))
		}
	}()

	// HTTP server (health/status/metrics)
	handlers := &server.Handlers{
		StartTime:    time.Now(),
		CatalogSize:  languages.Len(),
		Active:       &active,
		GatewayReady: bot.Ready,
	}
	go func() {
		if err := server.Start(ctx, cfg.HTTPAddr, handlers); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}

// fetchLanguages retries the catalog fetch a few times before giving up. The
// upstream service occasionally serves empty bodies right after login.
func fetchLanguages(ctx context.Context, client *codingame.Client) (*catalog.Catalog, error) {
	var lastErr error
	for attempt := 1; attempt <= catalogAttempts; attempt++ {
		ids, err := client.LanguageIDs(ctx)
		if err == nil {
			return catalog.NewLanguages(ids), nil
		}
		lastErr = err
		slog.Warn("language catalog fetch failed", slog.Int("attempt", attempt), slog.Any("err", err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, lastErr
}
