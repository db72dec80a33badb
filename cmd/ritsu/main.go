package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/jonny/ritsu-bot/internal/adapter/inbound/webhook"
	"github.com/jonny/ritsu-bot/internal/adapter/outbound/cachestore"
	"github.com/jonny/ritsu-bot/internal/adapter/outbound/discord"
	"github.com/jonny/ritsu-bot/internal/adapter/outbound/fetch"
	"github.com/jonny/ritsu-bot/internal/commands"
	"github.com/jonny/ritsu-bot/internal/config"
	"github.com/jonny/ritsu-bot/internal/domain/service"
	"github.com/jonny/ritsu-bot/internal/tasks"
	"github.com/jonny/ritsu-bot/pkg/health"
	"github.com/jonny/ritsu-bot/pkg/version"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	printVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *printVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = buildLogger(cfg.Logging)

	publicKey, err := cfg.Discord.DecodePublicKey()
	if err != nil {
		logger.Error("failed to decode public key", "error", err)
		os.Exit(1)
	}

	// --- Cache substrate ---
	store, err := cachestore.New(cfg.Cache)
	if err != nil {
		logger.Error("failed to open cache store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// --- Background task tracking ---
	tracker := tasks.NewTracker(logger, cfg.Tasks.Timeout)

	// --- Outbound clients ---
	discordClient := discord.NewClient(discord.Config{
		APIBase:           cfg.Discord.APIBase,
		AppID:             cfg.Discord.AppID,
		ClientSecret:      cfg.Discord.ClientSecret,
		Timeout:           cfg.Discord.RequestTimeout,
		EditRatePerSecond: cfg.Discord.EditRatePerSecond,
	}, logger)

	fetcher := fetch.NewClient(fetch.Config{
		Timeout:      cfg.Fetch.Timeout,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	}, store, tracker, logger)

	// --- Command handlers & router ---
	router, err := service.NewRouter(logger,
		commands.NewPubchem(fetcher, discordClient, logger),
		commands.NewWiki(fetcher, discordClient, logger),
		commands.NewSubsplease(fetcher, discordClient, logger),
	)
	if err != nil {
		logger.Error("failed to build interaction router", "error", err)
		os.Exit(1)
	}

	// --- Health checker ---
	checker := health.NewChecker()
	checker.Register("cache", func(ctx context.Context) error {
		return store.Ping(ctx)
	})

	// --- Webhook server ---
	requestsPerMinute := 0
	if cfg.RateLimit.Enabled {
		requestsPerMinute = cfg.RateLimit.RequestsPerMinute
	}

	var syncHandler *webhook.SyncHandler
	if cfg.Discord.TrustedLocalEnv {
		syncHandler = webhook.NewSyncHandler(discordClient, router.Commands(), logger)
	}

	webhookHandler := webhook.NewHandler(router, tracker, logger)
	webhookServer := webhook.NewServer(webhook.ServerConfig{
		Port:              cfg.Server.Port,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		PublicKey:         publicKey,
		RequestsPerMinute: requestsPerMinute,
		EnableSync:        cfg.Discord.TrustedLocalEnv,
	}, webhookHandler, syncHandler, checker, logger)

	// --- Metrics/health server ---
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", checker.LivenessHandler())
	metricsMux.HandleFunc("/readyz", checker.ReadinessHandler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: metricsMux,
	}

	// --- Signal handling & startup ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting webhook server", "port", cfg.Server.Port)
		return webhookServer.Start(gCtx)
	})

	g.Go(func() error {
		logger.Info("starting metrics server", "port", cfg.Server.MetricsPort)
		errCh := make(chan error, 1)
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
			close(errCh)
		}()
		select {
		case <-gCtx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	})

	logger.Info("ritsu started", "version", version.String())

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}

	// Let in-flight follow-up edits finish before exiting.
	logger.Info("waiting for background tasks")
	tracker.Wait()

	logger.Info("ritsu stopped")
}

// buildLogger constructs a slog.Logger based on config.
func buildLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
