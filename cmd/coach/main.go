package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xaenox/mind-coach/internal/api"
	"github.com/xaenox/mind-coach/internal/bot"
	"github.com/xaenox/mind-coach/internal/coach"
	"github.com/xaenox/mind-coach/internal/diagnostic"
	"github.com/xaenox/mind-coach/internal/entitlement"
	"github.com/xaenox/mind-coach/internal/intervention"
	"github.com/xaenox/mind-coach/internal/llm"
	"github.com/xaenox/mind-coach/internal/metrics"
	"github.com/xaenox/mind-coach/internal/router"
	"github.com/xaenox/mind-coach/internal/safety"
	"github.com/xaenox/mind-coach/internal/storage"
	"github.com/xaenox/mind-coach/pkg/config"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("Failed to load config", zap.Error(err), zap.String("path", configPath))
	}

	logger, err := newLogger(cfg.Logging.Mode)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	store, err := openStore(gctx, g, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err), zap.String("backend", cfg.Storage.Backend))
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	backend := llm.NewOpenAIBackend(llm.OpenAIConfig{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	temperature := float32(cfg.OpenAI.Temperature)
	screen := safety.NewScreen(backend, safety.Config{Keywords: cfg.Safety.Keywords}, m, logger)
	assessor := diagnostic.NewAssessor(backend, diagnostic.Config{Temperature: temperature, MaxTokens: cfg.OpenAI.MaxTokens}, m, logger)
	prescriber := intervention.NewPrescriber(backend, intervention.Config{Temperature: temperature, MaxTokens: cfg.OpenAI.MaxTokens}, m, logger)
	svc := coach.NewService(
		screen,
		storage.NewProfiles(store),
		router.New(assessor, prescriber, store, logger),
		store,
		coach.Config{HistoryTTL: cfg.Storage.HistoryTTL},
		m,
		logger,
	)
	defer svc.Wait()

	checker, err := entitlement.New(entitlement.Mode(cfg.Entitlement.Mode), store, logger)
	if err != nil {
		logger.Fatal("Failed to configure entitlement", zap.Error(err))
	}
	checker = entitlement.NewCached(checker, cfg.Entitlement.CacheSize, cfg.Entitlement.CacheTTL)

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("auth.jwt_secret is empty, HTTP requests are not authenticated")
	}

	if cfg.Telegram.Token != "" {
		b, err := bot.New(cfg.Telegram.Token, svc, checker, logger)
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}
		g.Go(func() error {
			if err := b.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		logger.Info("Telegram bot started")
	}

	server := api.NewServer(svc, checker, registry, api.Config{
		JWTSecret: cfg.Auth.JWTSecret,
		JWTIssuer: cfg.Auth.Issuer,
		RateLimit: api.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
			MaxClients:        cfg.RateLimit.MaxClients,
			IdleTTL:           cfg.RateLimit.IdleTTL,
		},
		CORSOrigins: cfg.Server.CORSOrigins,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openStore(ctx context.Context, g *errgroup.Group, cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		logger.Info("Using PostgreSQL storage")
		pg, err := storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}, logger)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			purgeExpired(ctx, pg, cfg.Storage.PurgeInterval, logger)
			return nil
		})
		return pg, nil
	case "redis":
		logger.Info("Using Redis storage")
		return storage.NewRedisStorage(storage.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, logger)
	default:
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	}
}

type expiryPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// purgeExpired sweeps expired rows every interval until ctx is done. The
// store logs what it removed; only failures are reported here.
func purgeExpired(ctx context.Context, pg expiryPurger, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := pg.PurgeExpired(ctx); err != nil {
				logger.Warn("Failed to purge expired records", zap.Error(err))
			}
		}
	}
}
