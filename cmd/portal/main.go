package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/jobappid/verify-portal/internal/api/http"
	"github.com/jobappid/verify-portal/internal/api/http/handlers"
	"github.com/jobappid/verify-portal/internal/auth"
	"github.com/jobappid/verify-portal/internal/config"
	"github.com/jobappid/verify-portal/internal/events"
	"github.com/jobappid/verify-portal/internal/observability"
	"github.com/jobappid/verify-portal/internal/persistence"
	"github.com/jobappid/verify-portal/internal/service"
	"github.com/jobappid/verify-portal/internal/session"
	"github.com/jobappid/verify-portal/internal/upstream"
	"github.com/jobappid/verify-portal/internal/web"
	"github.com/jobappid/verify-portal/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	var (
		redis    *persistence.Redis
		sessions session.Store
	)
	switch cfg.Session.Backend {
	case config.SessionBackendMemory:
		logger.Warn("sessions kept in memory; they are lost on restart")
		sessions = session.NewMemoryStore()
	default:
		redis = persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		store, err := session.NewRedisStore(redis, cfg.Session.TTL(), logger)
		if err != nil {
			logger.Fatal("failed to build session store", zap.Error(err))
		}
		sessions = store
	}

	client, err := upstream.New(cfg.Upstream, logger, metrics)
	if err != nil {
		logger.Fatal("failed to build verification api client", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartActivityWorker(service.NewActivityService(dispatcher, logger, metrics))

	busy := service.NewBusyGuard()
	authFlow := service.NewAuthFlow(client, sessions, busy, dispatcher, logger)
	searchFlow := service.NewSearchFlow(client, busy, dispatcher, logger)
	agencyFlow := service.NewAgencyFlow(client, busy, dispatcher, logger)

	tokens := auth.NewTokenManager(cfg.Session.Secret, cfg.Session.TTL())

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		Views:                 web.NewEngine(cfg.App.Env != "production"),
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis),
		Portal:   handlers.NewPortalHandler(authFlow, searchFlow, agencyFlow),
		Sessions: auth.NewSessionMiddleware(tokens, sessions, cfg.Session.CookieSecure),
		Gatherer: registry,
	})

	go func() {
		logger.Info("portal listening", zap.String("addr", cfg.App.Addr()), zap.String("api_base_url", cfg.Upstream.BaseURL))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.RequestTimeout()+5*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
