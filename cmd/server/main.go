package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"campreg/internal/audit"
	"campreg/internal/auth"
	"campreg/internal/church"
	churchhandler "campreg/internal/church/handler"
	"campreg/internal/event"
	eventhandler "campreg/internal/event/handler"
	"campreg/internal/extraction"
	"campreg/internal/filestore"
	"campreg/internal/platform/config"
	"campreg/internal/platform/httpserver"
	"campreg/internal/platform/logger"
	"campreg/internal/platform/postgres"
	"campreg/internal/platform/redis"
	"campreg/internal/registration"
	reghandler "campreg/internal/registration/handler"
	"campreg/internal/registration/metrics"
	"campreg/internal/report"
	reporthandler "campreg/internal/report/handler"
	httptransport "campreg/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services; nothing here should branch on domain state.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	if cfg.ConsoleLog {
		log = logger.NewConsole()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when a database URL is configured, in-memory otherwise.
	var (
		eventStore = event.Store(event.NewInMemoryStore())
		regStore   = registration.Store(registration.NewInMemoryStore())
		refStore   = church.Store(church.NewInMemoryStore())
		auditStore = audit.Store(audit.NewInMemoryStore())
		health     func() error
	)
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect postgres")
		}
		defer pool.Close()
		eventStore = event.NewPostgresStore(pool)
		regStore = registration.NewPostgresStore(pool)
		refStore = church.NewPostgresStore(pool)
		auditStore = audit.NewPostgresStore(pool)
		health = func() error { return pool.Ping(context.Background()) }
	}

	rdb, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var (
		summaryCache report.Cache
		invalidator  registration.CacheInvalidator
	)
	if rdb != nil {
		cache := report.NewRedisCache(rdb.Client, cfg.SummaryTTL)
		summaryCache = cache
		invalidator = cache
	}

	inbox := make(chan audit.Event, cfg.AuditBuffer)
	publisher := audit.NewPublisher(inbox, log)
	auditWorker := audit.NewWorker(auditStore, inbox, log)

	regMetrics := metrics.New()
	eventService := event.NewService(eventStore, regStore, publisher)
	regService := registration.NewService(regStore, eventService, regMetrics, publisher, invalidator)
	churchService := church.NewService(refStore, regStore, publisher)
	reportService := report.NewService(regStore, churchService, summaryCache)

	jwtService := auth.NewJWTService(cfg.JWTSigningKey, "campreg")

	var extractor extraction.Extractor
	if cfg.Extractor == "list" {
		extractor = extraction.ListExtractor{}
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Validator: jwtService,
		Log:       log,
		Health:    health,
		Handlers: []httptransport.Registrar{
			reghandler.New(regService, filestore.NewInMemoryStore(), extractor, log),
			eventhandler.New(eventService),
			churchhandler.New(churchService),
			reporthandler.New(reportService),
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return auditWorker.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("starting campreg server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("shutdown complete")
}
