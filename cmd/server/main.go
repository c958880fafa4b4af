package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nirvagold/DapoMaster/internal/audit"
	"github.com/nirvagold/DapoMaster/internal/jwttoken"
	"github.com/nirvagold/DapoMaster/internal/platform/config"
	"github.com/nirvagold/DapoMaster/internal/platform/httpserver"
	"github.com/nirvagold/DapoMaster/internal/platform/logger"
	"github.com/nirvagold/DapoMaster/internal/platform/metrics"
	"github.com/nirvagold/DapoMaster/internal/platform/middleware"
	"github.com/nirvagold/DapoMaster/internal/platform/postgres"
	redisplatform "github.com/nirvagold/DapoMaster/internal/platform/redis"
	"github.com/nirvagold/DapoMaster/internal/reference"
	"github.com/nirvagold/DapoMaster/internal/students"
	"github.com/nirvagold/DapoMaster/internal/validation"
	"github.com/nirvagold/DapoMaster/internal/validation/lock"
	"github.com/nirvagold/DapoMaster/internal/validation/service"
	sessionstore "github.com/nirvagold/DapoMaster/internal/validation/store/session"
	snapshotstore "github.com/nirvagold/DapoMaster/internal/validation/store/snapshot"
	"github.com/nirvagold/DapoMaster/pkg/platform/tx"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := redisplatform.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var guard lock.Lock = lock.NewMemoryLock()
	if redisClient != nil {
		guard = lock.NewRedisLock(redisClient.Client, 10*time.Minute, log)
	}

	var publisher audit.Publisher = audit.Nop{}
	var kafkaPublisher *audit.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err = audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		publisher = kafkaPublisher
	}

	var validator middleware.TokenValidator
	if cfg.JWTSigningKey != "" {
		validator = jwttoken.New(cfg.JWTSigningKey, "dapomaster")
	}

	m := metrics.New()
	records := students.NewPostgresStore(db)
	refs := reference.NewPostgresCatalog(db)
	snapshots := validation.NewSnapshotManager(records, snapshotstore.NewPostgresStore(db), log)
	engine := validation.NewService(records, refs, sessionstore.NewPostgresStore(db), snapshots, guard,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(publisher),
		service.WithTxRunner(tx.SQLRunner{DB: db}),
	)
	handler := validation.NewHandler(engine, log, cfg.SessionRetention)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middleware.ClientMetadata)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, log))
		handler.Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting dapomaster", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(shutdownCtx); err != nil {
			log.Error("failed to flush audit events", "error", err)
		}
	}
}
