// Command server wires the fraud-risk analysis service: the agent pool, the
// analysis coordinator, the investigation store, the review queue, and the
// audit pipeline, exposed over HTTP.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"fraudlens/internal/agentpool"
	poolmetrics "fraudlens/internal/agentpool/metrics"
	"fraudlens/internal/agents"
	"fraudlens/internal/audit"
	"fraudlens/internal/coordinator"
	coordhandler "fraudlens/internal/coordinator/handler"
	coordmetrics "fraudlens/internal/coordinator/metrics"
	"fraudlens/internal/investigation/cache"
	invhandler "fraudlens/internal/investigation/handler"
	invmetrics "fraudlens/internal/investigation/metrics"
	invservice "fraudlens/internal/investigation/service"
	invstore "fraudlens/internal/investigation/store/investigation"
	jwttoken "fraudlens/internal/jwt_token"
	"fraudlens/internal/platform/config"
	"fraudlens/internal/platform/httpserver"
	"fraudlens/internal/platform/logger"
	"fraudlens/internal/platform/redis"
	reviewhandler "fraudlens/internal/review/handler"
	reviewservice "fraudlens/internal/review/service"
	reviewstore "fraudlens/internal/review/store/review"
	httptransport "fraudlens/internal/transport/http"
	"fraudlens/pkg/platform/middleware/ratelimit"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := make(map[string]httptransport.HealthCheck)

	// Investigation store: Postgres when configured, in-memory otherwise.
	var store invservice.Store
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if _, err := pool.Exec(ctx, invstore.Schema); err != nil {
			return fmt.Errorf("apply investigation schema: %w", err)
		}
		health["postgres"] = pool.Ping
		store = invstore.NewPostgresStore(pool)
		log.Info("using postgres investigation store")
	} else {
		store = invstore.NewInMemoryStore()
		log.Warn("no postgres configured, investigation state is in-memory only")
	}

	invOpts := []invservice.Option{
		invservice.WithMetrics(invmetrics.New()),
		invservice.WithRetries(cfg.Coordination.UpdateRetries),
	}

	// Snapshot cache, only when Redis is configured.
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		health["redis"] = redisClient.Health
		invOpts = append(invOpts, invservice.WithCache(cache.NewSnapshotCache(redisClient.Client, 5*time.Minute)))
		log.Info("snapshot cache enabled")
	}

	investigations := invservice.New(store, log, invOpts...)

	// Audit pipeline: non-blocking publisher, worker fanning out to sinks.
	auditSinks, err := buildAuditSinks(ctx, cfg, log)
	if err != nil {
		return err
	}

	inbox := make(chan audit.Event, 256)
	publisher := audit.NewChannelPublisher(inbox, log)
	worker := audit.NewWorker(inbox, log, auditSinks...)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(ctx); err != nil {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	// Review queue and reviewer authentication.
	reviews := reviewservice.New(reviewstore.NewInMemoryStore(), cfg.Escalation, log, publisher)
	registry := reviewservice.NewRegistry(log, publisher)
	bootstrapReviewer(ctx, registry, log)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "fraudlens", "fraudlens-reviews")
	validator := jwttoken.NewJWTServiceAdapter(jwtService)

	// Agent pool with the built-in domain agents registered.
	pool := agentpool.New(agentpool.Config{
		AgentDeadline:        cfg.Coordination.AgentDeadline,
		ResponseTimeBaseline: cfg.Coordination.ResponseTimeBaseline,
	}, log, poolmetrics.New())

	location := agents.NewLocation(log)
	network := agents.NewNetwork(log)
	device := agents.NewDevice(log)
	behavior := agents.NewBehavior(log)
	anomaly := agents.NewAnomaly(log)
	for _, agent := range []agentpool.Agent{location, network, device, behavior, anomaly} {
		if err := pool.Register(agent); err != nil {
			return fmt.Errorf("register agent: %w", err)
		}
	}

	analysis := coordinator.New(coordinator.Agents{
		Location: location,
		Network:  network,
		Device:   device,
		Behavior: behavior,
		Anomaly:  anomaly,
	}, cfg.Coordination, log,
		coordinator.WithMetrics(coordmetrics.New()),
		coordinator.WithAudit(publisher),
		coordinator.WithInvestigations(investigations),
		coordinator.WithEscalation(reviews),
	)

	// A degraded agent subset is survivable; log it and serve what works.
	if err := analysis.Initialize(ctx); err != nil {
		log.Warn("some agents failed to initialize", "error", err)
	}

	limiter := ratelimit.New(ratelimit.NewMemoryLimiter(), log,
		ratelimit.WithDisabled(cfg.RateLimitDisabled))

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Validator:      validator,
		Investigations: invhandler.New(investigations, log),
		Reviews:        reviewhandler.New(reviews, registry, jwtService, validator, log),
		Analysis:       coordhandler.New(analysis, pool, log),
		RateLimit:      limiter,
		HealthChecks:   health,
	})

	srv := httpserver.New(cfg.Addr, router)
	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting fraudlens server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := analysis.Shutdown(shutdownCtx); err != nil {
		log.Warn("some agents failed to shut down", "error", err)
	}

	// The audit worker drains buffered events once the signal context ends.
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("audit worker did not drain in time")
	}
	return nil
}

// buildAuditSinks assembles the audit fan-out: always a store, plus Kafka
// when brokers are configured.
func buildAuditSinks(ctx context.Context, cfg config.Config, log *slog.Logger) ([]audit.Sink, error) {
	var store audit.Store
	if cfg.Postgres.URL != "" {
		db, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("open audit database: %w", err)
		}
		if _, err := db.ExecContext(ctx, audit.Schema); err != nil {
			return nil, fmt.Errorf("apply audit schema: %w", err)
		}
		store = audit.NewPostgresStore(db)
	} else {
		store = audit.NewInMemoryStore()
	}

	sinks := []audit.Sink{store}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return nil, fmt.Errorf("connect kafka: %w", err)
		}
		sinks = append(sinks, kafka)
		log.Info("audit events published to kafka", "topic", cfg.Kafka.AuditTopic)
	}
	return sinks, nil
}

// bootstrapReviewer registers an initial reviewer when requested, printing
// the generated API key exactly once so operators can seed access.
func bootstrapReviewer(ctx context.Context, registry *reviewservice.Registry, log *slog.Logger) {
	reviewerID := os.Getenv("FRAUDLENS_BOOTSTRAP_REVIEWER")
	if reviewerID == "" {
		return
	}
	key, err := registry.Register(ctx, reviewerID, "analyst")
	if err != nil {
		log.Error("could not bootstrap reviewer", "reviewer_id", reviewerID, "error", err)
		return
	}
	log.Info("bootstrap reviewer registered, store this key now",
		"reviewer_id", reviewerID,
		"api_key", key,
	)
}
