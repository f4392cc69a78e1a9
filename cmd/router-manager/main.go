// cmd/router-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ticket-routing-workers/internal/common/aws"
	"ticket-routing-workers/internal/common/camunda"
	"ticket-routing-workers/internal/common/config"
	"ticket-routing-workers/internal/common/database"
	"ticket-routing-workers/internal/common/logger"
	"ticket-routing-workers/internal/common/observability"
	"ticket-routing-workers/internal/embedding"
	"ticket-routing-workers/internal/notify"
	"ticket-routing-workers/internal/routing"
	"ticket-routing-workers/internal/store"
	"ticket-routing-workers/internal/vector"
	"ticket-routing-workers/pkg/registry"

	rt "ticket-routing-workers/internal/workers/routing/route-ticket"
	sw "ticket-routing-workers/internal/workers/routing/sweep-tickets"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting router manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("router-manager")
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init Zeebe Client (connection retry lives in the camunda package) ---
	zeebeClient, err := camunda.NewClient(camunda.ClientConfigFrom(cfg.Camunda), zapLog)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Stores ---
	ticketStore := store.NewTicketStore(pg)
	teamStore := store.NewTeamStore(pg)
	agentStore := store.NewAgentStore(pg)
	contactStore := store.NewContactStore(pg)

	// --- Embedding provider + ticket context builder ---
	provider, err := embedding.NewHTTPProvider(cfg.Embeddings)
	if err != nil {
		zapLog.Fatal("embedding provider init failed", zap.Error(err))
	}
	builder := embedding.NewContextBuilder(provider, config.GetDuration(cfg.Embeddings.Timeout), log)

	// --- Vector index + similar-ticket retriever ---
	index, err := vector.NewElasticsearchIndex(esClient, cfg.Database.Elasticsearch.Index, cfg.Embeddings.Dimension)
	if err != nil {
		zapLog.Fatal("vector index init failed", zap.Error(err))
	}
	retriever := vector.NewSimilarTicketRetriever(index, cfg.Routing.SimilarTopK, log)

	// --- Notification dispatcher ---
	var emailSender notify.EmailSender
	var smsSender notify.SMSSender
	if cfg.Notifications.Enabled {
		if cfg.Notifications.Email.Enabled {
			sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("ses client init failed", zap.Error(err))
			}
			emailSender = sesClient
		}
		if cfg.Notifications.SMS.Enabled {
			snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("sns client init failed", zap.Error(err))
			}
			smsSender = snsClient
		}
	}
	dispatcher := notify.NewDispatcher(redis, contactStore, emailSender, smsSender, cfg.Notifications, log)
	if cfg.Notifications.Enabled {
		go dispatcher.Start(ctx)
	}

	// --- Routing pipeline ---
	generator := routing.NewCandidateGenerator(teamStore, agentStore, cfg.Routing.IncludeUnmatchedDomainAgents)
	scorer := routing.NewExpertiseScorer(cfg.Routing.Weights)
	workload := routing.NewWorkloadAnalyzer(ticketStore, redis, cfg.Routing, log)
	engine := routing.NewDecisionEngine(cfg.Routing)
	recorder := routing.NewDecisionRecorder(pg, log)

	router := routing.NewTicketRouter(
		ticketStore,
		builder,
		retriever,
		generator,
		scorer,
		workload,
		engine,
		recorder,
		dispatcher,
		index,
		log,
	)

	sweeper := routing.NewSweeper(ticketStore, router, cfg.Sweep.Concurrency, cfg.Sweep.BatchSize, log)

	// --- Activity registry (optional schema validation) ---
	var routeActivity *registry.Activity
	if cfg.RegistryPath != "" {
		reg, err := registry.LoadRegistry(cfg.RegistryPath)
		if err != nil {
			zapLog.Fatal("activity registry load failed", zap.Error(err))
		}
		routeActivity, err = reg.FindByTaskType(rt.TaskType)
		if err != nil {
			zapLog.Warn("no registry entry for task type", zap.String("taskType", rt.TaskType))
		}
	}

	zapLog.Info("Routing pipeline initialized")

	// --- Register Workers ---
	var workers []*camunda.Worker

	if config.IsWorkerEnabled(cfg, rt.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, rt.TaskType)
		handler := rt.NewHandler(
			&rt.Config{
				Timeout: config.GetDuration(wcfg.Timeout),
			},
			router, routeActivity, log,
		)
		workers = append(workers, camunda.NewWorker(zeebeClient, rt.TaskType, wcfg, handler.Handle, zapLog))
	}

	if config.IsWorkerEnabled(cfg, sw.TaskType) {
		wcfg := config.GetWorkerConfig(cfg, sw.TaskType)
		handler := sw.NewHandler(
			&sw.Config{
				Timeout: config.GetDuration(wcfg.Timeout),
			},
			sweeper, log,
		)
		workers = append(workers, camunda.NewWorker(zeebeClient, sw.TaskType, wcfg, handler.Handle, zapLog))
	}

	zapLog.Info("All workers registered successfully")

	// --- Periodic Sweep ---
	if cfg.Sweep.Enabled {
		go func() {
			interval := config.GetDuration(cfg.Sweep.Interval)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			zapLog.Info("periodic sweep enabled", zap.Duration("interval", interval))
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if _, err := sweeper.Run(ctx); err != nil && ctx.Err() == nil {
						zapLog.Error("periodic sweep failed", zap.Error(err))
					}
				}
			}
		}()
	}

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := pg.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			if err := zeebeClient.HealthCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}

	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Router manager stopped gracefully")
}
