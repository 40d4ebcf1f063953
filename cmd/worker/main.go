package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"advisorhub.app/assistant/common/id"
	"advisorhub.app/assistant/common/llm"
	"advisorhub.app/assistant/common/logger"
	"advisorhub.app/assistant/common/otel"
	"advisorhub.app/assistant/core/config"
	"advisorhub.app/assistant/core/db"
	"advisorhub.app/assistant/internal/assistant"
	"advisorhub.app/assistant/internal/provider"
	"advisorhub.app/assistant/internal/queue"
	"advisorhub.app/assistant/internal/retrieval"
	"advisorhub.app/assistant/internal/store"
	"advisorhub.app/assistant/internal/worker"
	"advisorhub.app/assistant/internal/workflow"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "assistant worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Events.RedisGroup,
		"consumer_name", cfg.Events.RedisConsumer)

	// Different node id than the server so ids never collide.
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Events.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Events.RedisStream)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Events.RedisStream,
		Group:        cfg.Events.RedisGroup,
		Consumer:     cfg.Events.RedisConsumer,
		DLQStream:    cfg.Events.RedisDLQStream,
		BatchSize:    1, // One event at a time, turns are slow
		Block:        5 * time.Second,
		MaxAttempts:  3,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	chatClient, err := llm.NewClient(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm client", "error", err)
		os.Exit(1)
	}

	stores := store.NewStores(database.Pool())
	tasks := workflow.NewService(stores.Tasks())
	searcher := retrieval.NewSearcher(database.Pool(), retrieval.NewHTTPEmbedder(cfg.Embedder))

	executor := assistant.NewExecutor(assistant.ExecutorConfig{
		Users:        stores.Users(),
		Emails:       stores.Emails(),
		Contacts:     stores.Contacts(),
		Notes:        stores.Notes(),
		Calendar:     stores.Calendar(),
		Instructions: stores.Instructions(),
		Workflow:     tasks,
		Searcher:     searcher,
		Mail:         provider.NewGmailClient(cfg.Google, stores.Credentials()),
		GCal:         provider.NewCalendarClient(cfg.Google, stores.Credentials()),
		CRM:          provider.NewHubSpotClient(cfg.HubSpot, stores.Credentials()),
	})
	contexts := assistant.NewContextBuilder(
		stores.Emails(), stores.Calendar(), stores.Contacts(),
		stores.Instructions(), tasks, searcher)
	orchestrator := assistant.NewOrchestrator(
		chatClient, executor, contexts,
		stores.Users(), stores.Conversations(), stores.Messages(), stores.Instructions(),
		cfg.LLM.MaxTokens)

	w := worker.New(consumer, orchestrator, worker.Config{
		MaxAttempts: 3,
	})

	// The reclaimer re-runs stale messages through the same ack/requeue path
	// as the main loop.
	reclaimer := worker.NewRedisReclaimer(redisClient, worker.RedisReclaimerConfig{
		Stream:    cfg.Events.RedisStream,
		Group:     cfg.Events.RedisGroup,
		Consumer:  cfg.Events.RedisConsumer + "-reclaimer",
		MinIdle:   5 * time.Minute,
		Interval:  1 * time.Minute,
		BatchSize: 10,
	}, consumer, func(ctx context.Context, msg queue.Message) error {
		w.HandleMessage(ctx, msg)
		return nil
	})

	errCh := make(chan error, 2)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go func() {
		reclaimer.Run(ctx)
		errCh <- nil
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Reclaimer first (quick), then the worker which may be mid-turn.
	reclaimer.Stop()
	w.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "worker error during shutdown", "error", err)
		}
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}
