package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"advisorhub.app/assistant/common/id"
	"advisorhub.app/assistant/common/llm"
	"advisorhub.app/assistant/common/logger"
	"advisorhub.app/assistant/common/otel"
	"advisorhub.app/assistant/core/config"
	"advisorhub.app/assistant/core/db"
	"advisorhub.app/assistant/internal/assistant"
	"advisorhub.app/assistant/internal/http/middleware"
	httprouter "advisorhub.app/assistant/internal/http/router"
	"advisorhub.app/assistant/internal/provider"
	"advisorhub.app/assistant/internal/queue"
	"advisorhub.app/assistant/internal/retrieval"
	"advisorhub.app/assistant/internal/store"
	"advisorhub.app/assistant/internal/workflow"
)

// emptyConversationTTL is how long a conversation with no messages survives
// before housekeeping removes it.
const emptyConversationTTL = time.Hour

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "assistant server starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
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
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Events.RedisStream)

	eventProducer := queue.NewRedisProducer(redisClient, cfg.Events.RedisStream, slog.Default())
	defer eventProducer.Close()

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

	go runHousekeeping(ctx, stores.Conversations())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, httprouter.Deps{
		Chat:          orchestrator,
		Tasks:         tasks,
		Instructions:  stores.Instructions(),
		Conversations: stores.Conversations(),
		Messages:      stores.Messages(),
		Producer:      eventProducer,
	})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, deps httprouter.Deps) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span, Recovery catches panics, Logger logs
	// with trace context.
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, deps, httprouter.RouterConfig{
		TraceHeader: cfg.Events.TraceHeader,
	})

	return router
}

// runHousekeeping periodically drops conversations that never got a message.
func runHousekeeping(ctx context.Context, conversations store.ConversationStore) {
	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := conversations.DeleteEmptyOlderThan(ctx, time.Now().Add(-emptyConversationTTL))
			if err != nil {
				slog.ErrorContext(ctx, "conversation cleanup failed", "error", err)
				continue
			}
			if deleted > 0 {
				slog.InfoContext(ctx, "cleaned up empty conversations", "deleted", deleted)
			}
		}
	}
}
