// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tripwise/internal/agents/booking"
	"tripwise/internal/agents/complaint"
	"tripwise/internal/agents/information"
	"tripwise/internal/agents/router"
	"tripwise/internal/common/aws"
	"tripwise/internal/common/config"
	"tripwise/internal/common/database"
	"tripwise/internal/common/logger"
	"tripwise/internal/common/observability"
	"tripwise/internal/flightdata"
	"tripwise/internal/knowledge"
	"tripwise/internal/llm"
	"tripwise/internal/mcp"
	"tripwise/internal/orchestrator"
	"tripwise/internal/session"
	"tripwise/internal/transport/httpapi"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting chat server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	tracing, err := observability.NewTracing(cfg.App.Name, os.Getenv("JAEGER_ENDPOINT"))
	if err != nil {
		zapLog.Fatal("tracing init failed", zap.Error(err))
	}
	defer tracing.Shutdown()

	ctx := context.Background()

	// --- Init Postgres with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Postgres initialization")
	if err != nil {
		zapLog.Fatal("Postgres unavailable", zap.Error(err))
	}
	defer pg.Close()

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 10, 2*time.Second, zapLog, "Elasticsearch initialization")
	if err != nil {
		zapLog.Fatal("Elasticsearch unavailable", zap.Error(err))
	}

	// --- Init SQLite session store ---
	sqliteStore, err := session.NewSQLiteStore(cfg.Database.SQLite.Path)
	if err != nil {
		zapLog.Fatal("SQLite session store init failed", zap.Error(err))
	}
	defer sqliteStore.Close()

	// --- Redis cache is optional: run uncached when it is unreachable ---
	var store session.Store = sqliteStore
	redisClient, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Warn("Redis unavailable, running without session cache", zap.Error(err))
	} else {
		defer redisClient.Close()
		store = session.NewCachedStore(
			sqliteStore,
			redisClient.GetClient(),
			config.GetDuration(cfg.Session.CacheTTL*1000),
			&sessionLoggerAdapter{log},
		)
	}

	// --- Knowledge store ---
	knowledgeStore := knowledge.NewStore(
		esClient.Client,
		cfg.Knowledge.Index,
		cfg.Knowledge.EmbeddingDims,
		&knowledgeLoggerAdapter{log},
	)
	if err := knowledgeStore.EnsureIndex(ctx); err != nil {
		zapLog.Fatal("knowledge index init failed", zap.Error(err))
	}

	// --- Clients ---
	llmClient := llm.NewClient(llm.LoadConfig(cfg), &llmLoggerAdapter{log})

	mcpClient := mcp.NewClient(&mcp.ClientConfig{
		URL:        cfg.MCP.URL,
		Timeout:    config.GetDuration(cfg.MCP.Timeout),
		MaxRetries: cfg.MCP.MaxRetries,
	}, &mcpLoggerAdapter{log})

	if _, err := mcpClient.Initialize(ctx); err != nil {
		zapLog.Warn("MCP server handshake failed, booking tools degraded", zap.Error(err))
	}

	repo := flightdata.NewRepository(pg.GetDB())

	// --- Complaint notifications: AWS clients are optional ---
	complaintConfig := complaint.LoadConfig(cfg)
	var notifier *complaint.Notifier
	if complaintConfig.EmailEnabled || complaintConfig.SMSEnabled {
		var email complaint.EmailSender
		var sms complaint.SMSPublisher
		if sesClient, err := aws.NewSESClient(ctx, cfg.Support.AWS.Region); err != nil {
			zapLog.Warn("SES client init failed, email notifications disabled", zap.Error(err))
		} else {
			email = sesClient
		}
		if snsClient, err := aws.NewSNSClient(ctx, cfg.Support.AWS.Region); err != nil {
			zapLog.Warn("SNS client init failed, SMS notifications disabled", zap.Error(err))
		} else {
			sms = snsClient
		}
		notifier = complaint.NewNotifier(complaintConfig, email, sms, &complaintLoggerAdapter{log})
	}

	// --- Agents ---
	routerAgent := router.NewHandler(router.LoadConfig(cfg), llmClient, &routerLoggerAdapter{log})
	bookingAgent := booking.NewHandler(booking.LoadConfig(cfg), llmClient, mcpClient, repo, &bookingLoggerAdapter{log})
	complaintAgent := complaint.NewHandler(complaintConfig, llmClient, repo, notifier, &complaintLoggerAdapter{log})
	informationAgent := information.NewHandler(information.LoadConfig(cfg), llmClient, knowledgeStore, &informationLoggerAdapter{log})

	orch := orchestrator.New(cfg, store, routerAgent, bookingAgent, complaintAgent, informationAgent,
		obs, tracing, &orchestratorLoggerAdapter{log})

	// --- Background session expiry ---
	stopExpiry := make(chan struct{})
	go expireLoop(store, config.GetDuration(cfg.Session.TTL*1000), zapLog, stopExpiry)

	// --- HTTP server ---
	server := httpapi.NewServer(cfg, orch, &httpLoggerAdapter{log})
	go func() {
		if err := server.Start(); err != nil {
			zapLog.Info("http server stopped", zap.Error(err))
		}
	}()

	zapLog.Info("chat server started", zap.String("address", cfg.Server.Address))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("shutting down...")
	close(stopExpiry)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}
	zapLog.Info("shutdown complete")
}

// expireLoop deactivates sessions idle longer than the TTL.
func expireLoop(store session.Store, ttl time.Duration, log *zap.Logger, stop <-chan struct{}) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			expired, err := store.Expire(context.Background(), ttl)
			if err != nil {
				log.Warn("session expiry sweep failed", zap.Error(err))
				continue
			}
			if expired > 0 {
				log.Info("sessions expired", zap.Int64("count", expired))
			}
		case <-stop:
			return
		}
	}
}

// Logger adapters for packages that declare their own Logger interfaces
type routerLoggerAdapter struct {
	logger.Logger
}

func (a *routerLoggerAdapter) With(fields map[string]interface{}) router.Logger {
	return &routerLoggerAdapter{a.Logger.With(fields)}
}

type bookingLoggerAdapter struct {
	logger.Logger
}

func (a *bookingLoggerAdapter) With(fields map[string]interface{}) booking.Logger {
	return &bookingLoggerAdapter{a.Logger.With(fields)}
}

type complaintLoggerAdapter struct {
	logger.Logger
}

func (a *complaintLoggerAdapter) With(fields map[string]interface{}) complaint.Logger {
	return &complaintLoggerAdapter{a.Logger.With(fields)}
}

type informationLoggerAdapter struct {
	logger.Logger
}

func (a *informationLoggerAdapter) With(fields map[string]interface{}) information.Logger {
	return &informationLoggerAdapter{a.Logger.With(fields)}
}

type orchestratorLoggerAdapter struct {
	logger.Logger
}

func (a *orchestratorLoggerAdapter) With(fields map[string]interface{}) orchestrator.Logger {
	return &orchestratorLoggerAdapter{a.Logger.With(fields)}
}

type httpLoggerAdapter struct {
	logger.Logger
}

func (a *httpLoggerAdapter) With(fields map[string]interface{}) httpapi.Logger {
	return &httpLoggerAdapter{a.Logger.With(fields)}
}

type llmLoggerAdapter struct {
	logger.Logger
}

func (a *llmLoggerAdapter) With(fields map[string]interface{}) llm.Logger {
	return &llmLoggerAdapter{a.Logger.With(fields)}
}

type mcpLoggerAdapter struct {
	logger.Logger
}

func (a *mcpLoggerAdapter) With(fields map[string]interface{}) mcp.Logger {
	return &mcpLoggerAdapter{a.Logger.With(fields)}
}

type sessionLoggerAdapter struct {
	logger.Logger
}

func (a *sessionLoggerAdapter) With(fields map[string]interface{}) session.Logger {
	return &sessionLoggerAdapter{a.Logger.With(fields)}
}

type knowledgeLoggerAdapter struct {
	logger.Logger
}

func (a *knowledgeLoggerAdapter) With(fields map[string]interface{}) knowledge.Logger {
	return &knowledgeLoggerAdapter{a.Logger.With(fields)}
}
