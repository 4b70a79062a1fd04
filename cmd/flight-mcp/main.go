// cmd/flight-mcp/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tripwise/internal/common/config"
	"tripwise/internal/common/database"
	"tripwise/internal/common/logger"
	"tripwise/internal/flightdata"
	"tripwise/internal/mcp"
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

	zapLog.Info("Starting flight MCP server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	ctx := context.Background()

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

	if err := flightdata.Migrate(ctx, pg.GetDB()); err != nil {
		zapLog.Fatal("flight schema migration failed", zap.Error(err))
	}

	repo := flightdata.NewRepository(pg.GetDB())
	server := mcp.NewServer(repo, cfg.App.Version, &mcpLoggerAdapter{log})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	server.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	go func() {
		if err := e.Start(cfg.MCP.ServerAddress); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("mcp server failed", zap.Error(err))
		}
	}()

	zapLog.Info("flight MCP server started", zap.String("address", cfg.MCP.ServerAddress))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("shutdown failed", zap.Error(err))
	}
}

type mcpLoggerAdapter struct {
	logger.Logger
}

func (a *mcpLoggerAdapter) With(fields map[string]interface{}) mcp.Logger {
	return &mcpLoggerAdapter{a.Logger.With(fields)}
}
