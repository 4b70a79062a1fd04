// internal/transport/httpapi/server.go
package httpapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tripwise/internal/common/config"
	"tripwise/internal/models"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// ChatService is the orchestrator surface the transport needs.
type ChatService interface {
	HandleTurn(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error)
	Ask(ctx context.Context, question string) (*models.AskResponse, error)
}

// Server is the chat HTTP front end.
type Server struct {
	config *config.Config
	chat   ChatService
	logger Logger
	echo   *echo.Echo
}

func NewServer(cfg *config.Config, chat ChatService, log Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		config: cfg,
		chat:   chat,
		logger: log.With(map[string]interface{}{
			"component": "httpapi",
		}),
		echo: e,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.POST("/chat", s.handleChat)
	s.echo.POST("/ask", s.handleAsk)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start() error {
	s.logger.Info("http server starting", map[string]interface{}{
		"address": s.config.Server.Address,
	})
	return s.echo.Start(s.config.Server.Address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.config.App.Name,
		"version": s.config.App.Version,
	})
}
