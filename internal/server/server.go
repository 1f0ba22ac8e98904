// Package server exposes the HTTP surface: the SSE chat endpoint, the
// direct image generation endpoint, and the gallery listing.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amorahq/amora/internal/chat"
	"github.com/amorahq/amora/internal/config"
	"github.com/amorahq/amora/internal/database"
	"github.com/amorahq/amora/internal/logger"
)

// ChatRunner drives one chat request's event stream.
type ChatRunner interface {
	Run(ctx context.Context, req chat.Request, sink chat.Sink) error
}

// ImageService serves direct image generation requests by model label.
type ImageService interface {
	GenerateForModel(ctx context.Context, label, prompt, baseImage, aspectRatio string) (string, error)
}

// Deps are the collaborators the HTTP handlers need.
type Deps struct {
	Logger   *slog.Logger
	Chat     ChatRunner
	Images   ImageService
	Store    database.Store
	Recorder chat.Recorder
}

// Server is the HTTP server for the service.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds the gin engine, registers routes, and wraps it in a Server
// listening on the configured address.
func New(cfg config.ServerConfig, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.Middleware(deps.Logger))
	engine.Use(corsMiddleware())

	h := &handlers{
		logger:   deps.Logger,
		chat:     deps.Chat,
		images:   deps.Images,
		store:    deps.Store,
		recorder: deps.Recorder,
	}

	engine.GET("/", h.handleHealth)
	engine.POST("/chat/:provider", h.handleChat)
	engine.POST("/images/:provider", h.handleImages)
	engine.GET("/images/recent", h.handleRecentImages)

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.Listen,
			Handler: engine,
		},
		logger: deps.Logger,
	}
}

// Start serves until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// corsMiddleware mirrors the mobile client's expectations: any origin,
// GET and POST, any headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "*")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
