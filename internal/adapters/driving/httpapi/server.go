// Package httpapi exposes the assistant over HTTP with gin. Upstream
// failures surface as degraded 200 responses, never 5xx: the chat
// widget always gets a renderable answer.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brightpath-labs/mentor-cli/internal/core/domain"
	"github.com/brightpath-labs/mentor-cli/internal/core/ports/driving"
	"github.com/brightpath-labs/mentor-cli/internal/logger"
)

// Server serves the chat API over HTTP.
type Server struct {
	assistant driving.Assistant
	router    *gin.Engine
	server    *http.Server
}

// chatRequest is the POST /api/chat body.
type chatRequest struct {
	Question string            `json:"question"`
	History  []domain.ChatTurn `json:"history"`
}

// errorResponse is the body of a 4xx reply.
type errorResponse struct {
	Error string `json:"error"`
}

// New creates a server around the given assistant.
func New(assistant driving.Assistant) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		assistant: assistant,
		router:    gin.New(),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(requestLogMiddleware())

	s.router.GET("/healthz", s.handleHealth)
	s.router.POST("/api/chat", s.handleChat)

	return s
}

// Handler returns the underlying HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("HTTP API listening on %s", addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleChat answers one question. Pipeline degradation is already
// folded into the Answer by the service, so the only client-visible
// error is invalid input.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	answer, err := s.assistant.Answer(c.Request.Context(), req.Question, req.History)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "question must not be empty"})
			return
		}
		// The assistant folds upstream failures into degraded answers;
		// anything else is unexpected but still must not break the widget.
		logger.Warn("Unexpected answer error: %v", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, answer)
}

// requestIDMiddleware tags each request with an ID, honouring one the
// caller already set.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("requestID", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// requestLogMiddleware logs one line per request through the app logger.
func requestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s -> %d (%s) [%s]",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(),
			time.Since(start), c.GetString("requestID"))
	}
}
