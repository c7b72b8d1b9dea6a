// Package web exposes the signing pipeline and the audit query surface
// over HTTP.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/a3tai/pdf-sign-server/internal/audit"
	"github.com/a3tai/pdf-sign-server/internal/sign"
	"github.com/a3tai/pdf-sign-server/internal/storage"
)

// recentAuditLimit bounds the list-recent audit query.
const recentAuditLimit = 50

// Server wires the HTTP surface to the pipeline and its stores.
type Server struct {
	engine    *gin.Engine
	pipeline  *sign.Pipeline
	audits    audit.Store
	artifacts *storage.Store
	logger    *zap.Logger

	httpServer *http.Server
}

// NewServer builds the router. publicDir is served statically under
// /signed for direct retrieval of published artifacts.
func NewServer(pipeline *sign.Pipeline, audits audit.Store, artifacts *storage.Store,
	publicDir string, logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		pipeline:  pipeline,
		audits:    audits,
		artifacts: artifacts,
		logger:    logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))

	api := engine.Group("/api")
	{
		api.POST("/sign", s.handleSign)
		api.GET("/documents/:name/download", s.handleDownload)
		api.GET("/audit", s.handleRecentAudits)
		api.GET("/audit/:id", s.handleAuditByID)
		api.GET("/audit/hash/:hash", s.handleAuditsByHash)
	}

	engine.Static("/signed", publicDir)

	s.engine = engine
	return s
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until the context is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
