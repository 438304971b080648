// Package server exposes the calendar agent over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pearcec/calagent/internal/agent"
)

// ServiceName is reported by /health and the agent card.
const ServiceName = "google-calendar-agent"

const shutdownTimeout = 10 * time.Second

// Config holds server settings.
type Config struct {
	Listen      string
	CORSOrigins []string
	// PublicURL is advertised in the agent card. Defaults to http://<Listen>.
	PublicURL string
	Version   string
}

// Server is the HTTP front end of an agent.Service.
type Server struct {
	cfg    Config
	svc    *agent.Service
	log    *zap.Logger
	engine *gin.Engine
}

// New builds the router. Routes are registered immediately; call Run to serve.
func New(cfg Config, svc *agent.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://" + cfg.Listen
	}

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		log:    logger.With(zap.String("component", "server")),
		engine: gin.New(),
	}

	s.engine.Use(gin.Recovery(), requestID(), accessLog(s.log), cors.New(corsConfig(cfg.CORSOrigins)))
	s.routes()
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/events", s.handleEvents)
	s.engine.GET("/today", s.handleToday)
	s.engine.POST("/freebusy", s.handleFreeBusy)
	s.engine.POST("/ai-query", s.handleAIQuery)
	s.engine.POST("/ai-analytics", s.handleAIAnalytics)
	s.engine.GET("/.well-known/agent.json", s.handleAgentCard)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.cfg.Listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", requestIDHeader)
	cfg.ExposeHeaders = []string{requestIDHeader}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
