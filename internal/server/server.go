// Package server exposes the forecast pipeline, batch service and item catalog over
// an HTTP JSON API.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sales-forecast/internal/batch"
	"sales-forecast/internal/catalog"
	"sales-forecast/internal/charts"
	"sales-forecast/internal/common/config"
	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/forecast"
)

// ReadinessCheck is probed by GET /ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Dependencies struct {
	Pipeline  *forecast.Pipeline
	Batch     *batch.Service
	Catalog   *catalog.Catalog
	Charts    *charts.Builder
	Readiness []ReadinessCheck
}

type Server struct {
	config config.ServerConfig
	deps   Dependencies
	logger logger.Logger
	engine *gin.Engine
	http   *http.Server
}

type route struct {
	method  string
	path    string
	handler gin.HandlerFunc
}

func New(cfg config.ServerConfig, deps Dependencies, log logger.Logger) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	s := &Server{
		config: cfg,
		deps:   deps,
		logger: log.WithComponent("http"),
		engine: gin.New(),
	}
	s.engine.MaxMultipartMemory = cfg.MaxUploadBytes
	s.engine.Use(gin.Recovery(), s.observe())

	for _, r := range s.routes() {
		s.engine.Handle(r.method, r.path, r.handler)
	}

	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.engine,
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
	}
	return s
}

func (s *Server) routes() []route {
	return []route{
		{http.MethodGet, "/health", s.health},
		{http.MethodGet, "/ready", s.ready},
		{http.MethodGet, "/metrics", gin.WrapH(promhttp.Handler())},

		{http.MethodGet, "/api/v1/options", s.options},
		{http.MethodGet, "/api/v1/outlets", s.listOutlets},
		{http.MethodGet, "/api/v1/outlets/:id", s.getOutlet},
		{http.MethodGet, "/api/v1/items", s.searchItems},
		{http.MethodGet, "/api/v1/model", s.modelInfo},

		{http.MethodPost, "/api/v1/predictions", s.predictSingle},
		{http.MethodPost, "/api/v1/predictions/batch", s.predictBatch},
		{http.MethodGet, "/api/v1/predictions/batch/:id/download", s.downloadBatch},
		{http.MethodPost, "/api/v1/uploads/preview", s.previewUpload},
	}
}

// Handler returns the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.config.Address})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down", nil)
	return s.http.Shutdown(ctx)
}
