package model

import (
	"context"
	"sync"
	"time"

	"sales-forecast/internal/common/config"
	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/common/metrics"
)

const (
	ModeReload = "reload"
	ModeCached = "cached"
)

// Provider hands the pipeline a model for each call.
type Provider interface {
	Model(ctx context.Context) (Model, error)
	Mode() string
}

// Loader reads an artifact from disk.
type Loader func(path string) (Model, error)

func fileLoader(path string) (Model, error) {
	return LoadFile(path)
}

type ProviderOption func(*providerOptions)

type providerOptions struct {
	loader Loader
}

// WithLoader replaces the file loader.
func WithLoader(l Loader) ProviderOption {
	return func(o *providerOptions) { o.loader = l }
}

func buildOptions(opts []ProviderOption) providerOptions {
	o := providerOptions{loader: fileLoader}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewProvider returns a CachingProvider when cfg.Cache is set and a
// ReloadingProvider otherwise.
func NewProvider(cfg config.ModelConfig, log logger.Logger, opts ...ProviderOption) Provider {
	if cfg.Cache {
		return NewCachingProvider(cfg.Path, log, opts...)
	}
	return NewReloadingProvider(cfg.Path, log, opts...)
}

// ReloadingProvider reads the artifact from disk on every call.
type ReloadingProvider struct {
	path   string
	load   Loader
	logger logger.Logger
}

func NewReloadingProvider(path string, log logger.Logger, opts ...ProviderOption) *ReloadingProvider {
	o := buildOptions(opts)
	return &ReloadingProvider{path: path, load: o.loader, logger: log}
}

func (p *ReloadingProvider) Model(ctx context.Context) (Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return timedLoad(p.load, p.path, ModeReload, p.logger)
}

func (p *ReloadingProvider) Mode() string {
	return ModeReload
}

// CachingProvider loads the artifact on the first successful call and keeps it.
// A failed load is not cached; the next call tries again.
type CachingProvider struct {
	path   string
	load   Loader
	logger logger.Logger

	mu    sync.Mutex
	model Model
}

func NewCachingProvider(path string, log logger.Logger, opts ...ProviderOption) *CachingProvider {
	o := buildOptions(opts)
	return &CachingProvider{path: path, load: o.loader, logger: log}
}

func (p *CachingProvider) Model(ctx context.Context) (Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.model != nil {
		return p.model, nil
	}
	m, err := timedLoad(p.load, p.path, ModeCached, p.logger)
	if err != nil {
		return nil, err
	}
	p.model = m
	return m, nil
}

func (p *CachingProvider) Mode() string {
	return ModeCached
}

func timedLoad(load Loader, path, mode string, log logger.Logger) (Model, error) {
	start := time.Now()
	m, err := load(path)
	metrics.ModelLoadDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ModelLoads.WithLabelValues(mode, "failed").Inc()
		log.Error("model load failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return nil, err
	}

	metrics.ModelLoads.WithLabelValues(mode, "success").Inc()
	log.Debug("model loaded", map[string]interface{}{
		"path":     path,
		"features": len(m.FeatureNames()),
		"duration": time.Since(start).String(),
	})
	return m, nil
}
