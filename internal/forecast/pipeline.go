// Package forecast runs the prediction enrichment pipeline: it completes partial
// requests with outlet attributes, orders them to the model schema, predicts and
// maps the result back to the sales scale.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"sales-forecast/internal/common/config"
	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/common/metrics"
	"sales-forecast/internal/common/observability"
	"sales-forecast/internal/forecast/model"
	"sales-forecast/internal/forecast/outlets"
	"sales-forecast/internal/models"
)

const (
	ModeSingle = "single"
	ModeBatch  = "batch"
)

// Pipeline holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	outlets     *outlets.Table
	models      model.Provider
	logger      logger.Logger
	obs         *observability.Observability
	policy      string
	rejectExtra bool
}

type Option func(*Pipeline)

// WithBatchConfig sets the row failure policy and the extra column check.
func WithBatchConfig(cfg config.BatchConfig) Option {
	return func(p *Pipeline) {
		if cfg.FailurePolicy != "" {
			p.policy = cfg.FailurePolicy
		}
		p.rejectExtra = cfg.RejectExtraColumns
	}
}

func WithObservability(obs *observability.Observability) Option {
	return func(p *Pipeline) { p.obs = obs }
}

func NewPipeline(table *outlets.Table, provider model.Provider, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		outlets: table,
		models:  provider,
		logger:  log.WithComponent("pipeline"),
		policy:  config.FailurePolicyStrict,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Outlets() *outlets.Table {
	return p.outlets
}

func (p *Pipeline) Models() model.Provider {
	return p.models
}

func (p *Pipeline) FailurePolicy() string {
	return p.policy
}

// PredictSingle enriches req with its outlet profile and returns the forecast on
// the original sales scale, unrounded.
func (p *Pipeline) PredictSingle(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	start := time.Now()
	ctx, span := p.obs.StartSpan(ctx, "forecast.predict_single",
		attribute.String("outlet.id", req.OutletIdentifier),
		attribute.String("item.id", req.ItemIdentifier),
	)
	defer span.End()

	result, err := p.predictSingle(ctx, req)
	p.observe(ctx, ModeSingle, start, 1, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Warn("single prediction failed", map[string]interface{}{
			"outletId": req.OutletIdentifier,
			"itemId":   req.ItemIdentifier,
			"error":    err,
		})
		return nil, err
	}

	p.logger.Debug("single prediction", map[string]interface{}{
		"outletId": req.OutletIdentifier,
		"itemId":   req.ItemIdentifier,
		"sales":    result.ItemOutletSales,
	})
	return result, nil
}

func (p *Pipeline) predictSingle(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	record, err := p.enrich(req)
	if err != nil {
		return nil, err
	}

	out, err := p.predictFrame(ctx, models.FrameFromRecords([]models.EnrichedRecord{record}))
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, apperrors.NewPredictionFailedError(fmt.Sprintf("model returned %d values for 1 row", len(out)))
	}
	return &models.PredictionResult{ItemOutletSales: out[0], Record: record}, nil
}

func (p *Pipeline) enrich(req models.PredictionRequest) (models.EnrichedRecord, error) {
	if req.OutletIdentifier == "" {
		return models.EnrichedRecord{}, apperrors.NewMissingFieldError(models.ColOutletIdentifier)
	}
	profile, err := p.outlets.Lookup(req.OutletIdentifier)
	if err != nil {
		if errors.Is(err, outlets.ErrNotFound) {
			return models.EnrichedRecord{}, apperrors.NewUnknownOutletError(req.OutletIdentifier)
		}
		return models.EnrichedRecord{}, err
	}
	return models.Enrich(req, profile), nil
}

func (p *Pipeline) predictFrame(ctx context.Context, frame *models.Frame) ([]float64, error) {
	m, err := p.models.Model(ctx)
	if err != nil {
		return nil, err
	}
	return p.predictWith(ctx, m, frame)
}

// predictWith orders frame to the model schema, predicts and squares every raw
// output. The model is trained on the square root of sales.
func (p *Pipeline) predictWith(ctx context.Context, m model.Model, frame *models.Frame) ([]float64, error) {
	ordered, missing := frame.Select(m.FeatureNames())
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaMismatchError(missing, nil)
	}

	raw, err := m.Predict(ctx, ordered)
	if err != nil {
		return nil, err
	}
	if len(raw) != frame.Rows() {
		return nil, apperrors.NewPredictionFailedError(
			fmt.Sprintf("model returned %d values for %d rows", len(raw), frame.Rows()))
	}

	out := make([]float64, len(raw))
	for i, r := range raw {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, apperrors.NewPredictionFailedError(fmt.Sprintf("non-finite model output at row %d", i+1))
		}
		out[i] = r * r
	}
	return out, nil
}

func (p *Pipeline) observe(ctx context.Context, mode string, start time.Time, rows int, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	elapsed := time.Since(start)
	metrics.PredictionsTotal.WithLabelValues(mode, status).Inc()
	metrics.PredictionDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	p.obs.RecordPrediction(ctx, mode, status, rows)
	p.obs.RecordPredictionDuration(ctx, mode, elapsed)
}
