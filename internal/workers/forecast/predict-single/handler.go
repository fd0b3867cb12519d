package predictsingle

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/common/metrics"
	"sales-forecast/internal/common/observability"
	"sales-forecast/internal/common/validation"
	"sales-forecast/internal/forecast"
	"sales-forecast/internal/models"
)

const TaskType = "predict-single"

// Predictor is the single-prediction entry point of the pipeline.
type Predictor interface {
	PredictSingle(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error)
}

type Handler struct {
	config       *Config
	predictor    Predictor
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(cfg *Config, predictor Predictor, log logger.Logger) *Handler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       cfg,
		predictor:    predictor,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

// WithObservability adds span and otel job counting to every handled job.
func (h *Handler) WithObservability(obs *observability.Observability) *Handler {
	h.obs = obs
	return h
}

func (h *Handler) TaskType() string {
	return TaskType
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()
	ctx, span := h.obs.StartSpan(ctx, TaskType)
	defer span.End()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

// Execute predicts one request and shapes the result for the process.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.predictor.PredictSingle(ctx, input.Request)
	if err != nil {
		return nil, err
	}
	return &Output{
		ItemOutletSales:        res.ItemOutletSales,
		ItemOutletSalesRounded: forecast.Round2(res.ItemOutletSales),
		Display:                forecast.FormatSales(res.ItemOutletSales),
		OutletProfile:          res.Record.Profile,
	}, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, apperrors.NewInvalidInputError("job variables are not a JSON object: " + err.Error())
	}
	req, err := validation.ParsePredictionRequest(variables)
	if err != nil {
		return nil, err
	}
	return &Input{Request: req}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":          job.GetKey(),
		"itemOutletSales": output.ItemOutletSalesRounded,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
