package predictbatch

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"sales-forecast/internal/batch"
	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/common/metrics"
	"sales-forecast/internal/common/observability"
	"sales-forecast/internal/forecast"
)

const TaskType = "predict-batch"

// Runner is the batch service entry point.
type Runner interface {
	Run(ctx context.Context, contents []byte) (*batch.Outcome, error)
}

type Handler struct {
	config       *Config
	runner       Runner
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(cfg *Config, runner Runner, log logger.Logger) *Handler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       cfg,
		runner:       runner,
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

	input, err := parseInput(job)
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

// Execute runs the uploaded table through the batch service. Predictions are
// rounded to 2 places, matching the stored CSV.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.Contents) == "" {
		return nil, apperrors.NewMissingFieldError("contents")
	}

	outcome, err := h.runner.Run(ctx, []byte(input.Contents))
	if err != nil {
		return nil, err
	}

	res := outcome.Result
	out := &Output{
		BatchID:     outcome.BatchID,
		RowCount:    len(res.Rows),
		FailedCount: res.Failed,
		Predictions: make([]Prediction, 0, len(res.Rows)-res.Failed),
		DownloadURL: outcome.DownloadURL,
	}
	for _, r := range res.Succeeded() {
		out.Predictions = append(out.Predictions, Prediction{
			OutletIdentifier: r.Record.Profile.OutletIdentifier,
			ItemIdentifier:   r.Record.Request.ItemIdentifier,
			ItemOutletSales:  forecast.Round2(r.Sales),
		})
	}
	for _, r := range res.Failures() {
		out.Failures = append(out.Failures, RowFailure{
			Row:   r.Index + 1,
			Error: apperrors.UserMessage(r.Err),
		})
	}
	return out, nil
}

func parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, apperrors.NewInvalidInputError("job variables are not a JSON object: " + err.Error())
	}
	return &input, nil
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
		"jobKey":  job.GetKey(),
		"batchId": output.BatchID,
		"rows":    output.RowCount,
		"failed":  output.FailedCount,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
