package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"sales-forecast/internal/common/config"
	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/common/observability"
	"sales-forecast/internal/forecast"
	"sales-forecast/internal/models"
	"sales-forecast/internal/notify"
	"sales-forecast/internal/store"
)

const DownloadPathFormat = "/api/v1/predictions/batch/%s/download"

// Predictor is the part of the pipeline the batch service drives.
type Predictor interface {
	PredictBatch(ctx context.Context, frame *models.Frame) (*forecast.BatchResult, error)
}

// Outcome is what one batch run produced.
type Outcome struct {
	BatchID     string
	Frame       *models.Frame
	Result      *forecast.BatchResult
	CSV         []byte
	DownloadURL string
}

// TotalSales sums the successful predictions.
func (o *Outcome) TotalSales() float64 {
	var total float64
	for _, r := range o.Result.Succeeded() {
		total += r.Sales
	}
	return total
}

// Response shapes the outcome for API callers. Sales are rounded to cents and
// failed rows are numbered from 1. Charts are left to the caller.
func (o *Outcome) Response() models.BatchResponse {
	resp := models.BatchResponse{
		BatchID:     o.BatchID,
		Rows:        len(o.Result.Rows),
		Failed:      o.Result.Failed,
		Predictions: make([]models.BatchPrediction, 0, len(o.Result.Rows)),
		Failures:    []models.BatchFailure{},
		DownloadURL: o.DownloadURL,
	}
	for _, r := range o.Result.Succeeded() {
		resp.Predictions = append(resp.Predictions, models.BatchPrediction{
			OutletIdentifier: r.Record.Profile.OutletIdentifier,
			ItemIdentifier:   r.Record.Request.ItemIdentifier,
			ItemOutletSales:  forecast.Round2(r.Sales),
		})
	}
	for _, r := range o.Result.Failures() {
		resp.Failures = append(resp.Failures, models.BatchFailure{
			Row:     r.Index + 1,
			Code:    string(apperrors.Normalize(r.Err).Code),
			Message: apperrors.UserMessage(r.Err),
		})
	}
	return resp
}

type Service struct {
	predictor Predictor
	store     store.ResultStore
	notifier  notify.Notifier
	logger    logger.Logger
	obs       *observability.Observability
	maxRows   int
	newID     func() string
	now       func() time.Time
}

func NewService(p Predictor, s store.ResultStore, n notify.Notifier, cfg config.BatchConfig, log logger.Logger, obs *observability.Observability) *Service {
	if n == nil {
		n = notify.Noop{}
	}
	return &Service{
		predictor: p,
		store:     s,
		notifier:  n,
		logger:    log.WithComponent("batch"),
		obs:       obs,
		maxRows:   cfg.MaxRows,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Preview decodes contents without predicting.
func (s *Service) Preview(contents []byte) (*models.Frame, error) {
	frame, err := Decode(contents)
	if err != nil {
		return nil, err
	}
	if err := s.checkSize(frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// Run decodes the upload, predicts every row, stores the result CSV and sends the
// batch-complete notification. A failed notification is logged and does not fail
// the run.
func (s *Service) Run(ctx context.Context, contents []byte) (*Outcome, error) {
	ctx, span := s.obs.StartSpan(ctx, "batch.run", attribute.Int("batch.bytes", len(contents)))
	defer span.End()

	frame, err := s.Preview(contents)
	if err != nil {
		return nil, err
	}

	result, err := s.predictor.PredictBatch(ctx, frame)
	if err != nil {
		return nil, err
	}

	csvData, err := EncodeResults(result)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("encode results: %w", err))
	}

	out := &Outcome{
		BatchID: s.newID(),
		Frame:   frame,
		Result:  result,
		CSV:     csvData,
	}
	out.DownloadURL = fmt.Sprintf(DownloadPathFormat, out.BatchID)
	span.SetAttributes(attribute.String("batch.id", out.BatchID))

	err = s.store.Save(ctx, &store.Result{
		BatchID:   out.BatchID,
		CSV:       csvData,
		Rows:      len(result.Rows),
		Failed:    result.Failed,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	summary := notify.BatchSummary{
		BatchID:     out.BatchID,
		Rows:        len(result.Rows),
		Failed:      result.Failed,
		TotalSales:  out.TotalSales(),
		DownloadURL: out.DownloadURL,
		CompletedAt: s.now().UTC(),
	}
	if err := s.notifier.BatchCompleted(ctx, summary); err != nil {
		s.logger.Warn("batch notification failed", map[string]interface{}{
			"batchId": out.BatchID,
			"error":   err,
		})
	}

	s.logger.Info("batch stored", map[string]interface{}{
		"batchId": out.BatchID,
		"rows":    len(result.Rows),
		"failed":  result.Failed,
		"backend": s.store.Backend(),
	})
	return out, nil
}

// Download returns the stored CSV of a batch.
func (s *Service) Download(ctx context.Context, batchID string) ([]byte, error) {
	r, err := s.store.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return r.CSV, nil
}

func (s *Service) checkSize(frame *models.Frame) error {
	if s.maxRows > 0 && frame.Rows() > s.maxRows {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("upload has %d rows, limit is %d", frame.Rows(), s.maxRows))
	}
	return nil
}
