package forecast

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"sales-forecast/internal/common/config"
	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/common/metrics"
	"sales-forecast/internal/models"
)

// RowResult is the outcome for one uploaded row. Err is set only under the partial
// failure policy; Sales is meaningful only when Err is nil.
type RowResult struct {
	Index  int
	Record models.EnrichedRecord
	Sales  float64
	Err    error
}

// BatchResult is index-aligned with the uploaded frame.
type BatchResult struct {
	Rows   []RowResult
	Failed int
}

// Succeeded returns the rows that produced a forecast, in upload order.
func (b *BatchResult) Succeeded() []RowResult {
	out := make([]RowResult, 0, len(b.Rows)-b.Failed)
	for _, r := range b.Rows {
		if r.Err == nil {
			out = append(out, r)
		}
	}
	return out
}

func (b *BatchResult) Failures() []RowResult {
	out := make([]RowResult, 0, b.Failed)
	for _, r := range b.Rows {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// SalesRows flattens successful rows for the chart builders.
func (b *BatchResult) SalesRows() []models.SalesRow {
	ok := b.Succeeded()
	out := make([]models.SalesRow, len(ok))
	for i, r := range ok {
		out[i] = models.SalesRow{
			OutletIdentifier:   r.Record.Profile.OutletIdentifier,
			ItemIdentifier:     r.Record.Request.ItemIdentifier,
			ItemType:           r.Record.Request.ItemType,
			ItemVisibility:     r.Record.Request.ItemVisibility,
			OutletType:         r.Record.Profile.OutletType,
			OutletSize:         r.Record.Profile.OutletSize,
			OutletLocationType: r.Record.Profile.OutletLocationType,
			ItemOutletSales:    r.Sales,
		}
	}
	return out
}

// PredictBatch enriches every row of frame through the outlet table and predicts
// all resolvable rows in one model call.
func (p *Pipeline) PredictBatch(ctx context.Context, frame *models.Frame) (*BatchResult, error) {
	start := time.Now()
	ctx, span := p.obs.StartSpan(ctx, "forecast.predict_batch",
		attribute.Int("batch.rows", frame.Rows()),
		attribute.String("batch.policy", p.policy),
	)
	defer span.End()

	result, err := p.predictBatch(ctx, frame)
	p.observe(ctx, ModeBatch, start, frame.Rows(), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Warn("batch prediction failed", map[string]interface{}{
			"rows":   frame.Rows(),
			"policy": p.policy,
			"error":  err,
		})
		return nil, err
	}

	metrics.BatchRows.Observe(float64(frame.Rows()))
	span.SetAttributes(attribute.Int("batch.failed", result.Failed))
	p.logger.Info("batch prediction", map[string]interface{}{
		"rows":   frame.Rows(),
		"failed": result.Failed,
		"policy": p.policy,
	})
	return result, nil
}

func (p *Pipeline) predictBatch(ctx context.Context, frame *models.Frame) (*BatchResult, error) {
	idCol, ok := frame.Column(models.ColOutletIdentifier)
	if !ok {
		return nil, apperrors.NewMissingFieldError(models.ColOutletIdentifier)
	}
	if idCol.Numeric {
		return nil, apperrors.NewColumnTypeError(models.ColOutletIdentifier, "text")
	}

	m, err := p.models.Model(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.checkColumns(frame, m.FeatureNames()); err != nil {
		return nil, err
	}

	result := &BatchResult{Rows: make([]RowResult, frame.Rows())}
	var good []int
	var profiles []models.OutletProfile
	for i := range idCol.Text {
		result.Rows[i].Index = i
		req := requestAt(frame, i)

		record, err := p.enrich(req)
		if err != nil {
			if p.policy != config.FailurePolicyPartial {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			result.Rows[i].Err = err
			result.Rows[i].Record = models.EnrichedRecord{Request: req}
			result.Failed++
			continue
		}
		result.Rows[i].Record = record
		good = append(good, i)
		profiles = append(profiles, record.Profile)
	}

	if len(good) == 0 {
		return result, nil
	}

	enriched := frame.Take(good)
	if err := addProfileColumns(enriched, profiles); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	sales, err := p.predictWith(ctx, m, enriched)
	if err != nil {
		return nil, err
	}
	for j, i := range good {
		result.Rows[i].Sales = sales[j]
	}
	return result, nil
}

// checkColumns fails the whole batch when a declared feature can never be present,
// and, when configured, when the upload carries columns the model does not use.
func (p *Pipeline) checkColumns(frame *models.Frame, features []string) error {
	available := make(map[string]bool)
	for _, name := range frame.Names() {
		available[name] = true
	}
	for _, name := range models.ProfileColumns() {
		available[name] = true
	}

	var missing []string
	declared := make(map[string]bool, len(features))
	for _, f := range features {
		declared[f] = true
		if !available[f] {
			missing = append(missing, f)
		}
	}

	var extra []string
	if p.rejectExtra {
		for _, name := range frame.Names() {
			if declared[name] || name == models.ColOutletIdentifier || name == models.ColItemIdentifier {
				continue
			}
			extra = append(extra, name)
		}
		sort.Strings(extra)
	}

	if len(missing) > 0 || len(extra) > 0 {
		return apperrors.NewSchemaMismatchError(missing, extra)
	}
	return nil
}

// addProfileColumns writes the four outlet attributes onto frame, replacing any
// uploaded columns of the same name.
func addProfileColumns(frame *models.Frame, profiles []models.OutletProfile) error {
	n := len(profiles)
	types := make([]string, n)
	sizes := make([]string, n)
	locations := make([]string, n)
	years := make([]float64, n)
	ids := make([]string, n)
	for i, pr := range profiles {
		types[i] = string(pr.OutletType)
		sizes[i] = string(pr.OutletSize)
		locations[i] = string(pr.OutletLocationType)
		years[i] = float64(pr.OutletYears)
		ids[i] = pr.OutletIdentifier
	}
	return errors.Join(
		frame.AddText(models.ColOutletIdentifier, ids),
		frame.AddText(models.ColOutletType, types),
		frame.AddText(models.ColOutletSize, sizes),
		frame.AddText(models.ColOutletLocationType, locations),
		frame.AddNumeric(models.ColOutletYears, years),
	)
}

// requestAt reads the request attributes of one row. Absent or mistyped columns
// leave the zero value; the model schema check reports them.
func requestAt(frame *models.Frame, row int) models.PredictionRequest {
	text := func(name string) string {
		col, ok := frame.Column(name)
		if !ok {
			return ""
		}
		return col.Value(row).String()
	}
	num := func(name string) float64 {
		col, ok := frame.Column(name)
		if !ok || !col.Numeric {
			return 0
		}
		return col.Num[row]
	}
	return models.PredictionRequest{
		OutletIdentifier: text(models.ColOutletIdentifier),
		ItemIdentifier:   text(models.ColItemIdentifier),
		ItemType:         models.ItemType(text(models.ColItemType)),
		ItemFatContent:   models.FatContent(text(models.ColItemFatContent)),
		ItemVisibility:   num(models.ColItemVisibility),
		ItemMRP:          num(models.ColItemMRP),
	}
}
