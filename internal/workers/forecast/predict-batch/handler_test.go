package predictbatch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-forecast/internal/batch"
	"sales-forecast/internal/common/config"
	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/forecast"
	"sales-forecast/internal/forecast/model"
	"sales-forecast/internal/forecast/outlets"
	"sales-forecast/internal/models"
	"sales-forecast/internal/store"
)

const upload = `Outlet_Identifier,Item_Identifier,Item_Type,Item_Fat_Content,Item_Visibility,Item_MRP
OUT049,FDA01,Dairy,Low_Fat,0.02,150.0
OUT999,FDB02,Snack_Foods,Regular,0.10,10
OUT027,FDC03,Meat,Low_Fat,0.05,1.005
`

// ==========================
// Test Helpers
// ==========================

type staticProvider struct{ m model.Model }

func (p staticProvider) Model(context.Context) (model.Model, error) { return p.m, nil }
func (p staticProvider) Mode() string                               { return "static" }

func newBatchService(t *testing.T, policy string) *batch.Service {
	m, err := model.NewLinear(model.Artifact{
		FeatureNamesIn: []string{models.ColItemMRP, models.ColOutletType},
		Numeric:        map[string]float64{models.ColItemMRP: 1},
		Categorical:    map[string]map[string]float64{models.ColOutletType: {"Grocery_Store": 0}},
	})
	require.NoError(t, err)

	log := logger.NewTestLogger(t)
	pipeline := forecast.NewPipeline(outlets.Default(), staticProvider{m: m}, log,
		forecast.WithBatchConfig(config.BatchConfig{FailurePolicy: policy}))
	return batch.NewService(pipeline, store.NewMemoryStore(time.Hour), nil, config.BatchConfig{}, log, nil)
}

func createMockJob(key int64, variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "sales-forecast",
		ElementId:          "Activity_PredictBatch",
		CustomHeaders:      "{}",
		Retries:            3,
		Variables:          variables,
	}}
}

// ==========================
// Tests
// ==========================

func TestParseInput(t *testing.T) {
	raw, _ := json.Marshal(map[string]interface{}{"contents": upload, "other": 1})
	input, err := parseInput(createMockJob(1, string(raw)))
	require.NoError(t, err)
	assert.Equal(t, upload, input.Contents)

	_, err = parseInput(createMockJob(2, "[1,2]"))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestHandler_ExecutePartial(t *testing.T) {
	h := NewHandler(nil, newBatchService(t, config.FailurePolicyPartial), logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Contents: upload})
	require.NoError(t, err)

	assert.NotEmpty(t, out.BatchID)
	assert.True(t, strings.HasSuffix(out.DownloadURL, "/"+out.BatchID+"/download"))
	assert.Equal(t, 3, out.RowCount)
	assert.Equal(t, 1, out.FailedCount)
	assert.Equal(t, []Prediction{
		{OutletIdentifier: "OUT049", ItemIdentifier: "FDA01", ItemOutletSales: 22500},
		{OutletIdentifier: "OUT027", ItemIdentifier: "FDC03", ItemOutletSales: 1.01},
	}, out.Predictions)

	require.Len(t, out.Failures, 1)
	assert.Equal(t, 2, out.Failures[0].Row)
	assert.Contains(t, out.Failures[0].Error, "OUT999")
}

func TestHandler_ExecuteStrictFails(t *testing.T) {
	h := NewHandler(nil, newBatchService(t, config.FailurePolicyStrict), logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Contents: upload})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownOutlet))
	assert.Contains(t, err.Error(), "row 2")
}

func TestHandler_ExecuteMissingContents(t *testing.T) {
	h := NewHandler(nil, newBatchService(t, ""), logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{Contents: "  "})
	assert.True(t, errors.Is(err, apperrors.ErrMissingField))
}

func TestHandler_ExecuteDataURL(t *testing.T) {
	h := NewHandler(nil, newBatchService(t, config.FailurePolicyPartial), logger.NewTestLogger(t))

	contents := "data:text/csv;base64,T3V0bGV0X0lkZW50aWZpZXIsSXRlbV9JZGVudGlmaWVyLEl0ZW1fVHlwZSxJdGVtX0ZhdF9Db250ZW50LEl0ZW1fVmlzaWJpbGl0eSxJdGVtX01SUApPVVQwMTAsRkRBMDEsRGFpcnksTG93X0ZhdCwwLjAyLDMK"
	out, err := h.Execute(context.Background(), &Input{Contents: contents})
	require.NoError(t, err)
	require.Len(t, out.Predictions, 1)
	assert.Equal(t, 9.0, out.Predictions[0].ItemOutletSales)
}

func TestConfigFromApp(t *testing.T) {
	cfg := ConfigFromApp(&config.Config{
		Workers: map[string]config.WorkerConfig{TaskType: {Enabled: true, Timeout: 120000}},
	})
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, 2, cfg.MaxJobsActive)
	assert.NoError(t, cfg.Validate())
}
