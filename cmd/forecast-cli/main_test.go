package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-forecast/internal/batch"
	"sales-forecast/internal/catalog"
	"sales-forecast/internal/common/config"
	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/forecast"
	"sales-forecast/internal/forecast/model"
	"sales-forecast/internal/forecast/outlets"
	"sales-forecast/internal/models"
	"sales-forecast/internal/server"
	"sales-forecast/internal/store"
)

// Item_Outlet_Sales = Item_MRP squared.
const artifactJSON = `{
  "name": "mrp",
  "version": "test",
  "feature_names_in": ["Item_MRP", "Outlet_Type"],
  "intercept": 0,
  "numeric": {"Item_MRP": 1},
  "categorical": {"Outlet_Type": {"Grocery_Store": 0}}
}`

const upload = `Outlet_Identifier,Item_Identifier,Item_Type,Item_Fat_Content,Item_Visibility,Item_MRP
OUT049,FDA01,Dairy,Low_Fat,0.02,150.0
OUT999,FDB02,Snack_Foods,Regular,0.10,10
OUT027,FDC03,Meat,Low_Fat,0.05,20.5
`

// ==========================
// Test Helpers
// ==========================

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

// localConfig writes a config for in-process mode and returns its path.
func localConfig(t *testing.T) string {
	dir := t.TempDir()
	modelPath := writeFile(t, dir, "model.json", artifactJSON)
	catalogPath := writeFile(t, dir, "items.csv", "Item_Identifier\nFDA01\nFDA02\nFDB02\nNCD19\n")
	return writeFile(t, dir, "config.yaml", strings.Join([]string{
		"model:",
		"  path: " + modelPath,
		"catalog:",
		"  source: file",
		"  file: " + catalogPath,
		"batch:",
		"  failure_policy: partial",
		"logging:",
		"  level: error",
	}, "\n")+"\n")
}

func remoteServer(t *testing.T) string {
	log := logger.NewTestLogger(t)
	m, err := model.NewLinear(model.Artifact{
		FeatureNamesIn: []string{models.ColItemMRP, models.ColOutletType},
		Numeric:        map[string]float64{models.ColItemMRP: 1},
		Categorical:    map[string]map[string]float64{models.ColOutletType: {"Grocery_Store": 0}},
	})
	require.NoError(t, err)

	pipeline := forecast.NewPipeline(outlets.Default(), staticProvider{m}, log)
	items, err := catalog.ReadCatalog(strings.NewReader("Item_Identifier\nFDA01\n"))
	require.NoError(t, err)

	srv := server.New(config.ServerConfig{Mode: "test", MaxUploadBytes: 1 << 20}, server.Dependencies{
		Pipeline: pipeline,
		Batch:    batch.NewService(pipeline, store.NewMemoryStore(time.Hour), nil, config.BatchConfig{}, log, nil),
		Catalog:  catalog.NewCatalog(items, config.CatalogSourceFile, 10, log),
	}, log)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

type staticProvider struct{ m model.Model }

func (p staticProvider) Model(context.Context) (model.Model, error) { return p.m, nil }
func (p staticProvider) Mode() string                               { return "static" }

// ==========================
// In-process
// ==========================

func TestPredict_Local(t *testing.T) {
	out, err := runCLI(t, "predict", "--config", localConfig(t),
		"--outlet", "OUT049", "--item", "FDA01", "--type", "Dairy", "--fat", "Low_Fat",
		"--visibility", "0.02", "--mrp", "150")
	require.NoError(t, err)

	assert.Contains(t, out, "Item_Outlet_Sales = R$ 22,500.00")
	assert.Contains(t, out, "Supermarket_Type1")
}

func TestPredict_MissingOutlet(t *testing.T) {
	_, err := runCLI(t, "predict", "--type", "Dairy", "--fat", "Low_Fat", "--visibility", "0.02", "--mrp", "150")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMissingField))
}

func TestBatch_LocalWritesResults(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "upload.csv", upload)
	outPath := filepath.Join(dir, "predictions.csv")

	out, err := runCLI(t, "batch", in, "--config", localConfig(t), "-o", outPath, "-O", "json")
	require.NoError(t, err)

	var resp models.BatchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 3, resp.Rows)
	assert.Equal(t, 1, resp.Failed)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, 2, resp.Failures[0].Row)

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t,
		"Outlet_Identifier,Item_Identifier,Item_Outlet_Sales\nOUT049,FDA01,22500.00\nOUT027,FDC03,420.25\n",
		string(written))
}

func TestBatch_TableOutput(t *testing.T) {
	in := writeFile(t, t.TempDir(), "upload.csv", upload)

	out, err := runCLI(t, "batch", in, "--config", localConfig(t))
	require.NoError(t, err)

	assert.Contains(t, out, "22500.00")
	assert.Contains(t, out, "Skipped rows")
	assert.Contains(t, out, "UNKNOWN_OUTLET")
	assert.Contains(t, out, "3 rows, 1 failed")
}

func TestItems_Local(t *testing.T) {
	out, err := runCLI(t, "items", "fda", "--config", localConfig(t))
	require.NoError(t, err)
	assert.Equal(t, "FDA01\nFDA02\n", out)
}

func TestOutlets_Local(t *testing.T) {
	out, err := runCLI(t, "outlets", "--config", localConfig(t), "-O", "json")
	require.NoError(t, err)

	var profiles []models.OutletProfile
	require.NoError(t, json.Unmarshal([]byte(out), &profiles))
	assert.Len(t, profiles, 10)
}

// ==========================
// Remote
// ==========================

func TestOutlets_Remote(t *testing.T) {
	out, err := runCLI(t, "outlets", "--server", remoteServer(t))
	require.NoError(t, err)
	assert.Contains(t, out, "OUT049")
	assert.Contains(t, out, "Grocery_Store")
}

func TestPredict_RemoteUnknownOutlet(t *testing.T) {
	_, err := runCLI(t, "predict", "--server", remoteServer(t),
		"--outlet", "OUT999", "--type", "Dairy", "--fat", "Low_Fat", "--visibility", "0.02", "--mrp", "150")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNKNOWN_OUTLET")
}

func TestBatch_Remote(t *testing.T) {
	dir := t.TempDir()
	good := strings.Replace(upload, "OUT999", "OUT010", 1)
	in := writeFile(t, dir, "upload.csv", good)
	outPath := filepath.Join(dir, "predictions.csv")

	_, err := runCLI(t, "batch", in, "--server", remoteServer(t), "-o", outPath)
	require.NoError(t, err)

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(written), "OUT010,FDB02,100.00")
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := runCLI(t, "items", "fd", "--server", remoteServer(t), "-O", "xml")
	assert.EqualError(t, err, `unknown output format "xml" (use table or json)`)
}
