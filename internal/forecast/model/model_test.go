package model

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-forecast/internal/common/config"
	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/models"
)

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewTestLogger(t)
}

func smallFrame(t *testing.T, mrp []float64, outletTypes []string) *models.Frame {
	t.Helper()
	f := models.NewFrame()
	require.NoError(t, f.AddNumeric(models.ColItemMRP, mrp))
	require.NoError(t, f.AddText(models.ColOutletType, outletTypes))
	return f
}

// ==========================
// Linear Model
// ==========================

func TestLoadFile_YAML(t *testing.T) {
	m, err := LoadFile("testdata/small.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{models.ColItemMRP, models.ColOutletType}, m.FeatureNames())
	assert.Equal(t, "small", m.Name())

	out, err := m.Predict(context.Background(), smallFrame(t,
		[]float64{10, 10, 4},
		[]string{"Grocery_Store", "Supermarket_Type1", "Supermarket_Type9"},
	))
	require.NoError(t, err)
	// 2 + 0.5*mrp + one-hot(outlet type); unseen levels add nothing
	assert.Equal(t, []float64{6, 8, 4}, out)
}

func TestLoadFile_JSONReferenceArtifact(t *testing.T) {
	m, err := LoadFile("testdata/linear.json")
	require.NoError(t, err)

	assert.Len(t, m.FeatureNames(), 9)
	assert.Equal(t, models.ColItemVisibility, m.FeatureNames()[0])
	assert.Equal(t, "1.0.0", m.Version())
}

func TestPredict_RejectsWrongColumns(t *testing.T) {
	m, err := LoadFile("testdata/small.yaml")
	require.NoError(t, err)

	t.Run("missing column", func(t *testing.T) {
		f := models.NewFrame()
		require.NoError(t, f.AddNumeric(models.ColItemMRP, []float64{1}))
		_, err := m.Predict(context.Background(), f)
		assert.True(t, errors.Is(err, apperrors.ErrSchemaMismatch))
	})

	t.Run("wrong order", func(t *testing.T) {
		f := models.NewFrame()
		require.NoError(t, f.AddText(models.ColOutletType, []string{"Grocery_Store"}))
		require.NoError(t, f.AddNumeric(models.ColItemMRP, []float64{1}))
		_, err := m.Predict(context.Background(), f)
		assert.True(t, errors.Is(err, apperrors.ErrSchemaMismatch))
	})

	t.Run("text in numeric column", func(t *testing.T) {
		f := models.NewFrame()
		require.NoError(t, f.AddText(models.ColItemMRP, []string{"cheap"}))
		require.NoError(t, f.AddText(models.ColOutletType, []string{"Grocery_Store"}))
		_, err := m.Predict(context.Background(), f)
		assert.True(t, errors.Is(err, apperrors.ErrSchemaMismatch))
	})
}

func TestPredict_EmptyFrame(t *testing.T) {
	m, err := LoadFile("testdata/small.yaml")
	require.NoError(t, err)

	out, err := m.Predict(context.Background(), smallFrame(t, []float64{}, []string{}))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNewLinear_InvalidArtifacts(t *testing.T) {
	tests := []struct {
		name     string
		artifact Artifact
	}{
		{"no features", Artifact{}},
		{"feature without coefficients", Artifact{FeatureNamesIn: []string{"Item_MRP"}}},
		{"duplicate feature", Artifact{
			FeatureNamesIn: []string{"Item_MRP", "Item_MRP"},
			Numeric:        map[string]float64{"Item_MRP": 1},
		}},
		{"numeric and categorical", Artifact{
			FeatureNamesIn: []string{"Item_MRP"},
			Numeric:        map[string]float64{"Item_MRP": 1},
			Categorical:    map[string]map[string]float64{"Item_MRP": {"x": 1}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLinear(tt.artifact)
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile("testdata/absent.json")
	assert.True(t, errors.Is(err, apperrors.ErrModelLoadFailed))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	_, err = LoadFile(bad)
	assert.True(t, errors.Is(err, apperrors.ErrModelLoadFailed))
}

func TestResolvePath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	p, err := ResolvePath("model.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "model.json"), p)

	p, err = ResolvePath("/abs/model.json")
	require.NoError(t, err)
	assert.Equal(t, "/abs/model.json", p)
}

// ==========================
// Providers
// ==========================

type countingLoader struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingLoader) load(path string) (Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return LoadFile(path)
}

func (c *countingLoader) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestReloadingProvider_LoadsEveryCall(t *testing.T) {
	loader := &countingLoader{}
	p := NewReloadingProvider("testdata/small.yaml", createTestLogger(t), WithLoader(loader.load))

	for i := 0; i < 3; i++ {
		_, err := p.Model(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, loader.count())
	assert.Equal(t, ModeReload, p.Mode())
}

func TestCachingProvider_LoadsOnce(t *testing.T) {
	loader := &countingLoader{}
	p := NewCachingProvider("testdata/small.yaml", createTestLogger(t), WithLoader(loader.load))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Model(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, loader.count())
	assert.Equal(t, ModeCached, p.Mode())
}

func TestCachingProvider_RetriesAfterFailure(t *testing.T) {
	loader := &countingLoader{err: errors.New("disk unavailable")}
	p := NewCachingProvider("testdata/small.yaml", createTestLogger(t), WithLoader(loader.load))

	_, err := p.Model(context.Background())
	require.Error(t, err)

	loader.mu.Lock()
	loader.err = nil
	loader.mu.Unlock()

	m, err := p.Model(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, m)
	assert.Equal(t, 2, loader.count())
}

func TestReloadingProvider_SeesFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.yaml")
	write := func(intercept string) {
		body := "feature_names_in: [Item_MRP]\nintercept: " + intercept + "\nnumeric: {Item_MRP: 0}\n"
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}
	f := models.NewFrame()
	require.NoError(t, f.AddNumeric(models.ColItemMRP, []float64{1}))

	p := NewReloadingProvider(path, createTestLogger(t))

	write("3")
	m, err := p.Model(context.Background())
	require.NoError(t, err)
	out, _ := m.Predict(context.Background(), f)
	assert.Equal(t, []float64{3}, out)

	write("5")
	m, err = p.Model(context.Background())
	require.NoError(t, err)
	out, _ = m.Predict(context.Background(), f)
	assert.Equal(t, []float64{5}, out)
}

func TestNewProvider_SelectsByConfig(t *testing.T) {
	log := createTestLogger(t)

	assert.Equal(t, ModeReload, NewProvider(config.ModelConfig{Path: "m.json"}, log).Mode())
	assert.Equal(t, ModeCached, NewProvider(config.ModelConfig{Path: "m.json", Cache: true}, log).Mode())
}

func TestProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReloadingProvider("testdata/small.yaml", createTestLogger(t)).Model(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
