package outlets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-forecast/internal/common/config"
	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/models"
)

// ==========================
// Table
// ==========================

func TestDefaultTable(t *testing.T) {
	table := Default()

	assert.Equal(t, 10, table.Len())
	assert.Equal(t, []string{
		"OUT010", "OUT013", "OUT017", "OUT018", "OUT019",
		"OUT027", "OUT035", "OUT045", "OUT046", "OUT049",
	}, table.IDs())

	p, err := table.Lookup("OUT049")
	require.NoError(t, err)
	assert.Equal(t, models.OutletProfile{
		OutletIdentifier:   "OUT049",
		OutletType:         models.OutletTypeSupermarketType1,
		OutletSize:         models.OutletSizeMedium,
		OutletLocationType: models.LocationTier1,
		OutletYears:        24,
	}, p)

	p, err = table.Lookup("OUT027")
	require.NoError(t, err)
	assert.Equal(t, models.OutletTypeSupermarketType3, p.OutletType)
	assert.Equal(t, 38, p.OutletYears)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Default().Lookup("OUT999")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = Default().Lookup("")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNewTableValidation(t *testing.T) {
	valid := DefaultProfiles()[0]

	tests := []struct {
		name   string
		mutate func(*models.OutletProfile)
	}{
		{"empty id", func(p *models.OutletProfile) { p.OutletIdentifier = "" }},
		{"bad type", func(p *models.OutletProfile) { p.OutletType = "Hypermarket" }},
		{"bad size", func(p *models.OutletProfile) { p.OutletSize = "Huge" }},
		{"bad tier", func(p *models.OutletProfile) { p.OutletLocationType = "Tier_9" }},
		{"negative age", func(p *models.OutletProfile) { p.OutletYears = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			_, err := NewTable([]models.OutletProfile{p})
			assert.True(t, errors.Is(err, ErrInvalidProfile))
		})
	}

	_, err := NewTable([]models.OutletProfile{valid, valid})
	assert.True(t, errors.Is(err, ErrInvalidProfile), "duplicates are rejected")
}

func TestProfilesIsACopy(t *testing.T) {
	table := Default()
	profiles := table.Profiles()
	profiles[0].OutletYears = 999

	p, _ := table.Lookup(profiles[0].OutletIdentifier)
	assert.Equal(t, 25, p.OutletYears)
}

// ==========================
// Sources
// ==========================

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outlets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
outlets:
  - id: OUT100
    type: Supermarket_Type2
    size: High
    location_type: Tier_2
    years: 3
  - {id: OUT101, type: Grocery_Store, size: Small, location_type: Tier_1, years: 40}
`), 0o600))

	table, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"OUT100", "OUT101"}, table.IDs())

	p, err := table.Lookup("OUT100")
	require.NoError(t, err)
	assert.Equal(t, models.OutletSizeHigh, p.OutletSize)
	assert.Equal(t, 3, p.OutletYears)
}

func TestLoadFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outlets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("outlets: []\n"), 0o600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"outlet_identifier", "outlet_type", "outlet_size", "outlet_location_type", "outlet_years"}).
		AddRow("OUT010", "Grocery_Store", "Small", "Tier_3", 25).
		AddRow("OUT049", "Supermarket_Type1", "Medium", "Tier_1", 24)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "outlets"`)).WillReturnRows(rows)

	table, err := LoadPostgres(context.Background(), db, "outlets")
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	p, err := table.Lookup("OUT049")
	require.NoError(t, err)
	assert.Equal(t, models.LocationTier1, p.OutletLocationType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadPostgres_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("relation does not exist"))

	_, err = LoadPostgres(context.Background(), db, "outlets")
	assert.Error(t, err)
}

func TestLoad_SelectsSource(t *testing.T) {
	log := logger.NewTestLogger(t)

	table, err := Load(context.Background(), config.OutletsConfig{Source: config.OutletSourceBuiltin}, nil, log)
	require.NoError(t, err)
	assert.Equal(t, 10, table.Len())

	_, err = Load(context.Background(), config.OutletsConfig{Source: config.OutletSourcePostgres, Table: "outlets"}, nil, log)
	assert.True(t, errors.Is(err, apperrors.ErrOutletSource))

	_, err = Load(context.Background(), config.OutletsConfig{Source: config.OutletSourceFile, File: "/does/not/exist.yaml"}, nil, log)
	assert.True(t, errors.Is(err, apperrors.ErrOutletSource))
}
