package outlets

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/lib/pq"
	"gopkg.in/yaml.v3"

	"sales-forecast/internal/common/config"
	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/models"
)

// Querier is the subset of *sql.DB the PostgreSQL source needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// Load builds the table from the configured source. It runs once at start-up.
func Load(ctx context.Context, cfg config.OutletsConfig, db Querier, log logger.Logger) (*Table, error) {
	var (
		table *Table
		err   error
	)

	switch cfg.Source {
	case config.OutletSourceFile:
		table, err = LoadFile(cfg.File)
	case config.OutletSourcePostgres:
		if db == nil {
			return nil, apperrors.NewOutletSourceError(cfg.Source, fmt.Errorf("no database connection"))
		}
		table, err = LoadPostgres(ctx, db, cfg.Table)
	default:
		table, err = NewTable(DefaultProfiles())
	}
	if err != nil {
		return nil, apperrors.NewOutletSourceError(cfg.Source, err)
	}

	log.Info("outlet table loaded", map[string]interface{}{
		"source":  cfg.Source,
		"outlets": table.Len(),
	})
	return table, nil
}

type fileDocument struct {
	Outlets []models.OutletProfile `yaml:"outlets"`
}

// LoadFile reads a YAML document of the form
//
//	outlets:
//	  - {id: OUT010, type: Grocery_Store, size: Small, location_type: Tier_3, years: 25}
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read outlet file: %w", err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse outlet file %s: %w", path, err)
	}
	if len(doc.Outlets) == 0 {
		return nil, fmt.Errorf("outlet file %s lists no outlets", path)
	}
	return NewTable(doc.Outlets)
}

// LoadPostgres reads every row of table.
func LoadPostgres(ctx context.Context, db Querier, table string) (*Table, error) {
	query := fmt.Sprintf(`
		SELECT outlet_identifier, outlet_type, outlet_size, outlet_location_type, outlet_years
		FROM %s
		ORDER BY outlet_identifier`, pq.QuoteIdentifier(table))

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query outlets: %w", err)
	}
	defer rows.Close()

	var profiles []models.OutletProfile
	for rows.Next() {
		var (
			p                      models.OutletProfile
			outletType, size, tier string
		)
		if err := rows.Scan(&p.OutletIdentifier, &outletType, &size, &tier, &p.OutletYears); err != nil {
			return nil, fmt.Errorf("scan outlet row: %w", err)
		}
		p.OutletType = models.OutletType(outletType)
		p.OutletSize = models.OutletSize(size)
		p.OutletLocationType = models.LocationType(tier)
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outlets: %w", err)
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("table %s has no outlets", table)
	}
	return NewTable(profiles)
}
