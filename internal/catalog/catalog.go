// Package catalog searches the known item identifiers for the prediction form.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"sales-forecast/internal/common/config"
	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/common/metrics"
)

const defaultMaxResults = 50

// Searcher finds identifiers containing term, ignoring case, returning at most
// limit of them.
type Searcher interface {
	Search(ctx context.Context, term string, limit int) ([]string, error)
}

// Catalog applies the result cap and records search metrics around a Searcher.
type Catalog struct {
	searcher   Searcher
	source     string
	maxResults int
	logger     logger.Logger
}

func NewCatalog(searcher Searcher, source string, maxResults int, log logger.Logger) *Catalog {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &Catalog{
		searcher:   searcher,
		source:     source,
		maxResults: maxResults,
		logger:     log.WithComponent("catalog"),
	}
}

// New builds the catalog selected by cfg. The Elasticsearch source needs es.
func New(cfg config.CatalogConfig, es *elasticsearch.Client, log logger.Logger) (*Catalog, error) {
	var searcher Searcher
	switch cfg.Source {
	case config.CatalogSourceFile:
		fc, err := LoadFile(cfg.File)
		if err != nil {
			return nil, err
		}
		log.Info("item catalog loaded", map[string]interface{}{
			"file":  cfg.File,
			"items": fc.Len(),
		})
		searcher = fc
	case config.CatalogSourceElasticsearch:
		if es == nil {
			return nil, fmt.Errorf("catalog source %s needs an elasticsearch client", cfg.Source)
		}
		searcher = NewElasticsearchCatalog(es, cfg.Index)
	case config.CatalogSourceNone, "":
		searcher = empty{}
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
	return NewCatalog(searcher, cfg.Source, cfg.MaxResults, log), nil
}

// Search returns the identifiers containing term. A blank term matches nothing.
// limit is clamped to the configured maximum.
func (c *Catalog) Search(ctx context.Context, term string, limit int) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []string{}, nil
	}
	if limit <= 0 || limit > c.maxResults {
		limit = c.maxResults
	}

	items, err := c.searcher.Search(ctx, term, limit)
	if err != nil {
		metrics.ItemSearches.WithLabelValues(c.source, "error").Inc()
		c.logger.Warn("item search failed", map[string]interface{}{
			"term":  term,
			"error": err.Error(),
		})
		return nil, apperrors.NewSearchQueryFailedError(err)
	}
	metrics.ItemSearches.WithLabelValues(c.source, "ok").Inc()

	if items == nil {
		items = []string{}
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (c *Catalog) Source() string {
	return c.source
}

type empty struct{}

func (empty) Search(context.Context, string, int) ([]string, error) {
	return nil, nil
}
