package main

import (
	"context"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"sales-forecast/internal/batch"
	"sales-forecast/internal/catalog"
	"sales-forecast/internal/common/config"
	"sales-forecast/internal/common/database"
	fhttp "sales-forecast/internal/common/http"
	"sales-forecast/internal/common/logger"
	"sales-forecast/internal/forecast"
	"sales-forecast/internal/forecast/model"
	"sales-forecast/internal/forecast/outlets"
	"sales-forecast/internal/models"
	"sales-forecast/internal/notify"
	"sales-forecast/internal/store"
)

// backend is what every command runs against.
type backend interface {
	PredictSingle(ctx context.Context, req models.PredictionRequest) (*models.SingleResponse, error)
	// PredictBatch returns the API summary and the result CSV.
	PredictBatch(ctx context.Context, contents []byte) (*models.BatchResponse, []byte, error)
	Outlets(ctx context.Context) ([]models.OutletProfile, error)
	SearchItems(ctx context.Context, term string, limit int) ([]string, error)
}

func openBackend(g *globalFlags) (backend, error) {
	if g.server != "" {
		return &remoteBackend{client: fhttp.NewClient(g.server, g.timeout)}, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFromFile(g.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	return newLocalBackend(cfg)
}

// ==========================
// Remote
// ==========================

type remoteBackend struct {
	client *fhttp.Client
}

func (r *remoteBackend) PredictSingle(ctx context.Context, req models.PredictionRequest) (*models.SingleResponse, error) {
	return r.client.PredictSingle(ctx, req)
}

func (r *remoteBackend) PredictBatch(ctx context.Context, contents []byte) (*models.BatchResponse, []byte, error) {
	resp, err := r.client.PredictBatch(ctx, contents)
	if err != nil {
		return nil, nil, err
	}
	csvData, err := r.client.Download(ctx, resp.DownloadURL)
	if err != nil {
		return nil, nil, fmt.Errorf("download %s: %w", resp.BatchID, err)
	}
	return resp, csvData, nil
}

func (r *remoteBackend) Outlets(ctx context.Context) ([]models.OutletProfile, error) {
	return r.client.Outlets(ctx)
}

func (r *remoteBackend) SearchItems(ctx context.Context, term string, limit int) ([]string, error) {
	return r.client.SearchItems(ctx, term, limit)
}

// ==========================
// In-process
// ==========================

type localBackend struct {
	pipeline *forecast.Pipeline
	batch    *batch.Service
	catalog  *catalog.Catalog
}

// newLocalBackend builds the pipeline from cfg. Outlet tables in postgres need a
// server; results are kept in memory and no notifications are sent.
func newLocalBackend(cfg *config.Config) (*localBackend, error) {
	log := logger.NewNoOpLogger()

	if cfg.Outlets.Source == config.OutletSourcePostgres {
		return nil, fmt.Errorf("outlets.source postgres is only served by forecast-server; use --server")
	}
	table, err := outlets.Load(context.Background(), cfg.Outlets, nil, log)
	if err != nil {
		return nil, err
	}

	pipeline := forecast.NewPipeline(table, model.NewProvider(cfg.Model, log), log,
		forecast.WithBatchConfig(cfg.Batch))
	svc := batch.NewService(pipeline, store.NewMemoryStore(time.Hour), notify.Noop{}, cfg.Batch, log, nil)

	var es *elasticsearch.Client
	if cfg.Catalog.Source == config.CatalogSourceElasticsearch {
		client, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, err
		}
		es = client.Client
	}
	items, err := catalog.New(cfg.Catalog, es, log)
	if err != nil {
		return nil, err
	}

	return &localBackend{pipeline: pipeline, batch: svc, catalog: items}, nil
}

func (l *localBackend) PredictSingle(ctx context.Context, req models.PredictionRequest) (*models.SingleResponse, error) {
	res, err := l.pipeline.PredictSingle(ctx, req)
	if err != nil {
		return nil, err
	}
	out := forecast.Present(res)
	return &out, nil
}

func (l *localBackend) PredictBatch(ctx context.Context, contents []byte) (*models.BatchResponse, []byte, error) {
	out, err := l.batch.Run(ctx, contents)
	if err != nil {
		return nil, nil, err
	}
	resp := out.Response()
	return &resp, out.CSV, nil
}

func (l *localBackend) Outlets(context.Context) ([]models.OutletProfile, error) {
	return l.pipeline.Outlets().Profiles(), nil
}

func (l *localBackend) SearchItems(ctx context.Context, term string, limit int) ([]string, error) {
	return l.catalog.Search(ctx, term, limit)
}
