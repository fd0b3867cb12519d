package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-forecast/internal/models"
)

func newStubServer(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second)
}

func TestPredictSingle(t *testing.T) {
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/predictions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"Outlet_Identifier":"OUT049"`)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Item_Outlet_Sales":22500,"Item_Outlet_Sales_Rounded":22500,` +
			`"display":"Item_Outlet_Sales = R$ 22,500.00","outlet":{"Outlet_Identifier":"OUT049","Outlet_Years":24}}`))
	})

	res, err := client.PredictSingle(context.Background(), models.PredictionRequest{
		OutletIdentifier: "OUT049",
		ItemMRP:          150,
	})
	require.NoError(t, err)
	assert.Equal(t, 22500.0, res.ItemOutletSales)
	assert.Equal(t, "Item_Outlet_Sales = R$ 22,500.00", res.Display)
	assert.Equal(t, 24, res.Outlet.OutletYears)
}

func TestErrorEnvelope(t *testing.T) {
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"code":"UNKNOWN_OUTLET","message":"unknown outlet identifier \"OUT999\""}}`))
	})

	_, err := client.PredictSingle(context.Background(), models.PredictionRequest{OutletIdentifier: "OUT999"})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.Status)
	assert.Equal(t, "UNKNOWN_OUTLET", statusErr.Code)
	assert.Contains(t, err.Error(), "OUT999")
}

func TestErrorWithoutEnvelope(t *testing.T) {
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := client.Outlets(context.Background())
	assert.EqualError(t, err, "server answered 502")
}

func TestPredictBatchAndDownload(t *testing.T) {
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/predictions/batch":
			assert.Equal(t, "text/csv", r.Header.Get("Content-Type"))
			_, _ = w.Write([]byte(`{"batch_id":"b1","rows":1,"failed":0,` +
				`"predictions":[{"Outlet_Identifier":"OUT010","Item_Identifier":"FDA01","Item_Outlet_Sales":9}],` +
				`"failures":[],"download_url":"/api/v1/predictions/batch/b1/download"}`))
		case "/api/v1/predictions/batch/b1/download":
			_, _ = w.Write([]byte("Outlet_Identifier,Item_Identifier,Item_Outlet_Sales\nOUT010,FDA01,9.00\n"))
		default:
			http.NotFound(w, r)
		}
	})

	res, err := client.PredictBatch(context.Background(), []byte("Outlet_Identifier,Item_MRP\nOUT010,3\n"))
	require.NoError(t, err)
	assert.Equal(t, "b1", res.BatchID)
	require.Len(t, res.Predictions, 1)
	assert.Equal(t, 9.0, res.Predictions[0].ItemOutletSales)

	data, err := client.Download(context.Background(), res.DownloadURL)
	require.NoError(t, err)
	assert.Contains(t, string(data), "OUT010,FDA01,9.00")
}

func TestSearchItems(t *testing.T) {
	client := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fd a", r.URL.Query().Get("search"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"items":["FDA01"],"source":"file"}`))
	})

	items, err := client.SearchItems(context.Background(), "fd a", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"FDA01"}, items)
}
