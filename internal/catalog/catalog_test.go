package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-forecast/internal/common/config"
	apperrors "sales-forecast/internal/common/errors"
	"sales-forecast/internal/common/logger"
)

const identifiers = `Item_Identifier
FDA15
DRC01
FDN15
FDA15
NCD19
FDX07
`

// ==========================
// Test Helpers
// ==========================

func writeCatalog(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "item_identifiers.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

type failingSearcher struct{}

func (failingSearcher) Search(context.Context, string, int) ([]string, error) {
	return nil, errors.New("boom")
}

// fakeElasticsearch answers every request with body and records the last
// search request it saw.
func fakeElasticsearch(t *testing.T, status int, body string) (*elasticsearch.Client, *map[string]interface{}) {
	var lastQuery map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/_search") {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, &lastQuery)
		}
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es, &lastQuery
}

// ==========================
// File catalog
// ==========================

func TestFileCatalog_Search(t *testing.T) {
	fc, err := ReadCatalog(strings.NewReader(identifiers))
	require.NoError(t, err)
	assert.Equal(t, 5, fc.Len())

	tests := []struct {
		name  string
		term  string
		limit int
		want  []string
	}{
		{"case insensitive", "fd", 0, []string{"FDA15", "FDN15", "FDX07"}},
		{"substring", "15", 0, []string{"FDA15", "FDN15"}},
		{"limit", "fd", 2, []string{"FDA15", "FDN15"}},
		{"no match", "zz", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fc.Search(context.Background(), tt.term, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadCatalog_Errors(t *testing.T) {
	_, err := ReadCatalog(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadCatalog(strings.NewReader("Item_Type\nDairy\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Item_Identifier")
}

func TestReadCatalog_OtherColumnsAndBOM(t *testing.T) {
	fc, err := ReadCatalog(strings.NewReader("\ufeffItem_Type,Item_Identifier\nDairy,FDA15\nMeat,\n"))
	require.NoError(t, err)
	got, _ := fc.Search(context.Background(), "a15", 0)
	assert.Equal(t, []string{"FDA15"}, got)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

// ==========================
// Catalog
// ==========================

func TestCatalog_BlankTermMatchesNothing(t *testing.T) {
	c, err := New(config.CatalogConfig{
		Source: config.CatalogSourceFile,
		File:   writeCatalog(t, identifiers),
	}, nil, logger.NewTestLogger(t))
	require.NoError(t, err)

	for _, term := range []string{"", "   "} {
		got, err := c.Search(context.Background(), term, 10)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestCatalog_ClampsToMaxResults(t *testing.T) {
	c, err := New(config.CatalogConfig{
		Source:     config.CatalogSourceFile,
		File:       writeCatalog(t, identifiers),
		MaxResults: 1,
	}, nil, logger.NewTestLogger(t))
	require.NoError(t, err)

	got, err := c.Search(context.Background(), "fd", 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"FDA15"}, got)
}

func TestCatalog_NoneSource(t *testing.T) {
	c, err := New(config.CatalogConfig{Source: config.CatalogSourceNone}, nil, logger.NewTestLogger(t))
	require.NoError(t, err)

	got, err := c.Search(context.Background(), "fd", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)
}

func TestCatalog_WrapsSearchErrors(t *testing.T) {
	c := NewCatalog(failingSearcher{}, "test", 0, logger.NewTestLogger(t))
	_, err := c.Search(context.Background(), "fd", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSearchQueryFailed))
}

func TestNew_Errors(t *testing.T) {
	log := logger.NewTestLogger(t)

	_, err := New(config.CatalogConfig{Source: "ftp"}, nil, log)
	assert.Error(t, err)

	_, err = New(config.CatalogConfig{Source: config.CatalogSourceElasticsearch}, nil, log)
	assert.Error(t, err)
}

// ==========================
// Elasticsearch catalog
// ==========================

func TestElasticsearchCatalog_Search(t *testing.T) {
	es, lastQuery := fakeElasticsearch(t, http.StatusOK, `{
		"took": 1,
		"hits": {"total": {"value": 2}, "hits": [
			{"_source": {"Item_Identifier": "FDA15"}},
			{"_source": {"Item_Identifier": "FDN15"}}
		]}
	}`)

	c := NewCatalog(NewElasticsearchCatalog(es, "items"), config.CatalogSourceElasticsearch, 10, logger.NewTestLogger(t))
	got, err := c.Search(context.Background(), "a*15", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"FDA15", "FDN15"}, got)

	require.NotNil(t, *lastQuery)
	assert.EqualValues(t, 5, (*lastQuery)["size"])
	wildcard := (*lastQuery)["query"].(map[string]interface{})["wildcard"].(map[string]interface{})
	field := wildcard["Item_Identifier"].(map[string]interface{})
	assert.Equal(t, `*a\*15*`, field["value"])
	assert.Equal(t, true, field["case_insensitive"])
}

func TestElasticsearchCatalog_ErrorStatus(t *testing.T) {
	es, _ := fakeElasticsearch(t, http.StatusNotFound, `{"error": {"type": "index_not_found_exception"}}`)

	_, err := NewElasticsearchCatalog(es, "items").Search(context.Background(), "fd", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestElasticsearchCatalog_RequiresIndex(t *testing.T) {
	es, _ := fakeElasticsearch(t, http.StatusOK, `{}`)
	_, err := NewElasticsearchCatalog(es, "").Search(context.Background(), "fd", 5)
	assert.Error(t, err)
}
