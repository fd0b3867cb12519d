package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"sales-forecast/internal/models"
)

// ElasticsearchCatalog searches an index whose documents carry an
// Item_Identifier keyword field.
type ElasticsearchCatalog struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchCatalog(client *elasticsearch.Client, index string) *ElasticsearchCatalog {
	return &ElasticsearchCatalog{client: client, index: index}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func buildSearchQuery(term string, limit int) map[string]interface{} {
	return map[string]interface{}{
		"size":    limit,
		"_source": []string{models.ColItemIdentifier},
		"query": map[string]interface{}{
			"wildcard": map[string]interface{}{
				models.ColItemIdentifier: map[string]interface{}{
					"value":            "*" + wildcardEscaper.Replace(term) + "*",
					"case_insensitive": true,
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{models.ColItemIdentifier: "asc"},
		},
	}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (c *ElasticsearchCatalog) Search(ctx context.Context, term string, limit int) ([]string, error) {
	if c.index == "" {
		return nil, fmt.Errorf("index name is required")
	}

	body, err := json.Marshal(buildSearchQuery(term, limit))
	if err != nil {
		return nil, err
	}

	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", c.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", c.index, res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		if id, ok := hit.Source[models.ColItemIdentifier].(string); ok && id != "" {
			items = append(items, id)
		}
	}
	return items, nil
}
