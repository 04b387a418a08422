// internal/catalog/elasticsearch.go
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"scholarship-matcher/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

const ProviderElasticsearch = "elasticsearch"

// ElasticsearchProvider reads the catalog from an index whose documents are
// scholarship records in their JSON form.
type ElasticsearchProvider struct {
	client *elasticsearch.Client
	index  string
	size   int
}

func NewElasticsearchProvider(client *elasticsearch.Client, index string, size int) *ElasticsearchProvider {
	if size <= 0 {
		size = 500
	}
	return &ElasticsearchProvider{client: client, index: index, size: size}
}

func (p *ElasticsearchProvider) Name() string { return ProviderElasticsearch }

func (p *ElasticsearchProvider) Ping(ctx context.Context) error {
	res, err := p.client.Ping(p.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (p *ElasticsearchProvider) Fetch(ctx context.Context) ([]models.ScholarshipRecord, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must_not": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"active": false}},
				},
			},
		},
		"size": p.size,
	}
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(query); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := p.client.Search(
		p.client.Search.WithContext(ctx),
		p.client.Search.WithIndex(p.index),
		p.client.Search.WithBody(&body),
	)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", p.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, fmt.Errorf("search %s: %s: %s", p.index, res.Status(), bytes.TrimSpace(msg))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	records := make([]models.ScholarshipRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		var rec models.ScholarshipRecord
		if err := json.Unmarshal(hit.Source, &rec); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", hit.ID, err)
		}
		if rec.ID == "" {
			rec.ID = hit.ID
		}
		records = append(records, rec)
	}
	return records, nil
}
