package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newElasticServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *elasticsearch.Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client
}

func TestElasticsearchProvider_Fetch(t *testing.T) {
	var gotPath string
	var gotQuery map[string]interface{}

	client := newElasticServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotQuery)
		_, _ = w.Write([]byte(`{
			"hits": {"hits": [
				{"_id": "doc-1", "_source": {"id": "merit-1", "name": "Merit", "applicationDeadline": "2026-12-31",
					"eligibilityCriteria": {"minGPA": 3.5, "gradeLevel": ["undergraduate"]}, "tags": ["academic"]}},
				{"_id": "doc-2", "_source": {"name": "No Id", "applicationDeadline": "2026-10-01"}}
			]}
		}`))
	})

	p := NewElasticsearchProvider(client, "scholarships", 25)
	records, err := p.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/scholarships/_search", gotPath)
	assert.Equal(t, float64(25), gotQuery["size"])

	require.Len(t, records, 2)
	assert.Equal(t, "merit-1", records[0].ID)
	assert.True(t, records[0].EligibilityCriteria.HasGradeLevels())
	assert.Equal(t, "doc-2", records[1].ID)
	assert.Equal(t, "2026-10-01", records[1].ApplicationDeadline.String())
}

func TestElasticsearchProvider_ErrorStatus(t *testing.T) {
	client := newElasticServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"}}`))
	})

	_, err := NewElasticsearchProvider(client, "missing", 0).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "index_not_found_exception"), err.Error())
}

func TestElasticsearchProvider_BadDocument(t *testing.T) {
	client := newElasticServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_id":"x","_source":{"applicationDeadline":"whenever"}}]}}`))
	})

	_, err := NewElasticsearchProvider(client, "scholarships", 10).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode document x")
}

func TestElasticsearchProvider_Ping(t *testing.T) {
	client := newElasticServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	assert.NoError(t, NewElasticsearchProvider(client, "scholarships", 10).Ping(context.Background()))
}
