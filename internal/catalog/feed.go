// internal/catalog/feed.go
package catalog

import (
	"context"
	"fmt"

	"scholarship-matcher/internal/common/http"
	"scholarship-matcher/internal/models"
	"scholarship-matcher/pkg/registry"
)

const ProviderFeed = "feed"

// FeedProvider pulls the catalog from an upstream JSON feed. The feed may be
// a bare array of records or an object with a "scholarships" array.
type FeedProvider struct {
	client *http.Client
	url    string
}

func NewFeedProvider(client *http.Client, url string) *FeedProvider {
	return &FeedProvider{client: client, url: url}
}

func (p *FeedProvider) Name() string { return ProviderFeed }

func (p *FeedProvider) Fetch(ctx context.Context) ([]models.ScholarshipRecord, error) {
	var raw []byte
	if err := p.client.GetJSON(ctx, p.url, &raw); err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	file, err := registry.ParseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return file.Scholarships, nil
}
