// Package catalog supplies the scholarship records a match pass runs over.
// The matcher only sees the Provider interface; where the records come from
// is decided once at startup by NewFromConfig.
package catalog

import (
	"context"
	"fmt"
	"time"

	"scholarship-matcher/internal/common/config"
	"scholarship-matcher/internal/common/database"
	"scholarship-matcher/internal/common/http"
	"scholarship-matcher/internal/common/logger"
	"scholarship-matcher/internal/models"

	"go.opentelemetry.io/otel/trace"
)

// Provider fetches the current catalog.
type Provider interface {
	Fetch(ctx context.Context) ([]models.ScholarshipRecord, error)
	Name() string
}

// Pinger is implemented by providers backed by a remote store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks p if it is a Pinger and succeeds otherwise.
func Ping(ctx context.Context, p Provider) error {
	if pinger, ok := p.(Pinger); ok {
		return pinger.Ping(ctx)
	}
	return nil
}

// Deps are the shared resources NewFromConfig may wire into a provider.
type Deps struct {
	Clients  *database.Clients
	Logger   logger.Logger
	Tracer   trace.Tracer
	Recorder FetchRecorder
	Now      func() time.Time
}

// NewFromConfig builds the provider named by cfg.Catalog.Provider, wraps it
// in the Redis cache when enabled and instruments the result.
func NewFromConfig(cfg *config.Config, deps Deps) (Provider, error) {
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	cc := cfg.Catalog

	var (
		p   Provider
		err error
	)
	switch cc.Provider {
	case config.ProviderStatic, "":
		p, err = NewStaticProvider(cc.SeedFile, deps.Now)
	case config.ProviderPostgres:
		if deps.Clients == nil || deps.Clients.Postgres == nil {
			return nil, fmt.Errorf("catalog provider %q needs a postgres connection", cc.Provider)
		}
		p = NewPostgresProvider(deps.Clients.Postgres.DB, cc.MaxSize)
	case config.ProviderElasticsearch:
		if deps.Clients == nil || deps.Clients.Elasticsearch == nil {
			return nil, fmt.Errorf("catalog provider %q needs an elasticsearch client", cc.Provider)
		}
		p = NewElasticsearchProvider(deps.Clients.Elasticsearch.Client, cc.Index, cc.MaxSize)
	case config.ProviderFeed:
		p = NewFeedProvider(http.NewClient(cc.Timeout), cc.FeedURL)
	default:
		return nil, fmt.Errorf("unknown catalog provider %q", cc.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cc.Cache.Enabled {
		if deps.Clients == nil || deps.Clients.Redis == nil {
			return nil, fmt.Errorf("catalog cache needs a redis connection")
		}
		p = NewCachedProvider(p, deps.Clients.Redis.Client, cc.Cache.Prefix, cc.Cache.TTL, deps.Logger)
	}

	deps.Logger.Info("catalog provider ready", map[string]interface{}{
		"provider": p.Name(),
		"cached":   cc.Cache.Enabled,
	})

	return Instrument(p, deps.Tracer, deps.Recorder, deps.Logger), nil
}
