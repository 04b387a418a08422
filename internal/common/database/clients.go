// internal/common/database/clients.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scholarship-matcher/internal/common/config"
)

// Clients holds the backing stores the configured catalog needs. Fields
// the configuration does not call for stay nil.
type Clients struct {
	Postgres      *PostgresClient
	Elasticsearch *ElasticsearchClient
	Redis         *RedisClient
}

// Open connects to the stores selected by cfg.Catalog and pings each one.
// On failure everything opened so far is closed again.
func Open(ctx context.Context, cfg *config.Config) (*Clients, error) {
	c := &Clients{}

	switch cfg.Catalog.Provider {
	case config.ProviderPostgres:
		pg, err := NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		c.Postgres = pg
	case config.ProviderElasticsearch:
		es, err := NewElasticsearch(cfg.Database.Elasticsearch, nil)
		if err != nil {
			return nil, err
		}
		c.Elasticsearch = es
	}

	if cfg.Catalog.Cache.Enabled {
		c.Redis = NewRedis(cfg.Database.Redis)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// Ping checks every open store.
func (c *Clients) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.Postgres != nil {
		if err := c.Postgres.Ping(ctx); err != nil {
			return err
		}
	}
	if c.Elasticsearch != nil {
		if err := c.Elasticsearch.Ping(ctx); err != nil {
			return err
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Clients) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Postgres != nil {
		if err := c.Postgres.Close(); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
