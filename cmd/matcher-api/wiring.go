// cmd/matcher-api/wiring.go
package main

import (
	"context"
	"fmt"

	"scholarship-matcher/internal/catalog"
	awsx "scholarship-matcher/internal/common/aws"
	"scholarship-matcher/internal/common/database"
	"scholarship-matcher/internal/common/observability"
	"scholarship-matcher/internal/matching"
	"scholarship-matcher/internal/notify"
)

// components is everything serve and match share.
type components struct {
	obs      *observability.Observability
	clients  *database.Clients
	provider catalog.Provider
	matcher  *matching.Matcher
}

func buildComponents(ctx context.Context) (*components, error) {
	obs := observability.New(cfg.App.Name, observability.WithLogger(log), observability.AsGlobal())

	clients, err := database.Open(ctx, cfg)
	if err != nil {
		obs.Shutdown(ctx)
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	provider, err := catalog.NewFromConfig(cfg, catalog.Deps{
		Clients:  clients,
		Logger:   log,
		Tracer:   obs.Tracer(),
		Recorder: obs,
	})
	if err != nil {
		_ = clients.Close()
		obs.Shutdown(ctx)
		return nil, fmt.Errorf("catalog init failed: %w", err)
	}

	matcher := matching.NewMatcher(matching.Config{
		SkipInvalidRecords: cfg.Matching.SkipInvalidRecords,
		IncludeExpired:     cfg.Matching.IncludeExpired,
		MaxResults:         cfg.Matching.MaxResults,
		ModelUsed:          cfg.Matching.ModelUsed,
	}, provider, log,
		matching.WithTracer(obs.Tracer()),
		matching.WithRecorder(obs),
	)

	return &components{obs: obs, clients: clients, provider: provider, matcher: matcher}, nil
}

func (c *components) Close(ctx context.Context) {
	if err := c.clients.Close(); err != nil {
		log.Warn("closing database clients", map[string]interface{}{"error": err.Error()})
	}
	c.obs.Shutdown(ctx)
}

// buildNotifier returns nil when no channel is enabled.
func buildNotifier(ctx context.Context) (*notify.Notifier, error) {
	nc := cfg.Notifications
	if !nc.Enabled() {
		return nil, nil
	}

	awsCfg, err := awsx.LoadConfig(ctx, nc.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("aws config load failed: %w", err)
	}

	n := notify.NewNotifier(notify.Config{
		EmailEnabled: nc.Email.Enabled,
		SMSEnabled:   nc.SMS.Enabled,
		FromEmail:    nc.Email.FromEmail,
		SenderID:     nc.SMS.SenderID,
		Timeout:      nc.Timeout,
	}, awsx.NewSESClient(awsCfg), awsx.NewSNSClient(awsCfg), log)
	return n, nil
}
