// cmd/matcher-api/serve.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"scholarship-matcher/internal/api"
	"scholarship-matcher/internal/catalog"
	"scholarship-matcher/internal/ratelimit"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr, _ := cmd.Flags().GetString("address")
		return serve(cmd.Context(), addr)
	},
}

func init() {
	serveCmd.Flags().String("address", "", "listen address (overrides server.address)")
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context, addr string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr != "" {
		cfg.Server.Address = addr
	}

	log.Info("starting matcher api", map[string]interface{}{
		"version":  version,
		"address":  cfg.Server.Address,
		"provider": cfg.Catalog.Provider,
	})

	comp, err := buildComponents(ctx)
	if err != nil {
		return err
	}
	defer comp.Close(context.Background())

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
	})
	limiter.StartSweeper(ctx, cfg.RateLimit.SweepInterval)

	opts := []api.Option{
		api.WithReadinessCheck("catalog", func(ctx context.Context) error {
			return catalog.Ping(ctx, comp.provider)
		}),
		api.WithReadinessCheck("databases", comp.clients.Ping),
	}
	notifier, err := buildNotifier(ctx)
	if err != nil {
		return err
	}
	if notifier != nil {
		opts = append(opts, api.WithNotifier(notifier))
		log.Info("deadline notifications enabled", map[string]interface{}{
			"email": cfg.Notifications.Email.Enabled,
			"sms":   cfg.Notifications.SMS.Enabled,
		})
	}

	handler := api.NewHandler(api.Config{
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		TrustRemoteAddr: cfg.Server.TrustRemoteAddr,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		NotifyTimeout:   cfg.Notifications.Timeout,
	}, comp.matcher, limiter, log, opts...)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", map[string]interface{}{"address": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutdown signal received, draining requests", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
	handler.Wait()

	log.Info("matcher api stopped gracefully", nil)
	_ = log.Sync()
	return nil
}
