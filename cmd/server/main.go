// Workshop - Workshop Management Authentication Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/workshop

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/workshop/internal/api"
	"github.com/tomtom215/workshop/internal/auth"
	"github.com/tomtom215/workshop/internal/authz"
	"github.com/tomtom215/workshop/internal/config"
	"github.com/tomtom215/workshop/internal/logging"
	"github.com/tomtom215/workshop/internal/supervisor"
	"github.com/tomtom215/workshop/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("store", cfg.Store.Backend).
		Bool("events", cfg.Events.Enabled).
		Msg("Starting Workshop authentication server")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, err := openStores(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open credential stores: %w", err)
	}
	defer func() {
		if err := stores.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing credential store")
		}
	}()

	codec, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret:   []byte(cfg.Security.Token.Secret),
		Issuer:   cfg.Security.Token.Issuer,
		Audience: cfg.Security.Token.Audience,
		TTL:      cfg.Security.Token.TTL,
	})
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}

	cookies := auth.NewCookieManager(auth.CookieConfig{
		Name:     cfg.Security.Cookie.Name,
		Domain:   cfg.Security.Cookie.Domain,
		Path:     cfg.Security.Cookie.Path,
		TTL:      cfg.Security.Cookie.TTL,
		Secure:   cfg.Security.Cookie.Secure,
		SameSite: auth.ParseSameSite(cfg.Security.Cookie.SameSite),
	})

	evaluator, err := authz.NewEvaluator(authz.EvaluatorConfig{
		PolicyPath:    cfg.Security.Authz.PolicyPath,
		SecuredPrefix: cfg.Security.SecuredPath,
		CacheEnabled:  cfg.Security.Authz.CacheEnabled,
		CacheTTL:      cfg.Security.Authz.CacheTTL,
		CacheSize:     cfg.Security.Authz.CacheSize,
	})
	if err != nil {
		return fmt.Errorf("authz evaluator: %w", err)
	}
	defer evaluator.Close()

	security := logging.NewSecurityLogger()
	sink, bus := newEventSink(cfg.Events, security)
	if bus != nil {
		defer func() {
			if err := bus.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing event bus")
			}
		}()
	}

	router, err := api.NewRouter(cfg, api.Dependencies{
		Authenticator: newAuthenticator(stores),
		Codec:         codec,
		Cookies:       cookies,
		Evaluator:     evaluator,
		Events:        sink,
		Security:      security,
		HealthChecks:  healthChecks(stores, bus),
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       2 * cfg.Server.ReadTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	if err != nil {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	if bus != nil {
		tree.AddMessagingService(services.NewEventBusService(bus))
		logging.Info().Str("topic", bus.Topic()).Msg("Event bus service added")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	errCh := tree.ServeBackground(ctx)

	// errCh yields exactly one value, when the root supervisor returns.
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
		cancel()
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}
	return nil
}
