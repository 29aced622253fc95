package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/R3E-Network/appstore_gateway/internal/api"
	"github.com/R3E-Network/appstore_gateway/internal/config"
	"github.com/R3E-Network/appstore_gateway/internal/logging"
	"github.com/R3E-Network/appstore_gateway/internal/metrics"
	"github.com/R3E-Network/appstore_gateway/internal/store"
	"github.com/R3E-Network/appstore_gateway/internal/store/appstore"
	"github.com/R3E-Network/appstore_gateway/internal/store/googleplay"
)

const metricsNamespace = "appstore_gateway"

func runServe(ctx context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port != "" {
		cfg.Port = port
	}
	if basePath != "" {
		cfg.BasePath = config.NormalizeBasePath(basePath)
	}

	logger := logging.New(api.ServiceName, cfg.LogLevel, cfg.LogFormat)
	m := metrics.New(metricsNamespace)

	svc, err := buildServer(cfg, logger, m)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.BackendTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":      server.Addr,
			"base_path": cfg.BasePath,
			"version":   Version,
		}).Info("gateway listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildServer wires both store backends into the API.
func buildServer(cfg *config.Config, logger *logging.Logger, m *metrics.Metrics) (*api.Server, error) {
	gp := cfg.Stores[config.StoreGooglePlay]
	android, err := googleplay.New(googleplay.Config{
		BaseURL:  gp.BaseURL,
		Timeout:  cfg.StoreTimeout(config.StoreGooglePlay),
		Defaults: gp.Defaults,
		Fields:   gp.Fields,
	})
	if err != nil {
		return nil, err
	}

	as := cfg.Stores[config.StoreAppStore]
	ios, err := appstore.New(appstore.Config{
		BaseURL:  as.BaseURL,
		Timeout:  cfg.StoreTimeout(config.StoreAppStore),
		Defaults: as.Defaults,
		Fields:   as.Fields,
	})
	if err != nil {
		return nil, err
	}

	resolver := store.NewResolver(
		store.Instrument(store.Android, android, m, logger),
		store.Instrument(store.IOS, ios, m, logger),
	)

	return api.New(api.Config{
		Resolver:       resolver,
		Logger:         logger,
		Metrics:        m,
		BasePath:       cfg.BasePath,
		TrustProxy:     cfg.TrustProxy,
		BackendTimeout: cfg.BackendTimeout,
		CORSOrigins:    cfg.CORSOrigins,
		Version:        Version,
	}), nil
}
