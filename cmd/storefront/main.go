package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shoplane/storefront-core/api"
	"github.com/shoplane/storefront-core/api/routes"
	"github.com/shoplane/storefront-core/pkg/config"
	"github.com/shoplane/storefront-core/pkg/kv"
	"github.com/shoplane/storefront-core/pkg/logger"
	"github.com/shoplane/storefront-core/pkg/metrics"
	"github.com/shoplane/storefront-core/pkg/storeapi"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	kvStore, closeKV, err := buildKV(cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap session storage", err)
		os.Exit(1)
	}
	defer closeKV()

	remote, err := storeapi.NewClient(
		cfg.Remote.CartAPIURL,
		storeapi.WithOrderBaseURL(cfg.Remote.OrderBaseURL()),
		storeapi.WithTimeout(cfg.Remote.Timeout),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to build remote client", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewStorefrontMetrics(promRegistry)

	registry, err := api.NewRegistry(remote, kvStore, logg, m, cfg.Checkout.Currency)
	if err != nil {
		logg.Error(context.Background(), "failed to build storefront registry", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting storefront server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, registry, kvStore, m, promRegistry),
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "storefront server stopped unexpectedly", err)
			os.Exit(1)
		}
	}()

	<-done
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "storefront server stopped")
}

func buildKV(cfg *config.Config, logg *logger.Logger) (kv.Store, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.KV.Backend)) {
	case config.KVBackendRedis:
		client, err := kv.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {
			if err := client.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}, nil
	case config.KVBackendMemory:
		return kv.NewMemory(), func() {}, nil
	default:
		store, err := kv.NewFile(cfg.KV.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}
