// Command backendd runs the reference cart and order services backed by
// sqlite. It exists so the storefront can be exercised end to end without
// an external commerce platform.
package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shoplane/storefront-core/internal/backend"
	"github.com/shoplane/storefront-core/pkg/env"
	"github.com/shoplane/storefront-core/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "backendd"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	dsn := env.Get("BACKEND_SQLITE_PATH", "backend.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		logg.Error(context.Background(), "failed to open database", err)
		os.Exit(1)
	}

	if err := backend.Migrate(db); err != nil {
		logg.Error(context.Background(), "failed to migrate schema", err)
		os.Exit(1)
	}
	if err := backend.SeedProducts(db, defaultCatalog()); err != nil {
		logg.Error(context.Background(), "failed to seed catalog", err)
		os.Exit(1)
	}

	currency := env.Get("BACKEND_CURRENCY", "USD")
	svc, err := backend.NewService(db, backend.NewRepository(db), logg, currency)
	if err != nil {
		logg.Error(context.Background(), "failed to build backend service", err)
		os.Exit(1)
	}

	port := env.Get("PORT", "9090")
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{"addr": addr})
	logg.Info(ctx, "starting backend server")

	server := &http.Server{
		Addr:    addr,
		Handler: backend.Router(svc, logg),
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "backend server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func defaultCatalog() []backend.Product {
	return []backend.Product{
		{ID: "sku-cap", Name: "Canvas Cap", PriceCents: 1899},
		{ID: "sku-tee", Name: "Logo Tee", PriceCents: 2500},
		{ID: "sku-hoodie", Name: "Zip Hoodie", PriceCents: 5499},
		{ID: "sku-mug", Name: "Enamel Mug", PriceCents: 1250},
		{ID: "sku-tote", Name: "Daily Tote", PriceCents: 1999},
	}
}
