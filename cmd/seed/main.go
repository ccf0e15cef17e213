// Command seed loads sample categories, products, store settings and an
// admin user into the configured document store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/utafrali/storefront/internal/app"
	"github.com/utafrali/storefront/internal/config"
	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/logger"
)

func main() {
	if err := pkgconfig.LoadDotenv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if missing := missingEnv(); len(missing) > 0 {
		fmt.Fprintln(os.Stderr, "missing required environment variables:")
		for _, name := range missing {
			fmt.Fprintf(os.Stderr, "  %s\n", name)
		}
		os.Exit(1)
	}
	if err := run(); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// missingEnv lists the required variables that are unset, including the
// connection variables of the chosen driver.
func missingEnv() []string {
	required := []string{"STORE_DRIVER", "SEED_ADMIN_EMAIL"}
	switch os.Getenv("STORE_DRIVER") {
	case config.DriverPostgres:
		required = append(required, "POSTGRES_HOST", "POSTGRES_DB", "POSTGRES_USER")
	case config.DriverMongo:
		required = append(required, "MONGO_URI", "MONGO_DATABASE")
	}
	return pkgconfig.Missing(required...)
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New("storefront-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, pool, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close(context.Background())
		if pool != nil {
			pool.Close()
		}
	}()

	admin := adminAccount{
		Email:    os.Getenv("SEED_ADMIN_EMAIL"),
		Name:     os.Getenv("SEED_ADMIN_NAME"),
		Password: os.Getenv("SEED_ADMIN_PASSWORD"),
	}
	if cfg.IdentityMode == config.IdentityLocal {
		admin.BcryptCost = cfg.BcryptCost
	} else {
		admin.Password = ""
	}

	summary, err := newSeeder(store, log).seed(ctx, admin)
	if err != nil {
		return err
	}
	log.Info("seed complete",
		slog.Int("categories", summary.Categories),
		slog.Int("products", summary.Products),
		slog.String("admin_id", summary.AdminID),
	)
	if cfg.IdentityMode == config.IdentityRemote {
		log.Info("remote identity: add the admin address to ADMIN_EMAILS so its first sign-in gets the admin role",
			slog.String("email", admin.Email))
	}
	return nil
}
