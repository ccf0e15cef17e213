package postgres

import (
	"context"
	"embed"
	"log/slog"

	"github.com/utafrali/storefront/pkg/database"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate creates the documents table.
func Migrate(ctx context.Context, db database.DBTX, logger *slog.Logger) error {
	return database.RunMigrations(ctx, db, migrations, "migrations", logger)
}
