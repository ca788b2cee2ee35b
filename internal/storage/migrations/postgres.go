package migrations

import (
	"context"
	"fmt"
	"strings"

	"graduation-scanner/internal/storage/postgres"
)

// RunPostgresMigrations applies all embedded SQL files in lexical order.
// Migrations are idempotent, so this runs on every start.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	names, contents, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for i, name := range names {
		if strings.TrimSpace(contents[i]) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, contents[i]); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	return nil
}
