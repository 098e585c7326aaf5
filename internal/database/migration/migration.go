package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

// sentinelTable is created by the last step; its presence means the schema is in place.
const sentinelTable = "public.analyses"

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_datasets",
		SQL: `CREATE TABLE IF NOT EXISTS datasets (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name         TEXT        NOT NULL,
  filename     TEXT        NOT NULL,
  storage_path TEXT        NOT NULL UNIQUE,
  row_count    INTEGER     NOT NULL CHECK (row_count >= 0),
  column_count INTEGER     NOT NULL CHECK (column_count >= 0),
  column_names JSONB       NOT NULL DEFAULT '[]'::jsonb,
  size         BIGINT      NOT NULL CHECK (size >= 0),
  content_type TEXT        NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_datasets_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_datasets_name ON datasets (name);`,
	},
	{
		Name: "create_index_datasets_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_datasets_created_at ON datasets (created_at);`,
	},
	{
		Name: "create_table_analyses",
		SQL: `CREATE TABLE IF NOT EXISTS analyses (
  id                  UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  kind                TEXT        NOT NULL,
  status              TEXT        NOT NULL,
  dataset_ids         JSONB       NOT NULL DEFAULT '[]'::jsonb,
  params              JSONB       NOT NULL DEFAULT '{}'::jsonb,
  summary             JSONB,
  report_path         TEXT        NOT NULL DEFAULT '',
  report_content_type TEXT        NOT NULL DEFAULT '',
  error               TEXT        NOT NULL DEFAULT '',
  created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
  finished_at         TIMESTAMPTZ
);`,
	},
	{
		Name: "create_index_analyses_kind_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_analyses_kind_status ON analyses (kind, status);`,
	},
	{
		Name: "create_index_analyses_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses (created_at);`,
	},
}

// EnsureMigrated checks if the 'analyses' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *slog.Logger, dbHost string) error {
	start := time.Now()
	log = log.With("component", "database", "db_host", dbHost)

	log.Info("db migration check", "event", "db_migration_check", "status", "starting")

	var exists bool
	query := "SELECT to_regclass($1) IS NOT NULL"
	if err := db.QueryRowContext(ctx, query, sentinelTable).Scan(&exists); err != nil {
		log.Error("db migration failed",
			"event", "db_migration_failed",
			"status", "error",
			"error_message", fmt.Sprintf("failed to check sentinel table: %v", err),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Info("schema already exists, skipping migration",
			"event", "db_migration_skip",
			"status", "success",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	log.Info("db migration start", "event", "db_migration_start", "status", "in_progress")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("db migration failed",
				"event", "db_migration_failed",
				"status", "error",
				"migration_step", step.Name,
				"error_message", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Debug("db migration step",
			"event", "db_migration_step",
			"status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	log.Info("db migration success",
		"event", "db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}
