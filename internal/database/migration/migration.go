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

// seq orders rows by insertion so listings stay newest first even when created_at ties.
var steps = []migrationStep{
	{
		Name: "create_table_standard_documents",
		SQL: `CREATE TABLE IF NOT EXISTS standard_documents (
  seq          BIGSERIAL   PRIMARY KEY,
  id           TEXT        NOT NULL UNIQUE,
  name         TEXT        NOT NULL CHECK (char_length(name) BETWEEN 1 AND 128),
  type         TEXT        NOT NULL CHECK (type IN ('NATIONAL', 'INDUSTRY', 'REGIONAL')),
  creator      TEXT        NOT NULL,
  file_name    TEXT,
  file_size    BIGINT      CHECK (file_size >= 0),
  storage_path TEXT        UNIQUE,
  content_type TEXT,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_standard_documents_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_standard_documents_name ON standard_documents (lower(name));`,
	},
	{
		Name: "create_index_standard_documents_creator",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_standard_documents_creator ON standard_documents (lower(creator));`,
	},
	{
		Name: "create_index_standard_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_standard_documents_created_at ON standard_documents (created_at);`,
	},
}

// EnsureMigrated checks if the 'standard_documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, logger *slog.Logger, dbHost string) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "database", "db_host", dbHost)
	start := time.Now()

	logger.Info("db_migration_check", "status", "starting")

	var exists bool
	query := "SELECT to_regclass('public.standard_documents') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		logger.Error("db_migration_failed",
			"status", "error",
			"error_message", fmt.Sprintf("failed to check sentinel table: %v", err),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logger.Info("db_migration_skip",
			"status", "success",
			"detail", "schema already exists, skipping migration",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}

	logger.Info("db_migration_start", "status", "in_progress")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logger.Error("db_migration_failed",
				"status", "error",
				"migration_step", step.Name,
				"error_message", err.Error(),
				"duration_ms", time.Since(start).Milliseconds(),
				"step_duration_ms", time.Since(stepStart).Milliseconds(),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logger.Info("db_migration_step",
			"status", "success",
			"migration_step", step.Name,
			"step_duration_ms", time.Since(stepStart).Milliseconds(),
		)
	}

	logger.Info("db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}
