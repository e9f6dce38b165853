package migrations

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"solana-wallet-sync/internal/storage"
	"solana-wallet-sync/internal/storage/postgres"
)

// schemaVersionDDL bootstraps the bookkeeping table the runner records
// applied migrations in.
const schemaVersionDDL = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version           TEXT PRIMARY KEY,
		description       TEXT NOT NULL,
		script            TEXT NOT NULL,
		checksum          TEXT NOT NULL,
		execution_time_ms BIGINT NOT NULL,
		success           BOOLEAN NOT NULL,
		installed_on      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// appliedMigration is one row of schema_version.
type appliedMigration struct {
	Version  string
	Checksum string
}

// RunPostgres applies all embedded SQL files in lexical order, tracking
// them in schema_version. Already-applied migrations are skipped after a
// checksum comparison; a mismatch means the file changed after it was
// applied and aborts the run.
func RunPostgres(ctx context.Context, pool *postgres.Pool) error {
	if _, err := pool.Exec(ctx, schemaVersionDDL); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	applied, err := loadApplied(ctx, pool)
	if err != nil {
		return err
	}

	files, err := listMigrationFiles()
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := fs.ReadFile(PostgresFS, "postgres/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}

		version := migrationVersion(file)
		checksum := migrationChecksum(data)

		if prior, ok := applied[version]; ok {
			if prior.Checksum != checksum {
				return fmt.Errorf("checksum mismatch for migration %s: file changed after it was applied", file)
			}
			continue
		}

		start := time.Now()
		if err := applyOne(ctx, pool, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		elapsed := time.Since(start)

		if err := recordApplied(ctx, pool, version, file, checksum, elapsed); err != nil {
			return err
		}
	}

	return nil
}

// applyOne runs a single migration inside its own transaction.
func applyOne(ctx context.Context, pool *postgres.Pool, sql string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, sql); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func loadApplied(ctx context.Context, pool *postgres.Pool) (map[string]appliedMigration, error) {
	rows, err := pool.Query(ctx, `SELECT version, checksum FROM schema_version ORDER BY installed_on ASC`)
	if err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]appliedMigration)
	for rows.Next() {
		var m appliedMigration
		if err := rows.Scan(&m.Version, &m.Checksum); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[m.Version] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}

	return applied, nil
}

func recordApplied(ctx context.Context, pool *postgres.Pool, version, script, checksum string, elapsed time.Duration) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO schema_version (version, description, script, checksum, execution_time_ms, success)
		VALUES ($1, $2, $3, $4, $5, TRUE)
	`, version, migrationDescription(script), script, checksum, elapsed.Milliseconds())
	if postgres.IsDuplicateKeyError(err) {
		// A concurrent runner got there first.
		return fmt.Errorf("record migration %s: %w", script, storage.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("record migration %s: %w", script, err)
	}
	return nil
}

func listMigrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(PostgresFS, "postgres")
	if err != nil {
		return nil, fmt.Errorf("read embedded postgres migrations: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	return files, nil
}

// migrationVersion extracts the numeric prefix of "001_create_trades.sql".
func migrationVersion(file string) string {
	if idx := strings.Index(file, "_"); idx > 0 {
		return file[:idx]
	}
	return strings.TrimSuffix(file, ".sql")
}

// migrationDescription turns "001_create_trades.sql" into "create trades".
func migrationDescription(file string) string {
	name := strings.TrimSuffix(file, ".sql")
	if idx := strings.Index(name, "_"); idx > 0 {
		name = name[idx+1:]
	}
	return strings.ReplaceAll(name, "_", " ")
}

func migrationChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
