// Package main applies pending schema migrations to the trades database.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"solana-wallet-sync/internal/storage/migrations"
	"solana-wallet-sync/internal/storage/postgres"
)

func main() {
	loadEnvFile()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	timeout := flag.Duration("timeout", 2*time.Minute, "Migration timeout")

	flag.Parse()

	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.Lshortfile)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	start := time.Now()
	if err := migrations.RunPostgres(ctx, pool); err != nil {
		logger.Fatalf("Migration failed: %v", err)
	}
	logger.Printf("Migrations up to date in %v", time.Since(start).Round(time.Millisecond))
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
