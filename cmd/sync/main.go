// Package main runs a one-shot sync of wallet trading activity into the
// trades table, for cron jobs and manual backfills.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"solana-wallet-sync/internal/ingestion"
	"solana-wallet-sync/internal/price"
	"solana-wallet-sync/internal/solana"
	"solana-wallet-sync/internal/storage/postgres"
	"solana-wallet-sync/internal/trades"
)

func main() {
	loadEnvFile()

	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	wallets := flag.String("wallets", os.Getenv("SYNC_WALLETS"), "Comma-separated wallet addresses to sync")
	days := flag.Int("days", trades.DefaultLookbackDays, "Lookback window in days for wallets without history")
	timeout := flag.Duration("timeout", 30*time.Minute, "Overall sync timeout")
	callSpacing := flag.Duration("rpc-call-spacing", solana.DefaultCallSpacing, "Minimum interval between RPC calls")

	flag.Parse()

	logger := log.New(os.Stdout, "[sync] ", log.LstdFlags|log.Lshortfile)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	walletList := splitList(*wallets)
	if len(walletList) == 0 {
		logger.Fatal("--wallets is required (comma-separated addresses)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling sync...", sig)
		cancel()
	}()

	pool, err := postgres.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	rpc := solana.NewHTTPClient(*rpcEndpoint, solana.WithCallSpacing(*callSpacing))
	resolver := ingestion.NewRPCMetadataResolver(rpc, nil)
	source := ingestion.NewRPCTransactionSource(rpc, resolver, nil)
	store := postgres.NewTradeStore(pool)

	syncer := trades.NewSyncer(source, store, price.NewCoinGeckoClient(), logger)

	logger.Printf("Syncing %d wallets (%d-day lookback)...", len(walletList), *days)
	start := time.Now()
	results := syncer.SyncAll(ctx, walletList, *days)

	failed := 0
	total := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
			logger.Printf("  %s: FAILED: %s", r.Wallet, r.Error)
			continue
		}
		total += r.TradesProcessed
		logger.Printf("  %s: %d trades", r.Wallet, r.TradesProcessed)
	}

	logger.Printf("Done in %v: %d trades across %d wallets, %d failed",
		time.Since(start).Round(time.Second), total, len(results)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// splitList splits a comma-separated flag value, dropping empties.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
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
