// Package main runs the wallet trade HTTP service: read endpoints over
// the trades table plus on-demand sync of tracked wallets.
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
	"solana-wallet-sync/internal/server"
	"solana-wallet-sync/internal/solana"
	"solana-wallet-sync/internal/storage"
	"solana-wallet-sync/internal/storage/memory"
	pgstore "solana-wallet-sync/internal/storage/postgres"
	"solana-wallet-sync/internal/trades"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	addr := flag.String("addr", envOr("HTTP_ADDR", ":8080"), "HTTP listen address")
	priceURL := flag.String("price-url", os.Getenv("COINGECKO_URL"), "CoinGecko API base URL override")
	callSpacing := flag.Duration("rpc-call-spacing", solana.DefaultCallSpacing, "Minimum interval between RPC calls")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, cleanup, err := createTradeStore(ctx, *postgresDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create trade store: %v", err)
	}
	defer cleanup()

	rpc := solana.NewHTTPClient(*rpcEndpoint, solana.WithCallSpacing(*callSpacing))
	resolver := ingestion.NewRPCMetadataResolver(rpc, nil)
	source := ingestion.NewRPCTransactionSource(rpc, resolver, nil)
	balances := ingestion.NewRPCBalanceSource(rpc)

	var priceOpts []price.CoinGeckoOption
	if *priceURL != "" {
		priceOpts = append(priceOpts, price.WithBaseURL(*priceURL))
	}
	prices := price.NewCoinGeckoClient(priceOpts...)

	syncer := trades.NewSyncer(source, store, prices, log.New(os.Stdout, "[sync] ", log.LstdFlags|log.Lshortfile))
	srv := server.New(store, syncer, balances, logger)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		}
	}()

	if err := srv.ListenAndServe(ctx, *addr); err != nil {
		logger.Fatalf("HTTP server error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// createTradeStore creates the configured trade store.
func createTradeStore(ctx context.Context, postgresDSN string, useMemory bool) (storage.TradeStore, func(), error) {
	if useMemory {
		return memory.NewTradeStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, err
	}
	return pgstore.NewTradeStore(pool), pool.Close, nil
}

// envOr returns the env var value or a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
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
