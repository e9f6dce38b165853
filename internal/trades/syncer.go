package trades

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"solana-wallet-sync/internal/domain"
	"solana-wallet-sync/internal/ingestion"
	"solana-wallet-sync/internal/observability"
	"solana-wallet-sync/internal/price"
	"solana-wallet-sync/internal/storage"
)

// WalletResult reports the outcome of syncing one wallet.
type WalletResult struct {
	Wallet          string `json:"wallet"`
	TradesProcessed int    `json:"trades_processed"`
	Error           string `json:"error,omitempty"`
}

// Syncer reconciles wallets' on-chain trading activity into the trade
// store: plan a fetch window, pull and aggregate transactions, merge
// against persisted rows, write the batch.
type Syncer struct {
	source     ingestion.TransactionSource
	store      storage.TradeStore
	prices     price.Source
	planner    *Planner
	aggregator *Aggregator
	logger     *log.Logger
}

// NewSyncer wires a syncer from its collaborators.
func NewSyncer(source ingestion.TransactionSource, store storage.TradeStore, prices price.Source, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.New(log.Writer(), "[sync] ", log.LstdFlags)
	}
	return &Syncer{
		source:     source,
		store:      store,
		prices:     prices,
		planner:    NewPlanner(store, logger),
		aggregator: NewAggregator(logger),
		logger:     logger,
	}
}

// SyncWallet syncs a single wallet and returns the number of trade rows
// written. The whole batch is written or none of it.
func (s *Syncer) SyncWallet(ctx context.Context, wallet string, lookbackDays int) (int, error) {
	started := time.Now()

	start := s.planner.PlanStart(ctx, wallet, lookbackDays)
	s.logger.Printf("syncing %s from %s", wallet, start.Format(time.RFC3339))

	activity, err := s.source.FetchTokenActivity(ctx, wallet, start)
	if err != nil {
		return 0, fmt.Errorf("fetching activity for %s: %w", wallet, err)
	}

	stats := s.aggregator.Aggregate(wallet, activity)
	if len(stats) == 0 {
		s.logger.Printf("no token activity for %s since %s", wallet, start.Format(time.RFC3339))
		observability.RecordSyncDuration(time.Since(started).Seconds())
		return 0, nil
	}

	// One rate per sync pass so every row in a batch shares its USD basis.
	rate, err := s.prices.SOLUSD(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching SOL/USD rate: %w", err)
	}

	existing, err := s.store.GetByWallet(ctx, wallet)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("loading persisted trades for %s: %w", wallet, err)
	}
	byToken := make(map[string]*domain.WalletTrade, len(existing))
	for _, t := range existing {
		byToken[t.TokenAddress] = t
	}

	merged := make([]*domain.WalletTrade, 0, len(stats))
	for mint, st := range stats {
		merged = append(merged, Merge(byToken[mint], wallet, st, rate))
	}

	if err := s.store.UpsertBatch(ctx, merged); err != nil {
		observability.RecordDBError("upsert_batch")
		return 0, fmt.Errorf("writing trades for %s: %w", wallet, err)
	}

	observability.RecordTradesUpserted(len(merged))
	observability.RecordSyncDuration(time.Since(started).Seconds())
	s.logger.Printf("synced %s: %d trades in %s", wallet, len(merged), time.Since(started).Round(time.Millisecond))
	return len(merged), nil
}

// SyncAll syncs each wallet in turn. One wallet's failure is recorded in
// its result and does not stop the rest.
func (s *Syncer) SyncAll(ctx context.Context, wallets []string, lookbackDays int) []WalletResult {
	results := make([]WalletResult, 0, len(wallets))
	succeeded := 0
	for _, wallet := range wallets {
		if err := ctx.Err(); err != nil {
			results = append(results, WalletResult{Wallet: wallet, Error: err.Error()})
			continue
		}

		n, err := s.SyncWallet(ctx, wallet, lookbackDays)
		if err != nil {
			s.logger.Printf("sync failed for %s: %v", wallet, err)
			observability.RecordWalletSynced("error")
			results = append(results, WalletResult{Wallet: wallet, Error: err.Error()})
			continue
		}
		observability.RecordWalletSynced("ok")
		results = append(results, WalletResult{Wallet: wallet, TradesProcessed: n})
		succeeded++
	}
	if succeeded > 0 {
		observability.MarkSyncSuccess(float64(time.Now().Unix()))
	}
	return results
}
