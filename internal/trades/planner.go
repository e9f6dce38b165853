package trades

import (
	"context"
	"log"
	"time"

	"solana-wallet-sync/internal/storage"
)

// DefaultLookbackDays bounds how far back a sync reaches when a wallet
// has no persisted history.
const DefaultLookbackDays = 30

// Planner decides where a wallet's next fetch window starts: at the most
// recent persisted trade when one exists inside the lookback horizon,
// otherwise at the start of the day lookbackDays ago.
type Planner struct {
	store  storage.TradeStore
	logger *log.Logger
	now    func() time.Time
}

// NewPlanner creates a sync window planner backed by the given store.
func NewPlanner(store storage.TradeStore, logger *log.Logger) *Planner {
	if logger == nil {
		logger = log.New(log.Writer(), "[planner] ", log.LstdFlags)
	}
	return &Planner{store: store, logger: logger, now: time.Now}
}

// PlanStart returns the fetch window start for a wallet. A store failure
// falls back to the full lookback window rather than skipping history.
func (p *Planner) PlanStart(ctx context.Context, wallet string, lookbackDays int) time.Time {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	now := p.now()
	day := now.AddDate(0, 0, -lookbackDays)
	maxLookback := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	latest, err := p.store.LatestTradeTime(ctx, wallet)
	if err != nil {
		p.logger.Printf("latest trade lookup failed for %s, using full %d-day window: %v", wallet, lookbackDays, err)
		return maxLookback
	}
	if latest != nil && latest.After(maxLookback) {
		return *latest
	}
	return maxLookback
}
