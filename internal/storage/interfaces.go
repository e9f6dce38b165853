package storage

import (
	"context"
	"time"

	"solana-wallet-sync/internal/domain"
)

// Sort fields accepted by TradeStore.GetByWalletSorted and GetByTokenSorted.
// Anything else is rejected with ErrInvalidInput before reaching SQL.
const (
	SortByTokenName   = "token_name"
	SortByFirstTrade  = "first_trade"
	SortByLastTrade   = "last_trade"
	SortByBuys        = "buys"
	SortBySells       = "sells"
	SortByInvestedSOL = "invested_sol"
	SortByRealizedPnL = "realized_pnl"
	SortByROI         = "roi"
)

// SortDirection is ASC or DESC.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// ValidSortField reports whether field is an accepted sort column.
func ValidSortField(field string) bool {
	switch field {
	case SortByTokenName, SortByFirstTrade, SortByLastTrade,
		SortByBuys, SortBySells, SortByInvestedSOL, SortByRealizedPnL, SortByROI:
		return true
	}
	return false
}

// TradeStore provides access to the trades table.
type TradeStore interface {
	// GetByID retrieves a trade row by its "wallet|token" key.
	// Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.WalletTrade, error)

	// GetByWallet retrieves all trade rows for a wallet, newest last_trade first.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.WalletTrade, error)

	// GetByWalletSorted retrieves a wallet's trade rows ordered by an
	// allow-listed column. Returns ErrInvalidInput on unknown sort fields.
	GetByWalletSorted(ctx context.Context, wallet, sortBy string, dir SortDirection) ([]*domain.WalletTrade, error)

	// GetByToken retrieves all trade rows for a token mint across wallets,
	// newest last_trade first.
	GetByToken(ctx context.Context, tokenAddress string) ([]*domain.WalletTrade, error)

	// LatestTradeTime returns the max last_trade across a wallet's rows,
	// or nil when the wallet has no persisted trades.
	LatestTradeTime(ctx context.Context, wallet string) (*time.Time, error)

	// UpsertBatch writes all rows inside a single transaction: either the
	// whole batch applies or none of it does. Existing rows are overwritten
	// with the merged values supplied by the caller.
	UpsertBatch(ctx context.Context, trades []*domain.WalletTrade) error
}
