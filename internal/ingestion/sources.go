package ingestion

import (
	"context"
	"time"

	"solana-wallet-sync/internal/domain"
)

// TransactionSource provides a wallet's raw transaction history grouped
// by token mint. Implementations fetch since startTime (exclusive) up to
// now; transport failures propagate so the caller decides retry policy.
type TransactionSource interface {
	// FetchTokenActivity returns the wallet's transactions since startTime,
	// keyed by token mint. An empty map means no activity in the window.
	FetchTokenActivity(ctx context.Context, wallet string, startTime time.Time) (map[string]*domain.TokenActivity, error)
}

// MetadataResolver resolves token display names for a set of mints.
// Resolution is best effort: a mint that cannot be resolved maps to
// domain.UnknownTokenName rather than failing the batch.
type MetadataResolver interface {
	ResolveNames(ctx context.Context, mints []string) map[string]string
}

// BalanceSource provides a wallet's current native balance.
type BalanceSource interface {
	FetchBalance(ctx context.Context, wallet string) (*domain.WalletBalance, error)
}
