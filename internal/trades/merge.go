package trades

import (
	"math"
	"time"

	"solana-wallet-sync/internal/domain"
)

// Merge folds freshly aggregated token stats into a previously persisted
// trade row. existing may be nil for a token seen for the first time.
//
// Count and SOL fields are summed, the trade window is extended to cover
// both inputs, and the USD mirrors and ROI are recomputed from the merged
// totals at the given SOL/USD rate. Merging the same window twice doubles
// the numeric fields; callers are responsible for planning non-overlapping
// fetch windows.
func Merge(existing *domain.WalletTrade, wallet string, fresh *TokenStats, solUSD float64) *domain.WalletTrade {
	merged := &domain.WalletTrade{
		ID:           domain.TradeID(wallet, fresh.TokenAddress),
		Wallet:       wallet,
		TokenName:    fresh.TokenName,
		TokenAddress: fresh.TokenAddress,
	}

	var prev domain.WalletTrade
	if existing != nil {
		prev = *existing
	}
	if merged.TokenName == domain.UnknownTokenName && prev.TokenName != "" {
		// A previously resolved name outlives a failed lookup.
		merged.TokenName = prev.TokenName
	}

	merged.Buys = prev.Buys + fresh.Buys
	merged.Sells = prev.Sells + fresh.Sells
	merged.InvestedSOL = roundSOL(sanitize(prev.InvestedSOL) + fresh.InvestedSOL)
	merged.ReceivedSOL = roundSOL(sanitize(prev.ReceivedSOL) + fresh.ReceivedSOL)
	merged.RealizedPnL = roundSOL(sanitize(prev.RealizedPnL) + fresh.RealizedPnL)

	merged.InvestedUSD = roundPct(merged.InvestedSOL * solUSD)
	merged.RealizedPnLUSD = roundPct(merged.RealizedPnL * solUSD)
	merged.ROI = computeROI(merged.RealizedPnL, merged.InvestedSOL)

	merged.FirstTrade = minTime(prev.FirstTrade, timePtr(fresh.FirstTrade))
	merged.LastTrade = maxTime(prev.LastTrade, timePtr(fresh.LastTrade))

	merged.CreatedAt = prev.CreatedAt

	return merged
}

// sanitize coerces NaN and infinities from legacy rows to zero so one bad
// value cannot poison every subsequent merge.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func minTime(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Before(*a):
		return b
	default:
		return a
	}
}

func maxTime(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	default:
		return a
	}
}
