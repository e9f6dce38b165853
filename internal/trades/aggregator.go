package trades

import (
	"log"
	"math"
	"time"

	"solana-wallet-sync/internal/domain"
)

// tokenEpsilon is the threshold below which a token balance delta is
// treated as no movement.
const tokenEpsilon = 1e-6

// TokenStats is the in-memory per-(wallet, token) aggregate produced by
// one aggregation pass over a fetch window.
type TokenStats struct {
	TokenAddress string
	TokenName    string

	Buys  int
	Sells int

	InvestedSOL float64 // SOL spent on buys, 8 decimal places
	ReceivedSOL float64 // SOL received from sells, 8 decimal places
	RealizedPnL float64 // ReceivedSOL - InvestedSOL
	ROI         float64 // percentage, 2 decimal places

	FirstTrade time.Time
	LastTrade  time.Time
}

// Aggregator converts a wallet's grouped raw transactions into per-token
// trading metrics.
type Aggregator struct {
	logger *log.Logger
}

// NewAggregator creates a new trade aggregator.
func NewAggregator(logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.New(log.Writer(), "[aggregate] ", log.LstdFlags)
	}
	return &Aggregator{logger: logger}
}

// Aggregate computes per-token metrics for a wallet's activity window.
// The native currency is the unit of account and never appears in the
// output map, even when the provider reports it as a wrapped-SOL mint.
func (a *Aggregator) Aggregate(wallet string, activity map[string]*domain.TokenActivity) map[string]*TokenStats {
	stats := make(map[string]*TokenStats, len(activity))

	for mint, entry := range activity {
		if mint == "SOL" || mint == domain.NativeMint {
			continue
		}
		if len(entry.Transactions) == 0 {
			continue
		}

		s := a.aggregateToken(mint, entry)
		stats[mint] = s
	}

	return stats
}

// aggregateToken folds one token's transactions into a TokenStats.
func (a *Aggregator) aggregateToken(mint string, entry *domain.TokenActivity) *TokenStats {
	s := &TokenStats{
		TokenAddress: mint,
		TokenName:    entry.TokenName,
	}
	if s.TokenName == "" {
		s.TokenName = domain.UnknownTokenName
	}

	for i := range entry.Transactions {
		tx := &entry.Transactions[i]

		// Every transaction touching the token moves the trade window,
		// classified or not.
		if s.FirstTrade.IsZero() || tx.BlockTime.Before(s.FirstTrade) {
			s.FirstTrade = tx.BlockTime
		}
		if s.LastTrade.IsZero() || tx.BlockTime.After(s.LastTrade) {
			s.LastTrade = tx.BlockTime
		}

		if !tx.Success || tx.SolChange == nil {
			continue
		}

		tokenDiff := tokenDelta(tx, mint)
		if math.Abs(tokenDiff) <= tokenEpsilon {
			continue
		}

		solChange := *tx.SolChange
		switch {
		case tokenDiff > 0 && solChange < 0:
			// Token balance up, SOL down: bought.
			s.Buys++
			s.InvestedSOL += math.Abs(solChange)
		case tokenDiff < 0 && solChange > 0:
			// Token balance down, SOL up: sold.
			s.Sells++
			s.ReceivedSOL += solChange
		}
		// Anything else (multi-token swap legs, airdrops) is neither.
	}

	s.InvestedSOL = roundSOL(s.InvestedSOL)
	s.ReceivedSOL = roundSOL(s.ReceivedSOL)
	s.RealizedPnL = roundSOL(s.ReceivedSOL - s.InvestedSOL)
	s.ROI = computeROI(s.RealizedPnL, s.InvestedSOL)

	return s
}

// tokenDelta computes post - pre for the wallet's balance of one mint
// within a transaction. A missing side counts as zero; only the first
// balance entry per mint is considered, so a mint repeated across token
// accounts is processed once.
func tokenDelta(tx *domain.RawTransaction, mint string) float64 {
	var pre, post float64
	for _, b := range tx.PreTokenBalances {
		if b.Mint == mint {
			pre = b.Amount
			break
		}
	}
	for _, b := range tx.PostTokenBalances {
		if b.Mint == mint {
			post = b.Amount
			break
		}
	}
	return post - pre
}

// computeROI returns realized PnL as a percentage of invested capital,
// zero when nothing was invested.
func computeROI(realizedPnL, invested float64) float64 {
	if invested <= 0 {
		return 0
	}
	return roundPct(realizedPnL / invested * 100)
}

// roundSOL rounds to 8 decimal places (native currency precision).
func roundSOL(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}

// roundPct rounds to 2 decimal places.
func roundPct(v float64) float64 {
	return math.Round(v*100) / 100
}
