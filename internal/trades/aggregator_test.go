package trades

import (
	"math"
	"testing"
	"time"

	"solana-wallet-sync/internal/domain"
)

func solChange(v float64) *float64 { return &v }

func tx(sig string, at time.Time, success bool, sol *float64, pre, post []domain.TokenBalance) domain.RawTransaction {
	return domain.RawTransaction{
		Signature:         sig,
		BlockTime:         at,
		Success:           success,
		SolChange:         sol,
		PreTokenBalances:  pre,
		PostTokenBalances: post,
	}
}

func TestAggregateBuySellRoundTrip(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mintA := "TokenAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	mintB := "TokenBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"

	activity := map[string]*domain.TokenActivity{
		mintA: {
			Mint:      mintA,
			TokenName: "Alpha",
			Transactions: []domain.RawTransaction{
				// buy 100 A for 2 SOL
				tx("sig1", base, true, solChange(-2.0),
					nil,
					[]domain.TokenBalance{{Mint: mintA, Amount: 100}}),
				// sell 100 A for 1.5 SOL
				tx("sig2", base.Add(time.Hour), true, solChange(1.5),
					[]domain.TokenBalance{{Mint: mintA, Amount: 100}},
					nil),
			},
		},
		mintB: {
			Mint:      mintB,
			TokenName: "Beta",
			Transactions: []domain.RawTransaction{
				// buy 50 B for 5 SOL
				tx("sig3", base.Add(2*time.Hour), true, solChange(-5.0),
					nil,
					[]domain.TokenBalance{{Mint: mintB, Amount: 50}}),
			},
		},
	}

	stats := NewAggregator(nil).Aggregate("wallet1", activity)
	if len(stats) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(stats))
	}

	a := stats[mintA]
	if a.Buys != 1 || a.Sells != 1 {
		t.Errorf("token A: expected 1 buy / 1 sell, got %d / %d", a.Buys, a.Sells)
	}
	if a.InvestedSOL != 2.0 {
		t.Errorf("token A: expected invested 2.0, got %f", a.InvestedSOL)
	}
	if a.ReceivedSOL != 1.5 {
		t.Errorf("token A: expected received 1.5, got %f", a.ReceivedSOL)
	}
	if a.RealizedPnL != -0.5 {
		t.Errorf("token A: expected pnl -0.5, got %f", a.RealizedPnL)
	}
	if a.ROI != -25.0 {
		t.Errorf("token A: expected roi -25.0, got %f", a.ROI)
	}
	if !a.FirstTrade.Equal(base) || !a.LastTrade.Equal(base.Add(time.Hour)) {
		t.Errorf("token A: wrong trade window %v .. %v", a.FirstTrade, a.LastTrade)
	}

	b := stats[mintB]
	if b.Buys != 1 || b.Sells != 0 {
		t.Errorf("token B: expected 1 buy / 0 sells, got %d / %d", b.Buys, b.Sells)
	}
	if b.InvestedSOL != 5.0 {
		t.Errorf("token B: expected invested 5.0, got %f", b.InvestedSOL)
	}
	if b.RealizedPnL != -5.0 {
		t.Errorf("token B: expected pnl -5.0, got %f", b.RealizedPnL)
	}
	if b.ROI != -100.0 {
		t.Errorf("token B: expected roi -100.0, got %f", b.ROI)
	}
}

func TestAggregateSkipsNativeMint(t *testing.T) {
	base := time.Now().UTC()
	activity := map[string]*domain.TokenActivity{
		"SOL": {
			Mint:         "SOL",
			Transactions: []domain.RawTransaction{tx("s", base, true, solChange(-1), nil, nil)},
		},
		domain.NativeMint: {
			Mint:         domain.NativeMint,
			Transactions: []domain.RawTransaction{tx("s2", base, true, solChange(-1), nil, nil)},
		},
	}

	stats := NewAggregator(nil).Aggregate("wallet1", activity)
	if len(stats) != 0 {
		t.Errorf("expected native mint entries skipped, got %d stats", len(stats))
	}
}

func TestAggregateFailedAndUnclassifiedOnlyMoveWindow(t *testing.T) {
	base := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	mint := "TokenCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCCC"

	activity := map[string]*domain.TokenActivity{
		mint: {
			Mint:      mint,
			TokenName: "Gamma",
			Transactions: []domain.RawTransaction{
				// failed tx
				tx("s1", base, false, solChange(-3),
					nil, []domain.TokenBalance{{Mint: mint, Amount: 10}}),
				// missing sol change
				tx("s2", base.Add(time.Hour), true, nil,
					nil, []domain.TokenBalance{{Mint: mint, Amount: 10}}),
				// token delta below epsilon
				tx("s3", base.Add(2*time.Hour), true, solChange(-1),
					[]domain.TokenBalance{{Mint: mint, Amount: 10}},
					[]domain.TokenBalance{{Mint: mint, Amount: 10 + 1e-9}}),
				// airdrop: token up, no SOL out
				tx("s4", base.Add(3*time.Hour), true, solChange(0.001),
					nil, []domain.TokenBalance{{Mint: mint, Amount: 5}}),
			},
		},
	}

	stats := NewAggregator(nil).Aggregate("wallet1", activity)
	s := stats[mint]
	if s == nil {
		t.Fatal("expected stats entry for token with activity")
	}
	if s.Buys != 0 || s.Sells != 0 {
		t.Errorf("expected no classified trades, got %d buys / %d sells", s.Buys, s.Sells)
	}
	if s.InvestedSOL != 0 || s.ReceivedSOL != 0 {
		t.Errorf("expected zero SOL totals, got %f / %f", s.InvestedSOL, s.ReceivedSOL)
	}
	if s.ROI != 0 {
		t.Errorf("expected roi 0 with no investment, got %f", s.ROI)
	}
	if !s.FirstTrade.Equal(base) || !s.LastTrade.Equal(base.Add(3*time.Hour)) {
		t.Errorf("expected window to span all transactions, got %v .. %v", s.FirstTrade, s.LastTrade)
	}
}

func TestAggregateDefaultsUnknownName(t *testing.T) {
	mint := "TokenDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDDD"
	activity := map[string]*domain.TokenActivity{
		mint: {
			Mint: mint,
			Transactions: []domain.RawTransaction{
				tx("s1", time.Now(), true, solChange(-1),
					nil, []domain.TokenBalance{{Mint: mint, Amount: 1}}),
			},
		},
	}

	stats := NewAggregator(nil).Aggregate("wallet1", activity)
	if got := stats[mint].TokenName; got != domain.UnknownTokenName {
		t.Errorf("expected name %q, got %q", domain.UnknownTokenName, got)
	}
}

func TestAggregateRoundsSOLAmounts(t *testing.T) {
	mint := "TokenEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEEE"
	activity := map[string]*domain.TokenActivity{
		mint: {
			Mint:      mint,
			TokenName: "Eps",
			Transactions: []domain.RawTransaction{
				tx("s1", time.Now(), true, solChange(-0.123456789123),
					nil, []domain.TokenBalance{{Mint: mint, Amount: 1}}),
			},
		},
	}

	stats := NewAggregator(nil).Aggregate("wallet1", activity)
	if got := stats[mint].InvestedSOL; got != 0.12345679 {
		t.Errorf("expected invested rounded to 8 places, got %.12f", got)
	}
}

func TestComputeROI(t *testing.T) {
	tests := []struct {
		name     string
		pnl      float64
		invested float64
		want     float64
	}{
		{"zero investment", 5, 0, 0},
		{"loss", -0.5, 2, -25},
		{"gain", 1, 4, 25},
		{"rounded", 1.0 / 3.0, 1, 33.33},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeROI(tt.pnl, tt.invested); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("computeROI(%f, %f) = %f, want %f", tt.pnl, tt.invested, got, tt.want)
			}
		})
	}
}
