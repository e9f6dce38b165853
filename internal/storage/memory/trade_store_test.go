package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-wallet-sync/internal/domain"
	"solana-wallet-sync/internal/storage"
)

func testTrade(wallet, mint string, roi float64, last *time.Time) *domain.WalletTrade {
	return &domain.WalletTrade{
		ID:           domain.TradeID(wallet, mint),
		Wallet:       wallet,
		TokenAddress: mint,
		TokenName:    "Token-" + mint,
		Buys:         1,
		InvestedSOL:  1,
		ROI:          roi,
		LastTrade:    last,
	}
}

func TestUpsertAndGetByID(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()
	now := time.Now()

	trade := testTrade("w1", "m1", 10, &now)
	if err := store.UpsertBatch(ctx, []*domain.WalletTrade{trade}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	got, err := store.GetByID(ctx, domain.TradeID("w1", "m1"))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.TokenName != "Token-m1" || got.ROI != 10 {
		t.Errorf("unexpected trade %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("expected bookkeeping timestamps to be set")
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreCopiesRows(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()
	now := time.Now()

	trade := testTrade("w1", "m1", 10, &now)
	if err := store.UpsertBatch(ctx, []*domain.WalletTrade{trade}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	// Mutating the input or a returned row must not affect the store.
	trade.ROI = 999
	got, _ := store.GetByID(ctx, trade.ID)
	if got.ROI != 10 {
		t.Errorf("store aliases caller memory on write: roi=%f", got.ROI)
	}
	got.ROI = -999
	again, _ := store.GetByID(ctx, trade.ID)
	if again.ROI != 10 {
		t.Errorf("store aliases caller memory on read: roi=%f", again.ROI)
	}
}

func TestUpsertPreservesCreatedAt(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()
	now := time.Now()

	trade := testTrade("w1", "m1", 10, &now)
	if err := store.UpsertBatch(ctx, []*domain.WalletTrade{trade}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	first, _ := store.GetByID(ctx, trade.ID)

	trade.ROI = 20
	if err := store.UpsertBatch(ctx, []*domain.WalletTrade{trade}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	got, _ := store.GetByID(ctx, trade.ID)
	if got.ROI != 20 {
		t.Errorf("expected overwritten roi, got %f", got.ROI)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Error("expected created_at preserved across overwrites")
	}
}

func TestUpsertBatchValidatesBeforeWriting(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()
	now := time.Now()

	good := testTrade("w1", "m1", 10, &now)
	bad := testTrade("w1", "m2", 10, &now)
	bad.Wallet = ""

	if err := store.UpsertBatch(ctx, []*domain.WalletTrade{good, bad}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if trades, _ := store.GetByWallet(ctx, "w1"); len(trades) != 0 {
		t.Errorf("expected rejected batch to write nothing, got %d rows", len(trades))
	}
}

func TestGetByWalletSorted(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()
	early := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	if err := store.UpsertBatch(ctx, []*domain.WalletTrade{
		testTrade("w1", "m-a", 50, &early),
		testTrade("w1", "m-b", -20, &late),
		testTrade("w1", "m-c", 10, nil),
		testTrade("w2", "m-a", 99, &late),
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	byROI, err := store.GetByWalletSorted(ctx, "w1", storage.SortByROI, storage.SortDesc)
	if err != nil {
		t.Fatalf("sorted get failed: %v", err)
	}
	if len(byROI) != 3 {
		t.Fatalf("expected 3 rows for w1, got %d", len(byROI))
	}
	if byROI[0].ROI != 50 || byROI[2].ROI != -20 {
		t.Errorf("wrong roi order: %f .. %f", byROI[0].ROI, byROI[2].ROI)
	}

	// Nil last_trade sorts last regardless of direction.
	byLast, err := store.GetByWalletSorted(ctx, "w1", storage.SortByLastTrade, storage.SortAsc)
	if err != nil {
		t.Fatalf("sorted get failed: %v", err)
	}
	if byLast[2].LastTrade != nil {
		t.Errorf("expected nil last_trade row last, got %+v", byLast[2])
	}

	if _, err := store.GetByWalletSorted(ctx, "w1", "no_such_column", storage.SortDesc); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown column, got %v", err)
	}
}

func TestGetByToken(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()
	now := time.Now()

	if err := store.UpsertBatch(ctx, []*domain.WalletTrade{
		testTrade("w1", "m-shared", 1, &now),
		testTrade("w2", "m-shared", 2, &now),
		testTrade("w1", "m-other", 3, &now),
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	trades, err := store.GetByToken(ctx, "m-shared")
	if err != nil {
		t.Fatalf("get by token failed: %v", err)
	}
	if len(trades) != 2 {
		t.Errorf("expected 2 rows, got %d", len(trades))
	}
}

func TestLatestTradeTime(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	latest, err := store.LatestTradeTime(ctx, "w1")
	if err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	if latest != nil {
		t.Errorf("expected nil for empty wallet, got %v", latest)
	}

	early := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	if err := store.UpsertBatch(ctx, []*domain.WalletTrade{
		testTrade("w1", "m-a", 1, &early),
		testTrade("w1", "m-b", 2, &late),
		testTrade("w1", "m-c", 3, nil),
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	latest, err = store.LatestTradeTime(ctx, "w1")
	if err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	if latest == nil || !latest.Equal(late) {
		t.Errorf("expected %v, got %v", late, latest)
	}
}
