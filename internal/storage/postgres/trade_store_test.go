package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-wallet-sync/internal/domain"
	"solana-wallet-sync/internal/storage"
)

func createTestTrade(wallet, mint, name string) *domain.WalletTrade {
	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	last := time.Date(2026, 8, 20, 16, 30, 0, 0, time.UTC)
	return &domain.WalletTrade{
		ID:             domain.TradeID(wallet, mint),
		Wallet:         wallet,
		TokenName:      name,
		TokenAddress:   mint,
		FirstTrade:     &first,
		LastTrade:      &last,
		Buys:           3,
		Sells:          2,
		InvestedSOL:    4.5,
		InvestedUSD:    450,
		ReceivedSOL:    5.25,
		RealizedPnL:    0.75,
		RealizedPnLUSD: 75,
		ROI:            16.67,
	}
}

func TestTradeStore_UpsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trade := createTestTrade("wallet-1", "mint-1", "Alpha")
	require.NoError(t, store.UpsertBatch(ctx, []*domain.WalletTrade{trade}))

	retrieved, err := store.GetByID(ctx, trade.ID)
	require.NoError(t, err)

	assert.Equal(t, trade.ID, retrieved.ID)
	assert.Equal(t, trade.Wallet, retrieved.Wallet)
	assert.Equal(t, trade.TokenName, retrieved.TokenName)
	assert.Equal(t, trade.TokenAddress, retrieved.TokenAddress)
	assert.Equal(t, trade.Buys, retrieved.Buys)
	assert.Equal(t, trade.Sells, retrieved.Sells)
	assert.InDelta(t, trade.InvestedSOL, retrieved.InvestedSOL, 1e-8)
	assert.InDelta(t, trade.InvestedUSD, retrieved.InvestedUSD, 1e-8)
	assert.InDelta(t, trade.ReceivedSOL, retrieved.ReceivedSOL, 1e-8)
	assert.InDelta(t, trade.RealizedPnL, retrieved.RealizedPnL, 1e-8)
	assert.InDelta(t, trade.RealizedPnLUSD, retrieved.RealizedPnLUSD, 1e-8)
	assert.InDelta(t, trade.ROI, retrieved.ROI, 1e-8)
	require.NotNil(t, retrieved.FirstTrade)
	require.NotNil(t, retrieved.LastTrade)
	assert.True(t, retrieved.FirstTrade.Equal(*trade.FirstTrade))
	assert.True(t, retrieved.LastTrade.Equal(*trade.LastTrade))
	assert.False(t, retrieved.CreatedAt.IsZero())
	assert.False(t, retrieved.UpdatedAt.IsZero())
}

func TestTradeStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewTradeStore(pool).GetByID(context.Background(), "missing|id")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeStore_UpsertOverwritesMergedValues(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	trade := createTestTrade("wallet-1", "mint-1", "Alpha")
	require.NoError(t, store.UpsertBatch(ctx, []*domain.WalletTrade{trade}))

	initial, err := store.GetByID(ctx, trade.ID)
	require.NoError(t, err)

	// Second pass writes cumulative totals for the same key.
	trade.Buys = 5
	trade.InvestedSOL = 9.0
	trade.TokenName = "Alpha Renamed"
	newLast := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	trade.LastTrade = &newLast
	require.NoError(t, store.UpsertBatch(ctx, []*domain.WalletTrade{trade}))

	retrieved, err := store.GetByID(ctx, trade.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, retrieved.Buys)
	assert.InDelta(t, 9.0, retrieved.InvestedSOL, 1e-8)
	assert.Equal(t, "Alpha Renamed", retrieved.TokenName)
	assert.True(t, retrieved.LastTrade.Equal(newLast))
	// created_at survives the overwrite.
	assert.True(t, retrieved.CreatedAt.Equal(initial.CreatedAt))
}

func TestTradeStore_UpsertBatchIsAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	good := createTestTrade("wallet-atomic", "mint-1", "Alpha")
	bad := createTestTrade("wallet-atomic", "mint-2", "Beta")
	bad.ID = ""

	err := store.UpsertBatch(ctx, []*domain.WalletTrade{good, bad})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	trades, err := store.GetByWallet(ctx, "wallet-atomic")
	require.NoError(t, err)
	assert.Empty(t, trades, "no rows should survive a rejected batch")
}

func TestTradeStore_GetByWalletSorted(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	a := createTestTrade("wallet-sort", "mint-a", "Alpha")
	a.ROI = 50
	b := createTestTrade("wallet-sort", "mint-b", "Beta")
	b.ROI = -20
	c := createTestTrade("wallet-sort", "mint-c", "Gamma")
	c.ROI = 10
	c.LastTrade = nil
	require.NoError(t, store.UpsertBatch(ctx, []*domain.WalletTrade{a, b, c}))

	byROI, err := store.GetByWalletSorted(ctx, "wallet-sort", storage.SortByROI, storage.SortDesc)
	require.NoError(t, err)
	require.Len(t, byROI, 3)
	assert.Equal(t, "Alpha", byROI[0].TokenName)
	assert.Equal(t, "Beta", byROI[2].TokenName)

	// NULL last_trade sorts last in either direction.
	byLast, err := store.GetByWalletSorted(ctx, "wallet-sort", storage.SortByLastTrade, storage.SortAsc)
	require.NoError(t, err)
	require.Len(t, byLast, 3)
	assert.Equal(t, "Gamma", byLast[2].TokenName)

	// Unknown columns and directions never reach SQL.
	_, err = store.GetByWalletSorted(ctx, "wallet-sort", "wallet; DROP TABLE trades", storage.SortDesc)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
	_, err = store.GetByWalletSorted(ctx, "wallet-sort", storage.SortByROI, "SIDEWAYS")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestTradeStore_GetByToken(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	require.NoError(t, store.UpsertBatch(ctx, []*domain.WalletTrade{
		createTestTrade("wallet-1", "mint-shared", "Alpha"),
		createTestTrade("wallet-2", "mint-shared", "Alpha"),
		createTestTrade("wallet-1", "mint-other", "Beta"),
	}))

	trades, err := store.GetByToken(ctx, "mint-shared")
	require.NoError(t, err)
	assert.Len(t, trades, 2)
	for _, tr := range trades {
		assert.Equal(t, "mint-shared", tr.TokenAddress)
	}
}

func TestTradeStore_LatestTradeTime(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(pool)

	latest, err := store.LatestTradeTime(ctx, "wallet-empty")
	require.NoError(t, err)
	assert.Nil(t, latest, "wallet with no rows has no latest trade")

	older := createTestTrade("wallet-latest", "mint-a", "Alpha")
	newer := createTestTrade("wallet-latest", "mint-b", "Beta")
	newest := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	newer.LastTrade = &newest
	require.NoError(t, store.UpsertBatch(ctx, []*domain.WalletTrade{older, newer}))

	latest, err = store.LatestTradeTime(ctx, "wallet-latest")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.Equal(newest))
}
