package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"solana-wallet-sync/internal/domain"
	"solana-wallet-sync/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WalletTrade // keyed by "wallet|token"
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.WalletTrade),
	}
}

var _ storage.TradeStore = (*TradeStore)(nil)

// GetByID retrieves a trade row by key. Returns ErrNotFound if not exists.
func (s *TradeStore) GetByID(_ context.Context, id string) (*domain.WalletTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *t
	return &copy, nil
}

// GetByWallet retrieves all trade rows for a wallet, newest last_trade first.
func (s *TradeStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.WalletTrade, error) {
	return s.GetByWalletSorted(ctx, wallet, storage.SortByLastTrade, storage.SortDesc)
}

// GetByWalletSorted retrieves a wallet's rows ordered by an allow-listed column.
func (s *TradeStore) GetByWalletSorted(_ context.Context, wallet, sortBy string, dir storage.SortDirection) ([]*domain.WalletTrade, error) {
	if !storage.ValidSortField(sortBy) {
		return nil, storage.ErrInvalidInput
	}
	if dir != storage.SortAsc && dir != storage.SortDesc {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.WalletTrade
	for _, t := range s.data {
		if t.Wallet == wallet {
			copy := *t
			result = append(result, &copy)
		}
	}

	sortTrades(result, sortBy, dir)
	return result, nil
}

// GetByToken retrieves all rows for a token mint, newest last_trade first.
func (s *TradeStore) GetByToken(_ context.Context, tokenAddress string) ([]*domain.WalletTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.WalletTrade
	for _, t := range s.data {
		if t.TokenAddress == tokenAddress {
			copy := *t
			result = append(result, &copy)
		}
	}

	sortTrades(result, storage.SortByLastTrade, storage.SortDesc)
	return result, nil
}

// LatestTradeTime returns the max last_trade for a wallet, nil when absent.
func (s *TradeStore) LatestTradeTime(_ context.Context, wallet string) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *time.Time
	for _, t := range s.data {
		if t.Wallet != wallet || t.LastTrade == nil {
			continue
		}
		if latest == nil || t.LastTrade.After(*latest) {
			ts := *t.LastTrade
			latest = &ts
		}
	}

	return latest, nil
}

// UpsertBatch writes all rows or none. Rows overwrite existing entries.
func (s *TradeStore) UpsertBatch(_ context.Context, trades []*domain.WalletTrade) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before touching state so a failure
	// mid-batch cannot leave a partial write behind.
	for _, t := range trades {
		if t == nil || t.ID == "" || t.Wallet == "" || t.TokenAddress == "" {
			return storage.ErrInvalidInput
		}
	}

	now := time.Now()
	for _, t := range trades {
		copy := *t
		if existing, ok := s.data[t.ID]; ok {
			copy.CreatedAt = existing.CreatedAt
		} else if copy.CreatedAt.IsZero() {
			copy.CreatedAt = now
		}
		copy.UpdatedAt = now
		s.data[t.ID] = &copy
	}

	return nil
}

// sortTrades orders trades by the given column, matching the NULLS LAST
// behavior of the postgres store for the timestamp columns.
func sortTrades(trades []*domain.WalletTrade, sortBy string, dir storage.SortDirection) {
	desc := dir == storage.SortDesc

	less := func(i, j int) bool {
		a, b := trades[i], trades[j]
		switch sortBy {
		case storage.SortByTokenName:
			return cmpOrdered(strings.ToLower(a.TokenName), strings.ToLower(b.TokenName), desc)
		case storage.SortByFirstTrade:
			return cmpTimePtr(a.FirstTrade, b.FirstTrade, desc)
		case storage.SortByLastTrade:
			return cmpTimePtr(a.LastTrade, b.LastTrade, desc)
		case storage.SortByBuys:
			return cmpOrdered(a.Buys, b.Buys, desc)
		case storage.SortBySells:
			return cmpOrdered(a.Sells, b.Sells, desc)
		case storage.SortByInvestedSOL:
			return cmpOrdered(a.InvestedSOL, b.InvestedSOL, desc)
		case storage.SortByRealizedPnL:
			return cmpOrdered(a.RealizedPnL, b.RealizedPnL, desc)
		case storage.SortByROI:
			return cmpOrdered(a.ROI, b.ROI, desc)
		}
		return false
	}

	sort.SliceStable(trades, less)
}

func cmpOrdered[T int | float64 | string](a, b T, desc bool) bool {
	if desc {
		return a > b
	}
	return a < b
}

// cmpTimePtr orders timestamps with nil values always last.
func cmpTimePtr(a, b *time.Time, desc bool) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	if desc {
		return a.After(*b)
	}
	return a.Before(*b)
}
