package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-wallet-sync/internal/domain"
	"solana-wallet-sync/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const tradeColumns = `
	id, wallet, token_name, token_address,
	first_trade, last_trade, buys, sells,
	invested_sol, invested_sol_usd, received_sol,
	realized_pnl, realized_pnl_usd, roi,
	created_at, updated_at
`

// GetByID retrieves a trade row by its "wallet|token" key.
func (s *TradeStore) GetByID(ctx context.Context, id string) (*domain.WalletTrade, error) {
	if id == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	trade, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade by id: %w", err)
	}
	return trade, nil
}

// GetByWallet retrieves all trade rows for a wallet, newest last_trade first.
func (s *TradeStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.WalletTrade, error) {
	return s.GetByWalletSorted(ctx, wallet, storage.SortByLastTrade, storage.SortDesc)
}

// GetByWalletSorted retrieves a wallet's rows ordered by an allow-listed
// column. The sort field is validated against the allowlist and the
// direction against ASC/DESC before either is interpolated, so no caller
// input reaches SQL unchecked.
func (s *TradeStore) GetByWalletSorted(ctx context.Context, wallet, sortBy string, dir storage.SortDirection) ([]*domain.WalletTrade, error) {
	if !storage.ValidSortField(sortBy) {
		return nil, storage.ErrInvalidInput
	}
	if dir != storage.SortAsc && dir != storage.SortDesc {
		return nil, storage.ErrInvalidInput
	}

	query := fmt.Sprintf(
		`SELECT %s FROM trades WHERE wallet = $1 ORDER BY %s %s NULLS LAST`,
		tradeColumns, sortBy, dir,
	)

	rows, err := s.pool.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("get trades by wallet: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// GetByToken retrieves all rows for a token mint across wallets.
func (s *TradeStore) GetByToken(ctx context.Context, tokenAddress string) ([]*domain.WalletTrade, error) {
	query := `SELECT ` + tradeColumns + `
		FROM trades
		WHERE token_address = $1
		ORDER BY last_trade DESC NULLS LAST`

	rows, err := s.pool.Query(ctx, query, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("get trades by token: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// LatestTradeTime returns the max last_trade for a wallet, nil when the
// wallet has no persisted trades.
func (s *TradeStore) LatestTradeTime(ctx context.Context, wallet string) (*time.Time, error) {
	query := `SELECT MAX(last_trade) FROM trades WHERE wallet = $1`

	var latest *time.Time
	if err := s.pool.QueryRow(ctx, query, wallet).Scan(&latest); err != nil {
		return nil, fmt.Errorf("get latest trade time: %w", err)
	}
	return latest, nil
}

// UpsertBatch writes all rows inside a single transaction. Rows replace
// existing entries for the same key; the caller supplies already-merged
// cumulative values.
func (s *TradeStore) UpsertBatch(ctx context.Context, trades []*domain.WalletTrade) error {
	if len(trades) == 0 {
		return nil
	}

	for _, t := range trades {
		if t == nil || t.ID == "" || t.Wallet == "" || t.TokenAddress == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trades (
			id, wallet, token_name, token_address,
			first_trade, last_trade, buys, sells,
			invested_sol, invested_sol_usd, received_sol,
			realized_pnl, realized_pnl_usd, roi
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			token_name = EXCLUDED.token_name,
			first_trade = EXCLUDED.first_trade,
			last_trade = EXCLUDED.last_trade,
			buys = EXCLUDED.buys,
			sells = EXCLUDED.sells,
			invested_sol = EXCLUDED.invested_sol,
			invested_sol_usd = EXCLUDED.invested_sol_usd,
			received_sol = EXCLUDED.received_sol,
			realized_pnl = EXCLUDED.realized_pnl,
			realized_pnl_usd = EXCLUDED.realized_pnl_usd,
			roi = EXCLUDED.roi,
			updated_at = NOW()
	`

	for _, t := range trades {
		_, err := tx.Exec(ctx, query,
			t.ID,
			t.Wallet,
			t.TokenName,
			t.TokenAddress,
			t.FirstTrade,
			t.LastTrade,
			t.Buys,
			t.Sells,
			t.InvestedSOL,
			t.InvestedUSD,
			t.ReceivedSOL,
			t.RealizedPnL,
			t.RealizedPnLUSD,
			t.ROI,
		)
		if err != nil {
			return fmt.Errorf("upsert trade %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTrade scans a single trade row.
func scanTrade(row rowScanner) (*domain.WalletTrade, error) {
	var t domain.WalletTrade

	err := row.Scan(
		&t.ID,
		&t.Wallet,
		&t.TokenName,
		&t.TokenAddress,
		&t.FirstTrade,
		&t.LastTrade,
		&t.Buys,
		&t.Sells,
		&t.InvestedSOL,
		&t.InvestedUSD,
		&t.ReceivedSOL,
		&t.RealizedPnL,
		&t.RealizedPnLUSD,
		&t.ROI,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// scanTrades scans multiple rows into a slice of WalletTrade.
func scanTrades(rows pgx.Rows) ([]*domain.WalletTrade, error) {
	var trades []*domain.WalletTrade

	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
