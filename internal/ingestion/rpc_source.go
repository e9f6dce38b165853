package ingestion

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"solana-wallet-sync/internal/domain"
	"solana-wallet-sync/internal/observability"
	"solana-wallet-sync/internal/solana"
)

// solEpsilon is the noise threshold for native balance deltas in SOL.
// Anything smaller is treated as no movement (rent adjustments, dust).
const solEpsilon = 1e-6

// signaturePageLimit caps one getSignaturesForAddress page.
const signaturePageLimit = 1000

// RPCTransactionSource fetches wallet transactions from Solana RPC and
// groups them by token mint.
type RPCTransactionSource struct {
	rpc      solana.RPCClient
	resolver MetadataResolver
	logger   *log.Logger
}

// NewRPCTransactionSource creates an RPC-backed transaction source.
func NewRPCTransactionSource(rpc solana.RPCClient, resolver MetadataResolver, logger *log.Logger) *RPCTransactionSource {
	if logger == nil {
		logger = log.New(log.Writer(), "[ingestion] ", log.LstdFlags)
	}
	return &RPCTransactionSource{
		rpc:      rpc,
		resolver: resolver,
		logger:   logger,
	}
}

var _ TransactionSource = (*RPCTransactionSource)(nil)

// FetchTokenActivity returns the wallet's transactions since startTime
// grouped by mint. Individual transaction failures are logged and skipped;
// a failure listing signatures aborts the fetch.
func (s *RPCTransactionSource) FetchTokenActivity(ctx context.Context, wallet string, startTime time.Time) (map[string]*domain.TokenActivity, error) {
	endTime := time.Now()

	sigs, err := s.collectSignatures(ctx, wallet, startTime, endTime)
	if err != nil {
		return nil, fmt.Errorf("collect signatures for %s: %w", wallet, err)
	}

	activity := make(map[string]*domain.TokenActivity)

	for _, sig := range sigs {
		tx, err := s.rpc.GetParsedTransaction(ctx, sig.Signature)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// One bad transaction must not abort the wallet's whole sync.
			s.logger.Printf("skip transaction %s: %v", sig.Signature, err)
			observability.RecordTransactionSkipped("fetch_error")
			continue
		}
		if tx == nil || !tx.HasMeta {
			observability.RecordTransactionSkipped("missing_meta")
			continue
		}

		raw, mints := s.reduceTransaction(wallet, tx)
		if raw == nil {
			continue
		}

		for _, mint := range mints {
			entry, ok := activity[mint]
			if !ok {
				entry = &domain.TokenActivity{
					Mint:      mint,
					TokenName: domain.UnknownTokenName,
				}
				activity[mint] = entry
			}
			entry.Transactions = append(entry.Transactions, *raw)
		}
		observability.RecordTransactionProcessed()
	}

	s.resolveNames(ctx, activity)

	return activity, nil
}

// collectSignatures pages backwards through getSignaturesForAddress and
// keeps signatures with startTime < blockTime <= endTime. The RPC returns
// newest first, so a page ending before startTime terminates the walk.
func (s *RPCTransactionSource) collectSignatures(ctx context.Context, wallet string, startTime, endTime time.Time) ([]solana.SignatureInfo, error) {
	var kept []solana.SignatureInfo
	var before string

	for {
		opts := &solana.SignaturesOpts{Limit: signaturePageLimit}
		if before != "" {
			opts.Before = before
		}

		page, err := s.rpc.GetSignaturesForAddress(ctx, wallet, opts)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return kept, nil
		}

		for _, sig := range page {
			if sig.BlockTime == nil {
				continue
			}
			blockTime := time.Unix(*sig.BlockTime, 0)
			if !blockTime.After(startTime) {
				// Past the window; older entries only get older.
				return kept, nil
			}
			if blockTime.After(endTime) {
				continue
			}
			kept = append(kept, sig)
		}

		before = page[len(page)-1].Signature
		if len(page) < signaturePageLimit {
			return kept, nil
		}
	}
}

// reduceTransaction converts a parsed transaction into the domain form,
// filtered to the tracked wallet. Returns nil when the transaction does
// not touch the wallet's token accounts or native balance. The returned
// mint list is deduplicated across the pre and post sides.
func (s *RPCTransactionSource) reduceTransaction(wallet string, tx *solana.ParsedTransaction) (*domain.RawTransaction, []string) {
	pre := filterOwned(tx.PreTokenBalances, wallet)
	post := filterOwned(tx.PostTokenBalances, wallet)
	solChange := walletSolChange(wallet, tx)

	if len(pre) == 0 && len(post) == 0 && solChange == nil {
		return nil, nil
	}

	raw := &domain.RawTransaction{
		Signature:         tx.Signature,
		Slot:              tx.Slot,
		BlockTime:         time.Unix(tx.BlockTime, 0),
		Success:           tx.Succeeded(),
		FeeSOL:            float64(tx.FeeLamports) / solana.LamportsPerSOL,
		PreTokenBalances:  pre,
		PostTokenBalances: post,
		SolChange:         solChange,
	}

	seen := make(map[string]struct{})
	var mints []string
	for _, b := range pre {
		if _, ok := seen[b.Mint]; !ok {
			seen[b.Mint] = struct{}{}
			mints = append(mints, b.Mint)
		}
	}
	for _, b := range post {
		if _, ok := seen[b.Mint]; !ok {
			seen[b.Mint] = struct{}{}
			mints = append(mints, b.Mint)
		}
	}

	return raw, mints
}

// walletSolChange locates the wallet in the transaction's account list
// and returns its native balance delta in SOL, or nil when the account
// is absent or the delta is below the noise threshold.
func walletSolChange(wallet string, tx *solana.ParsedTransaction) *float64 {
	idx := -1
	for i, key := range tx.AccountKeys {
		if key == wallet {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(tx.PreBalances) || idx >= len(tx.PostBalances) {
		return nil
	}

	preSOL := float64(tx.PreBalances[idx]) / solana.LamportsPerSOL
	postSOL := float64(tx.PostBalances[idx]) / solana.LamportsPerSOL
	diff := postSOL - preSOL

	if math.Abs(diff) < solEpsilon {
		return nil
	}
	return &diff
}

func filterOwned(balances []solana.ParsedTokenBalance, wallet string) []domain.TokenBalance {
	var owned []domain.TokenBalance
	for _, b := range balances {
		if b.Owner != wallet {
			continue
		}
		owned = append(owned, domain.TokenBalance{
			Mint:     b.Mint,
			Owner:    b.Owner,
			Amount:   b.UIAmount,
			Decimals: b.Decimals,
		})
	}
	return owned
}

// resolveNames fills in token display names for every mint in the map.
func (s *RPCTransactionSource) resolveNames(ctx context.Context, activity map[string]*domain.TokenActivity) {
	if s.resolver == nil || len(activity) == 0 {
		return
	}

	mints := make([]string, 0, len(activity))
	for mint := range activity {
		mints = append(mints, mint)
	}

	names := s.resolver.ResolveNames(ctx, mints)
	for mint, entry := range activity {
		if name, ok := names[mint]; ok && name != "" {
			entry.TokenName = name
		}
	}
}

// RPCBalanceSource fetches wallet SOL balances over RPC.
type RPCBalanceSource struct {
	rpc solana.RPCClient
}

// NewRPCBalanceSource creates an RPC-backed balance source.
func NewRPCBalanceSource(rpc solana.RPCClient) *RPCBalanceSource {
	return &RPCBalanceSource{rpc: rpc}
}

var _ BalanceSource = (*RPCBalanceSource)(nil)

// FetchBalance returns the wallet's current SOL balance.
func (s *RPCBalanceSource) FetchBalance(ctx context.Context, wallet string) (*domain.WalletBalance, error) {
	balance, err := s.rpc.GetBalance(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("get balance for %s: %w", wallet, err)
	}

	return &domain.WalletBalance{
		Wallet:      wallet,
		SOL:         float64(balance.Lamports) / solana.LamportsPerSOL,
		Lamports:    balance.Lamports,
		Slot:        balance.Slot,
		RetrievedAt: time.Now(),
	}, nil
}
