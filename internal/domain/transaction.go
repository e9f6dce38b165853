package domain

import "time"

// TokenBalance is a wallet-owned token account balance taken from
// transaction meta (pre or post side), amounts in UI units.
type TokenBalance struct {
	Mint     string
	Owner    string
	Amount   float64
	Decimals int
}

// RawTransaction is a single on-chain transaction touching a tracked
// wallet, reduced to the fields the trade aggregation needs.
// Balance lists are pre-filtered to entries owned by the wallet.
type RawTransaction struct {
	Signature         string
	Slot              int64
	BlockTime         time.Time
	Success           bool
	FeeSOL            float64
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance

	// SolChange is the wallet's native balance delta in SOL. Nil when the
	// wallet's account index could not be located in the transaction or
	// the delta is below noise threshold.
	SolChange *float64
}

// TokenActivity groups a wallet's transactions by token mint.
type TokenActivity struct {
	Mint         string
	TokenName    string
	Transactions []RawTransaction
}

// WalletBalance is a point-in-time SOL balance for a wallet.
type WalletBalance struct {
	Wallet      string
	SOL         float64
	Lamports    uint64
	Slot        int64
	RetrievedAt time.Time
}
