package domain

import "time"

// WalletTrade is the persisted per-(wallet, token) trade summary.
// Corresponds to the trades table; ID is "wallet|token_address".
type WalletTrade struct {
	ID           string
	Wallet       string
	TokenName    string
	TokenAddress string

	FirstTrade *time.Time // earliest transaction touching the token
	LastTrade  *time.Time // latest transaction touching the token

	Buys  int
	Sells int

	InvestedSOL    float64 // cumulative SOL spent on buys
	InvestedUSD    float64 // USD mirror, computed at merge time
	ReceivedSOL    float64 // cumulative SOL received from sells
	RealizedPnL    float64 // ReceivedSOL - InvestedSOL
	RealizedPnLUSD float64 // USD mirror, computed at merge time
	ROI            float64 // RealizedPnL / InvestedSOL * 100, 0 when nothing invested

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TradeID builds the composite row key for a (wallet, token) pair.
func TradeID(wallet, tokenAddress string) string {
	return wallet + "|" + tokenAddress
}

// UnknownTokenName is the sentinel used when metadata resolution fails.
const UnknownTokenName = "Unknown"

// NativeMint is the mint address RPC providers report for wrapped SOL.
// The native currency is the unit of account, never a tracked holding.
const NativeMint = "So11111111111111111111111111111111111111112"
