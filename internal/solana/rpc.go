package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface the sync path needs.
type RPCClient interface {
	// GetSignaturesForAddress retrieves signatures for an address with pagination.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetParsedTransaction retrieves a transaction by signature with parsed
	// balance information. Returns nil when the transaction is not found.
	GetParsedTransaction(ctx context.Context, signature string) (*ParsedTransaction, error)

	// GetAsset retrieves DAS metadata for a token mint.
	// Returns nil when the asset is unknown to the provider.
	GetAsset(ctx context.Context, mint string) (*Asset, error)

	// GetBalance retrieves the current lamport balance for an address.
	GetBalance(ctx context.Context, address string) (*Balance, error)
}

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Until  string // Search until this signature
	Limit  int    // Maximum number of signatures to return
}

// ParsedTokenBalance is one entry of pre/postTokenBalances.
type ParsedTokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	UIAmount     float64
	Decimals     int
}

// ParsedTransaction is a transaction fetched with jsonParsed encoding,
// reduced to balance movements and account identity.
type ParsedTransaction struct {
	Signature         string
	Slot              int64
	BlockTime         int64 // Unix timestamp (seconds)
	Err               interface{}
	FeeLamports       uint64
	PreBalances       []uint64 // lamports, indexed by account position
	PostBalances      []uint64
	PreTokenBalances  []ParsedTokenBalance
	PostTokenBalances []ParsedTokenBalance
	AccountKeys       []string
	HasMeta           bool
}

// Succeeded reports whether the transaction executed without error.
func (t *ParsedTransaction) Succeeded() bool {
	return t.Err == nil
}

// Asset is DAS token metadata.
type Asset struct {
	Mint   string
	Name   string
	Symbol string
}

// Balance is a lamport balance with the slot it was observed at.
type Balance struct {
	Lamports uint64
	Slot     int64
}

// LamportsPerSOL converts between the native integer unit and SOL.
const LamportsPerSOL = 1e9
