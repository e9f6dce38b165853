package ingestion

import (
	"context"
	"log"

	lru "github.com/hashicorp/golang-lru/v2"

	"solana-wallet-sync/internal/domain"
	"solana-wallet-sync/internal/solana"
)

// defaultMetadataCacheSize bounds the resolver's mint→name cache.
// Token names are immutable in practice, so entries never expire.
const defaultMetadataCacheSize = 2048

// RPCMetadataResolver resolves token names via the DAS getAsset call,
// caching results in an LRU so repeated syncs of the same wallets do not
// re-fetch metadata for mints already seen.
type RPCMetadataResolver struct {
	rpc    solana.RPCClient
	cache  *lru.Cache[string, string]
	logger *log.Logger
}

// NewRPCMetadataResolver creates a metadata resolver with an LRU cache.
func NewRPCMetadataResolver(rpc solana.RPCClient, logger *log.Logger) *RPCMetadataResolver {
	if logger == nil {
		logger = log.New(log.Writer(), "[metadata] ", log.LstdFlags)
	}

	// lru.New only fails on a non-positive size.
	cache, err := lru.New[string, string](defaultMetadataCacheSize)
	if err != nil {
		panic(err)
	}

	return &RPCMetadataResolver{
		rpc:    rpc,
		cache:  cache,
		logger: logger,
	}
}

var _ MetadataResolver = (*RPCMetadataResolver)(nil)

// ResolveNames returns a display name for every mint. A mint whose
// metadata cannot be fetched maps to domain.UnknownTokenName; individual
// failures never abort the batch.
func (r *RPCMetadataResolver) ResolveNames(ctx context.Context, mints []string) map[string]string {
	names := make(map[string]string, len(mints))

	for _, mint := range mints {
		if name, ok := r.cache.Get(mint); ok {
			names[mint] = name
			continue
		}

		name := r.fetchName(ctx, mint)
		names[mint] = name
		if name != domain.UnknownTokenName {
			r.cache.Add(mint, name)
		}
	}

	return names
}

func (r *RPCMetadataResolver) fetchName(ctx context.Context, mint string) string {
	asset, err := r.rpc.GetAsset(ctx, mint)
	if err != nil {
		r.logger.Printf("metadata lookup failed for %s: %v", mint, err)
		return domain.UnknownTokenName
	}
	if asset == nil {
		return domain.UnknownTokenName
	}

	if asset.Name != "" {
		return asset.Name
	}
	if asset.Symbol != "" {
		return asset.Symbol
	}
	return domain.UnknownTokenName
}
