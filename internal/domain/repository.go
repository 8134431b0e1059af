package domain

import (
	"context"
	"time"
)

// CatalogRepository defines the read-only query surface over the product
// catalog. Writes happen entirely outside this service (ingestion).
type CatalogRepository interface {
	// SearchProducts performs a substring match against the normalized
	// name index of one store, ordered by price ascending, bounded by limit.
	SearchProducts(ctx context.Context, store Store, query string, limit int) ([]Product, error)

	// GetProduct fetches a single product by id. Returns ErrProductNotFound
	// when the id is absent.
	GetProduct(ctx context.Context, id int64) (*Product, error)
}

// EquivalenceRepository persists user-confirmed product pairings.
// Pairs are unordered; Lookup must resolve from either side. Record is
// idempotent and safe under concurrent calls for the same pair.
type EquivalenceRepository interface {
	// Lookup returns the confirmed counterpart of productID in the target
	// store, or ErrProductNotFound when no equivalence is recorded.
	Lookup(ctx context.Context, productID int64, target Store) (*Product, error)

	// Record stores the unordered pair (aID, bID). Recording the same pair
	// twice has no additional effect.
	Record(ctx context.Context, aID, bID int64) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
