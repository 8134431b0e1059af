package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrProductNotFound is returned when a referenced product id is absent from the catalog
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrSameStore is returned when a correction pairs two products of the same store
	ErrSameStore = errors.New("equivalence must pair products from different stores")

	// ErrNoCandidates is returned when retrieval yields no usable candidates
	ErrNoCandidates = errors.New("no candidates found in target store")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrPersistence is returned when recording an equivalence fails
	ErrPersistence = errors.New("failed to persist equivalence")

	// ErrCatalogUnavailable is returned when the catalog store cannot be queried
	ErrCatalogUnavailable = errors.New("catalog query failed")
)
