package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cuidaelmango/backend/internal/domain"
)

// RetrieverConfig holds configuration for the candidate retriever
type RetrieverConfig struct {
	CandidateLimit  int
	CacheTTL        time.Duration
	RetrieveTimeout time.Duration
}

// CandidateRetriever returns a bounded, pre-ranked candidate set from the
// target store's catalog for one normalized query. Catalog pages are served
// through a TTL cache, so retrieval tolerates a bounded staleness window.
type CandidateRetriever struct {
	catalog         domain.CatalogRepository
	cache           domain.CacheRepository
	candidateLimit  int
	cacheTTL        time.Duration
	retrieveTimeout time.Duration
}

// NewCandidateRetriever creates a retriever over the given catalog and cache
func NewCandidateRetriever(
	catalog domain.CatalogRepository,
	cache domain.CacheRepository,
	config RetrieverConfig,
) *CandidateRetriever {
	limit := config.CandidateLimit
	if limit <= 0 {
		limit = 20
	}
	ttl := config.CacheTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	timeout := config.RetrieveTimeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	return &CandidateRetriever{
		catalog:         catalog,
		cache:           cache,
		candidateLimit:  limit,
		cacheTTL:        ttl,
		retrieveTimeout: timeout,
	}
}

// Retrieve finds up to the configured limit of candidate products in the
// target store, ordered by token-overlap with the origin name so the
// scorer only evaluates a relevant set. A name that normalizes to nothing
// yields ErrNoCandidates rather than the whole catalog.
func (r *CandidateRetriever) Retrieve(
	ctx context.Context,
	originName string,
	target domain.Store,
) ([]domain.Product, error) {
	tokens := NormalizeTokens(originName, "")
	if len(tokens) == 0 {
		return nil, domain.ErrNoCandidates
	}

	keyword := searchKeyword(tokens)
	if len(keyword) < 2 {
		return nil, domain.ErrNoCandidates
	}

	ctx, cancel := context.WithTimeout(ctx, r.retrieveTimeout)
	defer cancel()

	products, err := r.searchWithCache(ctx, target, keyword)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, domain.ErrNoCandidates
	}

	rankByTokenOverlap(products, tokens)
	if len(products) > r.candidateLimit {
		products = products[:r.candidateLimit]
	}
	return products, nil
}

// searchWithCache serves a catalog page from cache when fresh, falling
// back to the catalog repository and caching the page on a miss.
func (r *CandidateRetriever) searchWithCache(
	ctx context.Context,
	store domain.Store,
	keyword string,
) ([]domain.Product, error) {
	cacheKey := fmt.Sprintf("candidatos:%s:%s:%d", store, keyword, r.candidateLimit)

	if cached, err := r.cache.Get(ctx, cacheKey); err == nil && cached != nil {
		if products, ok := decodeCachedProducts(cached); ok {
			return products, nil
		}
	}

	products, err := r.catalog.SearchProducts(ctx, store, keyword, r.candidateLimit)
	if err != nil {
		return nil, err
	}

	// Best effort: a failed cache write never fails the retrieval
	_ = r.cache.Set(ctx, cacheKey, products, r.cacheTTL)

	return products, nil
}

// searchKeyword picks the most informative token for the substring query:
// the longest non-quantity token, falling back to the first token.
func searchKeyword(tokens []string) string {
	best := ""
	for _, t := range tokens {
		if t[0] >= '0' && t[0] <= '9' {
			continue
		}
		if len(t) > len(best) {
			best = t
		}
	}
	if best == "" {
		best = tokens[0]
	}
	return best
}

// rankByTokenOverlap orders products by how many of the origin tokens
// appear in their normalized name, descending. Catalog order is kept for
// equal counts so the pre-filter stays deterministic.
func rankByTokenOverlap(products []domain.Product, originTokens []string) {
	type ranked struct {
		product domain.Product
		overlap int
	}
	entries := make([]ranked, len(products))
	for i, p := range products {
		name := p.NormalizedName
		if name == "" {
			name = NormalizeName(p.Name)
		}
		entry := ranked{product: p}
		for _, t := range originTokens {
			if strings.Contains(name, t) {
				entry.overlap++
			}
		}
		entries[i] = entry
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].overlap > entries[j].overlap
	})
	for i, e := range entries {
		products[i] = e.product
	}
}

// decodeCachedProducts converts a cached value (JSON round-tripped by the
// cache, mirroring Redis semantics) back into products.
func decodeCachedProducts(value interface{}) ([]domain.Product, bool) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, false
	}
	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, false
	}
	return products, true
}
