package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cuidaelmango/backend/internal/domain"
)

// ComparisonConfig holds configuration for the comparison service
type ComparisonConfig struct {
	Workers       int
	LookupTimeout time.Duration
}

// ComparisonService drives the full comparison flow: per origin product it
// consults the equivalence store, retrieves and ranks candidates in the
// opposite store, and assembles per-store carts with totals and a savings
// recommendation. Compare never writes; Correct is the only mutating
// operation in the engine.
type ComparisonService struct {
	catalog       domain.CatalogRepository
	equivalences  domain.EquivalenceRepository
	retriever     *CandidateRetriever
	matcher       *MatchingService
	workers       int
	lookupTimeout time.Duration
}

// NewComparisonService creates a comparison service with its collaborators
func NewComparisonService(
	catalog domain.CatalogRepository,
	equivalences domain.EquivalenceRepository,
	retriever *CandidateRetriever,
	matcher *MatchingService,
	config ComparisonConfig,
) *ComparisonService {
	workers := config.Workers
	if workers <= 0 {
		workers = 4
	}
	lookupTimeout := config.LookupTimeout
	if lookupTimeout == 0 {
		lookupTimeout = 2 * time.Second
	}
	return &ComparisonService{
		catalog:       catalog,
		equivalences:  equivalences,
		retriever:     retriever,
		matcher:       matcher,
		workers:       workers,
		lookupTimeout: lookupTimeout,
	}
}

// Compare matches every origin product against the opposite store and
// returns both carts. Per-product work runs concurrently up to the worker
// bound, but the output line order always follows the input order. A
// failure on one product degrades that line to unavailable without
// affecting its siblings.
func (s *ComparisonService) Compare(
	ctx context.Context,
	origins []domain.OriginProduct,
) (*domain.ComparisonResult, error) {
	if len(origins) == 0 {
		return nil, fmt.Errorf("%w: empty product list", domain.ErrInvalidRequest)
	}
	for _, origin := range origins {
		if !origin.Store.IsValid() {
			return nil, fmt.Errorf("%w: unknown store %q", domain.ErrInvalidRequest, origin.Store)
		}
	}

	oppositeLines := make([]domain.Line, len(origins))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.workers)
	cancelled := false
	for i, origin := range origins {
		select {
		case <-ctx.Done():
			cancelled = true
		case sem <- struct{}{}:
		}
		if cancelled {
			break
		}
		wg.Add(1)
		go func(idx int, origin domain.OriginProduct) {
			defer wg.Done()
			defer func() { <-sem }()
			oppositeLines[idx] = s.matchOne(ctx, origin)
		}(i, origin)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.assemble(origins, oppositeLines), nil
}

// matchOne resolves the opposite-store line for a single origin product.
// Any retrieval, scoring or timeout failure degrades to an unavailable
// line; this method never returns an error.
func (s *ComparisonService) matchOne(ctx context.Context, origin domain.OriginProduct) domain.Line {
	opposite := origin.Store.Opposite()

	// Confirmed equivalences win over scoring and are never re-scored
	if confirmed := s.lookupEquivalence(ctx, origin.ID, opposite); confirmed != nil {
		return correctedLine(confirmed, origin.ID)
	}

	candidates, err := s.retriever.Retrieve(ctx, origin.Name, opposite)
	if err != nil {
		return unavailableLine(origin, opposite)
	}

	ranked, err := s.matcher.RankCandidates(ctx, origin, candidates)
	if err != nil || len(ranked) == 0 {
		return unavailableLine(origin, opposite)
	}

	best := ranked[0]
	if best.Score < s.matcher.MinAcceptanceScore() {
		return unavailableLine(origin, opposite)
	}

	line := domain.Line{
		ID:                best.Product.ID,
		Store:             best.Product.Store,
		Name:              best.Product.Name,
		Brand:             best.Product.Brand,
		Price:             best.Product.Price,
		Promo:             best.Product.Promo,
		ImageURL:          best.Product.ImageURL,
		EsMatchAutomatico: true,
		ProductoOrigenID:  origin.ID,
		MatchScore:        best.Score,
		MatchTier:         best.Tier,
	}

	maxAlt := s.matcher.MaxAlternatives()
	for _, alt := range ranked[1:] {
		if len(line.Alternativas) >= maxAlt {
			break
		}
		line.Alternativas = append(line.Alternativas, domain.Alternative{
			Product:    alt.Product,
			MatchScore: alt.Score,
			MatchTier:  alt.Tier,
		})
	}

	return line
}

// lookupEquivalence checks the equivalence store under its own timeout.
// Misses and failures both return nil; a failed lookup falls back to the
// automated matching path rather than aborting the product.
func (s *ComparisonService) lookupEquivalence(ctx context.Context, productID int64, target domain.Store) *domain.Product {
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	confirmed, err := s.equivalences.Lookup(ctx, productID, target)
	if err != nil {
		return nil
	}
	return confirmed
}

// assemble builds the final result: verbatim origin lines in each
// product's own store, matched lines in the opposite store, totals that
// exclude unavailable lines, the metadata summary, and the recommendation.
func (s *ComparisonService) assemble(origins []domain.OriginProduct, oppositeLines []domain.Line) *domain.ComparisonResult {
	result := &domain.ComparisonResult{
		Metadata: domain.Metadata{TotalProductos: len(origins)},
	}

	appendLine := func(line domain.Line) {
		if line.Store == domain.StoreCarrefour {
			result.Carrefour = append(result.Carrefour, line)
		} else {
			result.Disco = append(result.Disco, line)
		}
		if !line.NoDisponible {
			if line.Store == domain.StoreCarrefour {
				result.Totales.Carrefour += line.Price
			} else {
				result.Totales.Disco += line.Price
			}
		}
	}

	for i, origin := range origins {
		appendLine(domain.Line{
			ID:       origin.ID,
			Store:    origin.Store,
			Name:     origin.Name,
			Brand:    origin.Brand,
			Price:    origin.Price,
			Promo:    origin.Promo,
			ImageURL: origin.ImageURL,
			EsOrigen: true,
		})

		line := oppositeLines[i]
		appendLine(line)

		switch {
		case line.NoDisponible:
			result.Metadata.ProductosSinMatch++
		default:
			result.Metadata.MatchesEncontrados++
			if line.CorregidoManualmente || line.MatchScore >= domain.TierHighMin {
				result.Metadata.MatchesAltaConfianza++
			}
		}
	}

	result.Recomendacion = recommend(result.Totales)
	return result
}

// recommend names the cheaper store. No recommendation on a tie or when
// either total is zero (a zero total signals no valid cart, not a win).
func recommend(totals domain.Totals) *domain.Recommendation {
	if totals.Carrefour <= 0 || totals.Disco <= 0 || totals.Carrefour == totals.Disco {
		return nil
	}

	cheaper := domain.StoreCarrefour
	saving := totals.Disco - totals.Carrefour
	if totals.Disco < totals.Carrefour {
		cheaper = domain.StoreDisco
		saving = totals.Carrefour - totals.Disco
	}

	percentage := saving / math.Max(totals.Carrefour, totals.Disco) * 100

	return &domain.Recommendation{
		Tienda:     cheaper,
		Ahorro:     math.Round(saving*100) / 100,
		Porcentaje: math.Round(percentage*10) / 10,
	}
}

// Correct applies a manual override: it validates that the chosen product
// lives in the store opposite the origin, persists the equivalence, and
// returns the corrected line so callers can patch an in-memory comparison
// without recomputing. A persistence failure is surfaced, never swallowed.
func (s *ComparisonService) Correct(ctx context.Context, originID, chosenID int64) (*domain.Line, error) {
	origin, err := s.catalog.GetProduct(ctx, originID)
	if err != nil {
		return nil, fmt.Errorf("origin product %d: %w", originID, err)
	}
	chosen, err := s.catalog.GetProduct(ctx, chosenID)
	if err != nil {
		return nil, fmt.Errorf("chosen product %d: %w", chosenID, err)
	}
	if origin.Store == chosen.Store {
		return nil, fmt.Errorf("%w: both products belong to %s", domain.ErrSameStore, origin.Store)
	}

	if err := s.equivalences.Record(ctx, originID, chosenID); err != nil {
		if errors.Is(err, domain.ErrPersistence) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	line := correctedLine(chosen, originID)
	return &line, nil
}

// correctedLine shapes a confirmed counterpart as a line with maximal
// confidence. Corrected lines always report score 100 and tier MUY_ALTA.
func correctedLine(product *domain.Product, originID int64) domain.Line {
	return domain.Line{
		ID:                   product.ID,
		Store:                product.Store,
		Name:                 product.Name,
		Brand:                product.Brand,
		Price:                product.Price,
		Promo:                product.Promo,
		ImageURL:             product.ImageURL,
		CorregidoManualmente: true,
		ProductoOrigenID:     originID,
		MatchScore:           100,
		MatchTier:            domain.TierVeryHigh,
	}
}

// unavailableLine marks an origin product as having no acceptable match
// in the target store. Unavailable lines never contribute to totals.
func unavailableLine(origin domain.OriginProduct, target domain.Store) domain.Line {
	return domain.Line{
		Store:            target,
		Name:             "Producto no disponible",
		NoDisponible:     true,
		ProductoOrigenID: origin.ID,
	}
}
