package usecase

import (
	"context"
	"math"
	"sort"

	"github.com/cuidaelmango/backend/internal/domain"
)

// Scoring weights. Token similarity between normalized names is the
// primary signal; brand equality and package-size agreement split the rest.
const (
	weightName  = 60.0
	weightBrand = 20.0
	weightSize  = 20.0
)

// Size agreement factors by relative quantity difference. A unit mismatch
// (900ml vs 1.5L) lands in a low band even when the names are near-identical,
// because it changes the true per-unit price.
const (
	sizeFactorExact      = 1.0  // identical quantity
	sizeFactorVeryClose  = 0.9  // < 5% difference
	sizeFactorClose      = 0.75 // < 10% difference
	sizeFactorTolerable  = 0.5  // < 20% difference
	sizeFactorFar        = 0.2  // < 50% difference
	sizeFactorBothAbsent = 0.5  // neither side has a parseable size
	sizeFactorOneAbsent  = 0.2  // only one side has a parseable size
)

// variantMismatchPenalty is subtracted when both products carry a variant
// qualifier and they differ (Oreo Clasica vs Oreo Mini).
const variantMismatchPenalty = 15

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	MinAcceptanceScore int
	MaxAlternatives    int
}

// ScoredCandidate pairs a candidate product with its similarity score
// against one origin product.
type ScoredCandidate struct {
	Product    domain.Product
	Score      int
	Tier       domain.ConfidenceTier
	BrandMatch bool
	PriceDiff  float64
}

// MatchingService scores and ranks candidate products against an origin
// product. Scoring is pure and deterministic.
type MatchingService struct {
	minAcceptanceScore int
	maxAlternatives    int
}

// NewMatchingService creates a matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	threshold := config.MinAcceptanceScore
	if threshold <= 0 {
		threshold = 50
	}
	maxAlt := config.MaxAlternatives
	if maxAlt <= 0 {
		maxAlt = 3
	}
	return &MatchingService{
		minAcceptanceScore: threshold,
		maxAlternatives:    maxAlt,
	}
}

// MinAcceptanceScore returns the score below which a best candidate is
// reported as unavailable rather than matched.
func (s *MatchingService) MinAcceptanceScore() int {
	return s.minAcceptanceScore
}

// MaxAlternatives returns how many runner-up candidates a match line carries
func (s *MatchingService) MaxAlternatives() int {
	return s.maxAlternatives
}

// RankCandidates scores every candidate against the origin and returns
// them in descending score order. Ties are broken by brand match first,
// then smaller absolute price difference, then catalog insertion order
// (the incoming candidate order, kept stable).
func (s *MatchingService) RankCandidates(
	ctx context.Context,
	origin domain.OriginProduct,
	candidates []domain.Product,
) ([]ScoredCandidate, error) {
	if origin.Name == "" {
		return nil, domain.ErrInvalidRequest
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNoCandidates
	}

	originAttrs := ExtractAttributes(origin.Name)
	if origin.Brand != "" {
		originAttrs.Brand = NormalizeName(origin.Brand)
	}
	originTokens := NormalizeTokens(origin.Name, origin.Brand)

	scored := make([]ScoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		score := scoreCandidate(originTokens, originAttrs, candidate)
		candAttrs := ExtractAttributes(candidate.Name)
		if candidate.Brand != "" {
			candAttrs.Brand = NormalizeName(candidate.Brand)
		}

		scored = append(scored, ScoredCandidate{
			Product:    candidate,
			Score:      score,
			Tier:       domain.TierForScore(score),
			BrandMatch: originAttrs.Brand != "" && originAttrs.Brand == candAttrs.Brand,
			PriceDiff:  math.Abs(candidate.Price - origin.Price),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].BrandMatch != scored[j].BrandMatch {
			return scored[i].BrandMatch
		}
		return scored[i].PriceDiff < scored[j].PriceDiff
	})

	return scored, nil
}

// scoreCandidate computes the similarity score between one origin product
// and a candidate, clamped to [0,100].
func scoreCandidate(originTokens []string, originAttrs ProductAttributes, candidate domain.Product) int {
	candTokens := NormalizeTokens(candidate.Name, candidate.Brand)
	if len(originTokens) == 0 || len(candTokens) == 0 {
		return 0
	}

	candAttrs := ExtractAttributes(candidate.Name)
	if candidate.Brand != "" {
		candAttrs.Brand = NormalizeName(candidate.Brand)
	}

	score := tokenSimilarity(originTokens, candTokens) * weightName
	score += brandAgreement(originAttrs.Brand, candAttrs.Brand) * weightBrand
	score += sizeAgreement(originAttrs, candAttrs) * weightSize

	if originAttrs.Variant != "" && candAttrs.Variant != "" && originAttrs.Variant != candAttrs.Variant {
		score -= variantMismatchPenalty
	}

	result := int(math.Round(score))
	if result < 0 {
		return 0
	}
	if result > 100 {
		return 100
	}
	return result
}

// tokenSimilarity blends origin-token coverage (what fraction of the
// origin's tokens appear in the candidate), candidate coverage, and the
// Jaccard index of both token sets. Returns a value in [0,1].
func tokenSimilarity(originTokens, candTokens []string) float64 {
	originMatched := countIntersection(originTokens, candTokens)
	candMatched := countIntersection(candTokens, originTokens)
	union := countUnion(originTokens, candTokens)
	if union == 0 {
		return 0
	}

	originCoverage := float64(originMatched) / float64(len(originTokens))
	candCoverage := float64(candMatched) / float64(len(candTokens))
	jaccard := float64(originMatched) / float64(union)

	return originCoverage*0.60 + candCoverage*0.20 + jaccard*0.20
}

// brandAgreement returns 1 when both products carry the same brand,
// a small neutral credit when neither carries one, and 0 otherwise.
func brandAgreement(brandA, brandB string) float64 {
	switch {
	case brandA != "" && brandA == brandB:
		return 1.0
	case brandA == "" && brandB == "":
		return 0.3
	default:
		return 0
	}
}

// sizeAgreement compares normalized package quantities with a banded
// tolerance. Quantities of different kinds (grams vs milliliters) never
// agree.
func sizeAgreement(a, b ProductAttributes) float64 {
	if !a.HasSize() && !b.HasSize() {
		return sizeFactorBothAbsent
	}
	if !a.HasSize() || !b.HasSize() {
		return sizeFactorOneAbsent
	}
	if quantityKind(a.SizeUnit) != quantityKind(b.SizeUnit) {
		return 0
	}

	qtyA := a.BaseQuantity * packMultiplier(a.UnitCount)
	qtyB := b.BaseQuantity * packMultiplier(b.UnitCount)

	diff := math.Abs(qtyA-qtyB) / math.Max(qtyA, qtyB)
	switch {
	case diff == 0:
		return sizeFactorExact
	case diff < 0.05:
		return sizeFactorVeryClose
	case diff < 0.10:
		return sizeFactorClose
	case diff < 0.20:
		return sizeFactorTolerable
	case diff < 0.50:
		return sizeFactorFar
	default:
		return 0
	}
}

// quantityKind groups units into weight vs volume
func quantityKind(unit string) string {
	switch unit {
	case "kg", "g", "gr", "grs":
		return "weight"
	case "l", "lt", "lts", "ml", "cc":
		return "volume"
	}
	return ""
}

// packMultiplier converts a pack count into a total-quantity factor
func packMultiplier(count int) float64 {
	if count <= 1 {
		return 1
	}
	return float64(count)
}

// countIntersection returns how many distinct tokens of a also appear in b
func countIntersection(a, b []string) int {
	set := make(map[string]bool, len(b))
	for _, t := range b {
		set[t] = true
	}
	n := 0
	seen := make(map[string]bool, len(a))
	for _, t := range a {
		if set[t] && !seen[t] {
			seen[t] = true
			n++
		}
	}
	return n
}

// countUnion returns the number of distinct tokens across both slices
func countUnion(a, b []string) int {
	set := make(map[string]bool, len(a)+len(b))
	for _, t := range a {
		set[t] = true
	}
	for _, t := range b {
		set[t] = true
	}
	return len(set)
}
