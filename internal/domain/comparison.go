package domain

// ConfidenceTier classifies a match score into a confidence band
type ConfidenceTier string

const (
	TierLow      ConfidenceTier = "BAJA"
	TierMedium   ConfidenceTier = "MEDIA"
	TierHigh     ConfidenceTier = "ALTA"
	TierVeryHigh ConfidenceTier = "MUY_ALTA"
)

// Tier boundaries. TierForScore never returns TierVeryHigh: that tier is
// reserved for manual corrections, which bypass scoring entirely.
const (
	TierMediumMin = 70
	TierHighMin   = 85
)

// TierForScore maps a match score to its confidence tier:
// score < 70 BAJA, 70 <= score < 85 MEDIA, score >= 85 ALTA.
func TierForScore(score int) ConfidenceTier {
	switch {
	case score >= TierHighMin:
		return TierHigh
	case score >= TierMediumMin:
		return TierMedium
	default:
		return TierLow
	}
}

// Alternative is a ranked runner-up candidate attached to a match line,
// exposed so the user can manually override the automatic choice.
type Alternative struct {
	Product
	MatchScore int            `json:"match_score"`
	MatchTier  ConfidenceTier `json:"nivel_confianza"`
}

// Line is one row of a per-store comparison result. Exactly one of the
// following shapes applies: origin (EsOrigen), automatic match
// (EsMatchAutomatico), manual correction (CorregidoManualmente), or
// unavailable (NoDisponible, price zero).
type Line struct {
	ID                   int64          `json:"id"`
	Store                Store          `json:"tienda"`
	Name                 string         `json:"nombre"`
	Brand                string         `json:"marca,omitempty"`
	Price                float64        `json:"precio"`
	Promo                string         `json:"promo,omitempty"`
	ImageURL             string         `json:"imagen_url,omitempty"`
	EsOrigen             bool           `json:"es_origen,omitempty"`
	EsMatchAutomatico    bool           `json:"es_match_automatico,omitempty"`
	CorregidoManualmente bool           `json:"corregido_manualmente,omitempty"`
	NoDisponible         bool           `json:"no_disponible,omitempty"`
	ProductoOrigenID     int64          `json:"producto_origen_id,omitempty"`
	MatchScore           int            `json:"match_score,omitempty"`
	MatchTier            ConfidenceTier `json:"nivel_confianza,omitempty"`
	Alternativas         []Alternative  `json:"alternativas,omitempty"`
}

// Totals holds the per-store cart totals, excluding unavailable lines
type Totals struct {
	Carrefour float64 `json:"Carrefour"`
	Disco     float64 `json:"Disco"`
}

// Metadata summarizes match quality across one comparison
type Metadata struct {
	TotalProductos       int `json:"total_productos"`
	MatchesEncontrados   int `json:"matches_encontrados"`
	MatchesAltaConfianza int `json:"matches_alta_confianza"`
	ProductosSinMatch    int `json:"productos_sin_match"`
}

// Recommendation names the cheaper store. Present only when both totals
// are strictly positive and differ.
type Recommendation struct {
	Tienda     Store   `json:"tienda"`
	Ahorro     float64 `json:"ahorro"`
	Porcentaje float64 `json:"porcentaje"`
}

// ComparisonResult is the full outcome of comparing a shopping list
// across both catalogs.
type ComparisonResult struct {
	Carrefour     []Line          `json:"Carrefour"`
	Disco         []Line          `json:"Disco"`
	Totales       Totals          `json:"totales"`
	Metadata      Metadata        `json:"metadata"`
	Recomendacion *Recommendation `json:"recomendacion,omitempty"`
}

// Lines returns the line slice for the given store
func (r *ComparisonResult) Lines(store Store) []Line {
	if store == StoreCarrefour {
		return r.Carrefour
	}
	return r.Disco
}

// Equivalence is a durable, user-confirmed pairing of two products across
// stores. The pair is unordered: lookup resolves from either side.
type Equivalence struct {
	ProductoAID int64 `json:"producto_a_id"`
	ProductoBID int64 `json:"producto_b_id"`
	Confianza   int   `json:"confianza"`
}
