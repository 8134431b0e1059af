package domain

// Store identifies one of the supported retail catalogs
type Store string

const (
	StoreCarrefour Store = "Carrefour"
	StoreDisco     Store = "Disco"
)

// IsValid reports whether the store is one of the supported catalogs
func (s Store) IsValid() bool {
	return s == StoreCarrefour || s == StoreDisco
}

// Opposite returns the other catalog. The comparison engine always matches
// an origin product against the opposite store.
func (s Store) Opposite() Store {
	if s == StoreCarrefour {
		return StoreDisco
	}
	return StoreCarrefour
}

// PromoNone is the catalog placeholder meaning "no promotion"
const PromoNone = "Precio Regular"

// Product represents a catalog row. Products are immutable once ingested
// and owned by the catalog; the engine only reads them.
type Product struct {
	ID             int64   `json:"id"`
	Store          Store   `json:"tienda"`
	Name           string  `json:"nombre"`
	NormalizedName string  `json:"nombre_normalizado,omitempty"`
	Brand          string  `json:"marca,omitempty"`
	Price          float64 `json:"precio"`
	Promo          string  `json:"promo,omitempty"`
	ImageURL       string  `json:"imagen_url,omitempty"`
}

// HasPromo reports whether the product carries a real promotion label
func (p *Product) HasPromo() bool {
	return p.Promo != "" && p.Promo != PromoNone
}

// OriginProduct is the product the user selected to anchor a comparison.
// It lives for the duration of a single comparison request.
type OriginProduct struct {
	ID       int64   `json:"id"`
	Store    Store   `json:"tienda"`
	Name     string  `json:"nombre"`
	Brand    string  `json:"marca,omitempty"`
	Price    float64 `json:"precio"`
	Promo    string  `json:"promo,omitempty"`
	ImageURL string  `json:"imagen_url,omitempty"`
}
