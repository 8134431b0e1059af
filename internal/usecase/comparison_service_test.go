package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cuidaelmango/backend/internal/domain"
)

func newTestComparisonService(catalog *fakeCatalog, equivalences *fakeEquivalences) *ComparisonService {
	retriever := NewCandidateRetriever(catalog, newFakeCache(), RetrieverConfig{})
	matcher := NewMatchingService(MatchConfig{})
	return NewComparisonService(catalog, equivalences, retriever, matcher, ComparisonConfig{Workers: 2})
}

func aceiteCatalog() *fakeCatalog {
	return &fakeCatalog{products: []domain.Product{
		{ID: 1, Store: domain.StoreCarrefour, Name: "Aceite Natura 900ml", Price: 800},
		{ID: 2, Store: domain.StoreCarrefour, Name: "Aceite Cocinero 900ml", Price: 820},
		{ID: 9, Store: domain.StoreDisco, Name: "Aceite Natura 900 ml", Price: 750},
		{ID: 10, Store: domain.StoreDisco, Name: "Aceite Natura 1.5 L", Price: 1200},
	}}
}

func TestCompare(t *testing.T) {
	ctx := context.Background()

	origin := domain.OriginProduct{
		ID:    1,
		Store: domain.StoreCarrefour,
		Name:  "Aceite Natura 900ml",
		Price: 800,
	}

	t.Run("rejects an empty product list", func(t *testing.T) {
		catalog := aceiteCatalog()
		svc := newTestComparisonService(catalog, newFakeEquivalences(catalog))
		_, err := svc.Compare(ctx, nil)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("rejects an unknown store", func(t *testing.T) {
		catalog := aceiteCatalog()
		svc := newTestComparisonService(catalog, newFakeEquivalences(catalog))
		_, err := svc.Compare(ctx, []domain.OriginProduct{
			{ID: 1, Store: "Coto", Name: "Aceite", Price: 100},
		})
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("matches a product and recommends the cheaper store", func(t *testing.T) {
		catalog := aceiteCatalog()
		svc := newTestComparisonService(catalog, newFakeEquivalences(catalog))

		result, err := svc.Compare(ctx, []domain.OriginProduct{origin})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Carrefour) != 1 || len(result.Disco) != 1 {
			t.Fatalf("lines = %d Carrefour / %d Disco, want 1/1",
				len(result.Carrefour), len(result.Disco))
		}

		carrefourLine := result.Carrefour[0]
		if !carrefourLine.EsOrigen || carrefourLine.ID != 1 || carrefourLine.Price != 800 {
			t.Errorf("origin line = %+v, want verbatim origin product", carrefourLine)
		}

		discoLine := result.Disco[0]
		if discoLine.ID != 9 {
			t.Fatalf("matched product = %d, want 9", discoLine.ID)
		}
		if !discoLine.EsMatchAutomatico || discoLine.ProductoOrigenID != 1 {
			t.Errorf("match line flags = %+v, want automatic match for origin 1", discoLine)
		}
		if discoLine.MatchScore != 100 || discoLine.MatchTier != domain.TierHigh {
			t.Errorf("match score/tier = %d/%s, want 100/%s",
				discoLine.MatchScore, discoLine.MatchTier, domain.TierHigh)
		}

		// The 1.5L sibling survives as a runner-up the user can pick instead
		if len(discoLine.Alternativas) != 1 || discoLine.Alternativas[0].ID != 10 {
			t.Fatalf("alternativas = %+v, want the single 1.5L runner-up", discoLine.Alternativas)
		}
		if discoLine.Alternativas[0].MatchTier != domain.TierLow {
			t.Errorf("alternative tier = %s, want %s",
				discoLine.Alternativas[0].MatchTier, domain.TierLow)
		}

		if result.Totales.Carrefour != 800 || result.Totales.Disco != 750 {
			t.Errorf("totals = %+v, want 800/750", result.Totales)
		}

		rec := result.Recomendacion
		if rec == nil {
			t.Fatal("recomendacion = nil, want Disco")
		}
		if rec.Tienda != domain.StoreDisco {
			t.Errorf("recommended store = %s, want Disco", rec.Tienda)
		}
		if rec.Ahorro != 50.00 {
			t.Errorf("ahorro = %v, want 50.00", rec.Ahorro)
		}
		if rec.Porcentaje != 6.3 {
			t.Errorf("porcentaje = %v, want 6.3", rec.Porcentaje)
		}

		meta := result.Metadata
		if meta.TotalProductos != 1 || meta.MatchesEncontrados != 1 ||
			meta.MatchesAltaConfianza != 1 || meta.ProductosSinMatch != 0 {
			t.Errorf("metadata = %+v, want 1 high-confidence match", meta)
		}
	})

	t.Run("degrades to unavailable when nothing matches", func(t *testing.T) {
		catalog := aceiteCatalog()
		svc := newTestComparisonService(catalog, newFakeEquivalences(catalog))

		result, err := svc.Compare(ctx, []domain.OriginProduct{
			{ID: 2, Store: domain.StoreCarrefour, Name: "Shampoo Sedal 400ml", Price: 950},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		line := result.Disco[0]
		if !line.NoDisponible {
			t.Fatalf("line = %+v, want unavailable", line)
		}
		if line.Name != "Producto no disponible" {
			t.Errorf("name = %q, want placeholder", line.Name)
		}
		if result.Totales.Disco != 0 {
			t.Errorf("Disco total = %v, want 0 (unavailable lines excluded)", result.Totales.Disco)
		}
		if result.Recomendacion != nil {
			t.Errorf("recomendacion = %+v, want nil when one cart is empty", result.Recomendacion)
		}
		if result.Metadata.ProductosSinMatch != 1 {
			t.Errorf("productos_sin_match = %d, want 1", result.Metadata.ProductosSinMatch)
		}
	})

	t.Run("degrades to unavailable when the best score is below threshold", func(t *testing.T) {
		catalog := &fakeCatalog{products: []domain.Product{
			{ID: 30, Store: domain.StoreDisco, Name: "Aceite de oliva extra virgen Cocinero 500 ml", Price: 2100},
		}}
		svc := newTestComparisonService(catalog, newFakeEquivalences(catalog))

		result, err := svc.Compare(ctx, []domain.OriginProduct{origin})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Disco[0].NoDisponible {
			t.Errorf("line = %+v, want unavailable for a weak best candidate", result.Disco[0])
		}
	})

	t.Run("degrades per product when the catalog fails", func(t *testing.T) {
		catalog := aceiteCatalog()
		catalog.searchErr = errors.New("catalog down")
		svc := newTestComparisonService(catalog, newFakeEquivalences(catalog))

		result, err := svc.Compare(ctx, []domain.OriginProduct{origin})
		if err != nil {
			t.Fatalf("Compare() error = %v, want graceful degradation", err)
		}
		if !result.Disco[0].NoDisponible {
			t.Error("line should degrade to unavailable on catalog failure")
		}
	})

	t.Run("makes no recommendation on equal totals", func(t *testing.T) {
		catalog := &fakeCatalog{products: []domain.Product{
			{ID: 40, Store: domain.StoreDisco, Name: "Yerba Playadito 1kg", Price: 1000},
		}}
		svc := newTestComparisonService(catalog, newFakeEquivalences(catalog))

		result, err := svc.Compare(ctx, []domain.OriginProduct{
			{ID: 4, Store: domain.StoreCarrefour, Name: "Yerba Playadito 1kg", Price: 1000},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Recomendacion != nil {
			t.Errorf("recomendacion = %+v, want nil on a tie", result.Recomendacion)
		}
	})

	t.Run("preserves input order under concurrency", func(t *testing.T) {
		var products []domain.Product
		var origins []domain.OriginProduct
		for i := 1; i <= 8; i++ {
			name := fmt.Sprintf("Fideos tirabuzon numero %d 500g", i)
			products = append(products, domain.Product{
				ID: int64(100 + i), Store: domain.StoreDisco, Name: name, Price: 500,
			})
			origins = append(origins, domain.OriginProduct{
				ID: int64(i), Store: domain.StoreCarrefour, Name: name, Price: 510,
			})
		}
		catalog := &fakeCatalog{products: products}
		svc := newTestComparisonService(catalog, newFakeEquivalences(catalog))

		result, err := svc.Compare(ctx, origins)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Disco) != len(origins) {
			t.Fatalf("got %d Disco lines, want %d", len(result.Disco), len(origins))
		}
		for i, line := range result.Disco {
			if line.ProductoOrigenID != origins[i].ID {
				t.Errorf("Disco[%d] resolves origin %d, want %d (input order)",
					i, line.ProductoOrigenID, origins[i].ID)
			}
		}
	})

	t.Run("uses a confirmed equivalence instead of scoring", func(t *testing.T) {
		catalog := aceiteCatalog()
		equivalences := newFakeEquivalences(catalog)
		if err := equivalences.Record(ctx, 1, 10); err != nil {
			t.Fatalf("seeding equivalence: %v", err)
		}
		svc := newTestComparisonService(catalog, equivalences)

		result, err := svc.Compare(ctx, []domain.OriginProduct{origin})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		line := result.Disco[0]
		if line.ID != 10 {
			t.Fatalf("matched product = %d, want the corrected 10 over the scored 9", line.ID)
		}
		if !line.CorregidoManualmente || line.EsMatchAutomatico {
			t.Errorf("line flags = %+v, want manual correction", line)
		}
		if line.MatchScore != 100 || line.MatchTier != domain.TierVeryHigh {
			t.Errorf("score/tier = %d/%s, want 100/%s", line.MatchScore, line.MatchTier, domain.TierVeryHigh)
		}

		// The corrected counterpart costs 1200, flipping the recommendation
		if result.Totales.Disco != 1200 {
			t.Errorf("Disco total = %v, want 1200", result.Totales.Disco)
		}
		rec := result.Recomendacion
		if rec == nil || rec.Tienda != domain.StoreCarrefour {
			t.Fatalf("recomendacion = %+v, want Carrefour", rec)
		}
		if rec.Ahorro != 400.00 || rec.Porcentaje != 33.3 {
			t.Errorf("ahorro/porcentaje = %v/%v, want 400.00/33.3", rec.Ahorro, rec.Porcentaje)
		}
	})

	t.Run("falls back to scoring when the equivalence lookup fails", func(t *testing.T) {
		catalog := aceiteCatalog()
		equivalences := newFakeEquivalences(catalog)
		equivalences.lookupErr = errors.New("store down")
		svc := newTestComparisonService(catalog, equivalences)

		result, err := svc.Compare(ctx, []domain.OriginProduct{origin})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Disco[0].ID != 9 || !result.Disco[0].EsMatchAutomatico {
			t.Errorf("line = %+v, want the automatic match", result.Disco[0])
		}
	})
}

func TestCorrect(t *testing.T) {
	ctx := context.Background()

	t.Run("persists the pair and returns the corrected line", func(t *testing.T) {
		catalog := aceiteCatalog()
		equivalences := newFakeEquivalences(catalog)
		svc := newTestComparisonService(catalog, equivalences)

		line, err := svc.Correct(ctx, 1, 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if line.ID != 10 || !line.CorregidoManualmente || line.ProductoOrigenID != 1 {
			t.Errorf("line = %+v, want corrected product 10 for origin 1", line)
		}
		if line.MatchScore != 100 || line.MatchTier != domain.TierVeryHigh {
			t.Errorf("score/tier = %d/%s, want 100/%s", line.MatchScore, line.MatchTier, domain.TierVeryHigh)
		}

		// The next comparison must honor the recorded pair
		result, err := svc.Compare(ctx, []domain.OriginProduct{
			{ID: 1, Store: domain.StoreCarrefour, Name: "Aceite Natura 900ml", Price: 800},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Disco[0].ID != 10 || !result.Disco[0].CorregidoManualmente {
			t.Errorf("post-correction line = %+v, want product 10", result.Disco[0])
		}
	})

	t.Run("rejects products from the same store", func(t *testing.T) {
		catalog := aceiteCatalog()
		svc := newTestComparisonService(catalog, newFakeEquivalences(catalog))

		_, err := svc.Correct(ctx, 1, 2)
		if !errors.Is(err, domain.ErrSameStore) {
			t.Errorf("error = %v, want ErrSameStore", err)
		}
	})

	t.Run("reports missing products", func(t *testing.T) {
		catalog := aceiteCatalog()
		svc := newTestComparisonService(catalog, newFakeEquivalences(catalog))

		if _, err := svc.Correct(ctx, 999, 10); !errors.Is(err, domain.ErrProductNotFound) {
			t.Errorf("error = %v, want ErrProductNotFound for origin", err)
		}
		if _, err := svc.Correct(ctx, 1, 999); !errors.Is(err, domain.ErrProductNotFound) {
			t.Errorf("error = %v, want ErrProductNotFound for chosen", err)
		}
	})

	t.Run("surfaces a persistence failure", func(t *testing.T) {
		catalog := aceiteCatalog()
		equivalences := newFakeEquivalences(catalog)
		equivalences.recordErr = errors.New("disk full")
		svc := newTestComparisonService(catalog, equivalences)

		_, err := svc.Correct(ctx, 1, 10)
		if !errors.Is(err, domain.ErrPersistence) {
			t.Errorf("error = %v, want ErrPersistence", err)
		}
	})
}
