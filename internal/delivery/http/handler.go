package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cuidaelmango/backend/internal/domain"
	"github.com/cuidaelmango/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	comparisons  *usecase.ComparisonService
	catalog      domain.CatalogRepository
	equivalences domain.EquivalenceRepository
}

// NewHandler creates a new HTTP handler
func NewHandler(
	comparisons *usecase.ComparisonService,
	catalog domain.CatalogRepository,
	equivalences domain.EquivalenceRepository,
) *Handler {
	return &Handler{
		comparisons:  comparisons,
		catalog:      catalog,
		equivalences: equivalences,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cuidaelmango-backend",
		"version": "2.0.0",
	})
}

// Root lists the available endpoints
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "CuidaElMango API",
		"version": "2.0",
		"endpoints": []string{
			"/productos/buscar",
			"/comparar-inteligente",
			"/equivalencias",
		},
	})
}

// compareRequest is the body of POST /comparar-inteligente
type compareRequest struct {
	Productos []domain.OriginProduct `json:"productos" binding:"required"`
}

// CompareSmart runs the intelligent comparison for a list of origin
// products and returns both carts, totals, metadata and the
// recommendation. Per-product failures degrade to unavailable lines and
// still yield a 200.
func (h *Handler) CompareSmart(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.comparisons.Compare(c.Request.Context(), req.Productos)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// equivalenceRequest is the body of POST /equivalencias
type equivalenceRequest struct {
	ProductoAID int64 `json:"producto_a_id" binding:"required"`
	ProductoBID int64 `json:"producto_b_id" binding:"required"`
}

// CreateEquivalence persists a manual correction and returns the
// corrected line so the client can patch its comparison in place.
func (h *Handler) CreateEquivalence(c *gin.Context) {
	var req equivalenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	line, err := h.comparisons.Correct(c.Request.Context(), req.ProductoAID, req.ProductoBID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrSameStore), errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "linea": line})
}

// GetEquivalence looks up the confirmed counterpart of a product. The
// target store defaults to the opposite of the product's own store.
func (h *Handler) GetEquivalence(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("producto_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "producto_id must be an integer"})
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	target := product.Store.Opposite()
	if t := c.Query("tienda"); t != "" {
		target = domain.Store(t)
		if !target.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown store: " + t})
			return
		}
	}

	counterpart, err := h.equivalences.Lookup(c.Request.Context(), productID, target)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			c.JSON(http.StatusOK, gin.H{"encontrado": false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"encontrado": true, "equivalencia": counterpart})
}

// SearchProducts performs the naive per-item catalog search, the same
// retrieval surface the matching engine uses.
func (h *Handler) SearchProducts(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	stores := []domain.Store{domain.StoreCarrefour, domain.StoreDisco}
	if t := c.Query("tienda"); t != "" {
		store := domain.Store(t)
		if !store.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown store: " + t})
			return
		}
		stores = []domain.Store{store}
	}

	normalized := usecase.NormalizeName(query)
	var products []domain.Product
	for _, store := range stores {
		found, err := h.catalog.SearchProducts(c.Request.Context(), store, normalized, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		products = append(products, found...)
	}

	c.JSON(http.StatusOK, gin.H{
		"query":     query,
		"count":     len(products),
		"productos": products,
	})
}
