// Package catalog provides the SQLite-backed implementation of the
// catalog query surface and the durable equivalence store.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuidaelmango/backend/internal/domain"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements domain.CatalogRepository and
// domain.EquivalenceRepository over a single SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) the database at dbPath. Use
// ":memory:" for an ephemeral store in tests.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath must not be empty")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite does not benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS productos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tienda TEXT NOT NULL,
		nombre TEXT NOT NULL,
		nombre_normalizado TEXT NOT NULL,
		marca TEXT NOT NULL DEFAULT '',
		precio REAL NOT NULL CHECK (precio >= 0),
		promo TEXT NOT NULL DEFAULT '',
		imagen_url TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_productos_busqueda
		ON productos(tienda, nombre_normalizado);

	CREATE TABLE IF NOT EXISTS equivalencias (
		producto_a_id INTEGER NOT NULL,
		producto_b_id INTEGER NOT NULL,
		confianza INTEGER NOT NULL DEFAULT 100,
		corregido_por_usuario INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (producto_a_id, producto_b_id),
		CHECK (producto_a_id < producto_b_id)
	);`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// SearchProducts performs a substring match against the normalized name
// index of one store, price ascending. The query is expected to be
// normalized already (the retriever and the search endpoint both
// normalize before calling).
func (s *SQLiteStore) SearchProducts(ctx context.Context, store domain.Store, query string, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tienda, nombre, nombre_normalizado, marca, precio, promo, imagen_url
		FROM productos
		WHERE tienda = ? AND nombre_normalizado LIKE '%' || ? || '%'
		ORDER BY precio ASC, id ASC
		LIMIT ?`,
		string(store), query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Store, &p.Name, &p.NormalizedName, &p.Brand, &p.Price, &p.Promo, &p.ImageURL); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return products, nil
}

// GetProduct fetches a single product by id
func (s *SQLiteStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tienda, nombre, nombre_normalizado, marca, precio, promo, imagen_url
		FROM productos WHERE id = ?`, id).
		Scan(&p.ID, &p.Store, &p.Name, &p.NormalizedName, &p.Brand, &p.Price, &p.Promo, &p.ImageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return &p, nil
}

// SaveProducts ingests catalog rows in one transaction. Rows with an ID
// keep it; rows without one get an autoincremented id. NormalizedName
// must be populated by the caller (ingestion normalizes, the store does
// not).
func (s *SQLiteStore) SaveProducts(ctx context.Context, products []domain.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO productos (id, tienda, nombre, nombre_normalizado, marca, precio, promo, imagen_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tienda = excluded.tienda,
			nombre = excluded.nombre,
			nombre_normalizado = excluded.nombre_normalizado,
			marca = excluded.marca,
			precio = excluded.precio,
			promo = excluded.promo,
			imagen_url = excluded.imagen_url`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		var id interface{}
		if p.ID != 0 {
			id = p.ID
		}
		if _, err := stmt.ExecContext(ctx, id, string(p.Store), p.Name, p.NormalizedName, p.Brand, p.Price, p.Promo, p.ImageURL); err != nil {
			return fmt.Errorf("failed to insert product %q: %w", p.Name, err)
		}
	}

	return tx.Commit()
}

// CountProducts returns the number of catalog rows for one store
func (s *SQLiteStore) CountProducts(ctx context.Context, store domain.Store) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM productos WHERE tienda = ?`, string(store)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return count, nil
}

// Record stores the unordered equivalence pair. The pair is normalized to
// (min,max) before the insert, and INSERT OR IGNORE makes the operation
// idempotent and safe under concurrent calls for the same pair.
func (s *SQLiteStore) Record(ctx context.Context, aID, bID int64) error {
	if aID == bID {
		return fmt.Errorf("%w: a product cannot be equivalent to itself", domain.ErrInvalidRequest)
	}
	lo, hi := aID, bID
	if lo > hi {
		lo, hi = hi, lo
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO equivalencias (producto_a_id, producto_b_id, confianza, corregido_por_usuario)
		VALUES (?, ?, 100, 1)`, lo, hi)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// Lookup resolves the confirmed counterpart of productID in the target
// store. The closure is symmetric over recorded pairs only; no transitive
// inference across chains of equivalences.
func (s *SQLiteStore) Lookup(ctx context.Context, productID int64, target domain.Store) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.tienda, p.nombre, p.nombre_normalizado, p.marca, p.precio, p.promo, p.imagen_url
		FROM equivalencias e
		JOIN productos p ON p.id = CASE
			WHEN e.producto_a_id = ? THEN e.producto_b_id
			ELSE e.producto_a_id
		END
		WHERE (e.producto_a_id = ? OR e.producto_b_id = ?) AND p.tienda = ?
		LIMIT 1`,
		productID, productID, productID, string(target)).
		Scan(&p.ID, &p.Store, &p.Name, &p.NormalizedName, &p.Brand, &p.Price, &p.Promo, &p.ImageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return &p, nil
}

// RemoveEquivalence revokes a recorded pair, letting later comparisons
// fall back to automated scoring for those products.
func (s *SQLiteStore) RemoveEquivalence(ctx context.Context, aID, bID int64) error {
	lo, hi := aID, bID
	if lo > hi {
		lo, hi = hi, lo
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM equivalencias WHERE producto_a_id = ? AND producto_b_id = ?`, lo, hi)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}
