// Package search provides the global quick-search endpoint.
package search

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/stockmaster/stockmaster/internal/platform/httpx"
)

// Each entity contributes at most this many hits.
const perEntityLimit = 5

// ProductHit is a product match.
type ProductHit struct {
	ID     int64  `json:"id"`
	SKU    string `json:"sku"`
	Name   string `json:"name"`
	OnHand int64  `json:"onHand"`
}

// OperationHit is an operation matched by reference.
type OperationHit struct {
	ID     int64  `json:"id"`
	Ref    string `json:"ref"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// LocationHit is a location match.
type LocationHit struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Results groups hits per entity.
type Results struct {
	Products   []ProductHit   `json:"products"`
	Operations []OperationHit `json:"operations"`
	Locations  []LocationHit  `json:"locations"`
}

// Repository runs the per-entity lookups.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Products(ctx context.Context, q string) ([]ProductHit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, sku, name, on_hand FROM products WHERE name ILIKE $1 OR sku ILIKE $1 ORDER BY name LIMIT $2`,
		"%"+q+"%", perEntityLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hits := []ProductHit{}
	for rows.Next() {
		var h ProductHit
		if err := rows.Scan(&h.ID, &h.SKU, &h.Name, &h.OnHand); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (r *Repository) Operations(ctx context.Context, q string) ([]OperationHit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, ref, type, status FROM operations WHERE ref ILIKE $1 ORDER BY created_at DESC LIMIT $2`,
		"%"+q+"%", perEntityLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hits := []OperationHit{}
	for rows.Next() {
		var h OperationHit
		if err := rows.Scan(&h.ID, &h.Ref, &h.Type, &h.Status); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (r *Repository) Locations(ctx context.Context, q string) ([]LocationHit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, type FROM locations WHERE name ILIKE $1 ORDER BY name LIMIT $2`,
		"%"+q+"%", perEntityLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hits := []LocationHit{}
	for rows.Next() {
		var h LocationHit
		if err := rows.Scan(&h.ID, &h.Name, &h.Type); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Finder is the lookup contract the handler depends on.
type Finder interface {
	Products(ctx context.Context, q string) ([]ProductHit, error)
	Operations(ctx context.Context, q string) ([]OperationHit, error)
	Locations(ctx context.Context, q string) ([]LocationHit, error)
}

// Handler serves GET /search.
type Handler struct {
	logger *slog.Logger
	finder Finder
}

func NewHandler(logger *slog.Logger, finder Finder) *Handler {
	return &Handler{logger: logger, finder: finder}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/search", h.Search)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(q) < 2 {
		httpx.JSON(w, http.StatusOK, Results{
			Products:   []ProductHit{},
			Operations: []OperationHit{},
			Locations:  []LocationHit{},
		})
		return
	}

	var results Results
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		hits, err := h.finder.Products(ctx, q)
		results.Products = hits
		return err
	})
	g.Go(func() error {
		hits, err := h.finder.Operations(ctx, q)
		results.Operations = hits
		return err
	})
	g.Go(func() error {
		hits, err := h.finder.Locations(ctx, q)
		results.Locations = hits
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("search failed", slog.String("query", q), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, results)
}
