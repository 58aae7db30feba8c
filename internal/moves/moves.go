// Package moves serves the flattened stock move history.
package moves

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockmaster/stockmaster/internal/platform/httpx"
	"github.com/stockmaster/stockmaster/internal/shared"
)

// Move is one operation line flattened with its context.
type Move struct {
	ID          int64     `json:"id"`
	Ref         string    `json:"ref"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Product     string    `json:"product"`
	SKU         string    `json:"sku"`
	From        *string   `json:"from"`
	To          *string   `json:"to"`
	DemandQty   int64     `json:"demandQty"`
	DoneQty     int64     `json:"doneQty"`
	User        *string   `json:"user"`
	ScheduledAt time.Time `json:"scheduledAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Stats aggregates the move history.
type Stats struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"byType"`
}

// Filter narrows the history listing.
type Filter struct {
	Type      string
	Status    string
	ProductID int64
	Page      int
	Limit     int
}

// Repository reads the move history.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns a page of moves, newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Move, int, error) {
	where := []string{}
	args := []any{}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, "o.type = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, "o.status = $"+strconv.Itoa(len(args)))
	}
	if filter.ProductID > 0 {
		args = append(args, filter.ProductID)
		where = append(where, "ol.product_id = $"+strconv.Itoa(len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM operation_lines ol JOIN operations o ON o.id = ol.operation_id` + clause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	args = append(args, limit, offset)

	query := `SELECT ol.id, o.ref, o.type, o.status, p.name, p.sku, sl.name, dl.name, ol.demand_qty, ol.done_qty, u.name, o.scheduled_date, o.created_at
FROM operation_lines ol
JOIN operations o ON o.id = ol.operation_id
JOIN products p ON p.id = ol.product_id
LEFT JOIN locations sl ON sl.id = o.source_location_id
LEFT JOIN locations dl ON dl.id = o.destination_location_id
LEFT JOIN users u ON u.id = o.user_id` + clause +
		` ORDER BY o.created_at DESC, ol.id DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	moves := []Move{}
	for rows.Next() {
		var m Move
		if err := rows.Scan(&m.ID, &m.Ref, &m.Type, &m.Status, &m.Product, &m.SKU, &m.From, &m.To, &m.DemandQty, &m.DoneQty, &m.User, &m.ScheduledAt, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		moves = append(moves, m)
	}
	return moves, total, rows.Err()
}

// GetStats aggregates move counts by type.
func (r *Repository) GetStats(ctx context.Context) (Stats, error) {
	stats := Stats{ByType: map[string]int{}}
	rows, err := r.pool.Query(ctx, `SELECT o.type, COUNT(*)
FROM operation_lines ol JOIN operations o ON o.id = ol.operation_id
GROUP BY o.type`)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var opType string
		var count int
		if err := rows.Scan(&opType, &count); err != nil {
			return Stats{}, err
		}
		stats.ByType[opType] = count
		stats.Total += count
	}
	return stats, rows.Err()
}

// Handler exposes the move endpoints.
type Handler struct {
	logger *slog.Logger
	repo   *Repository
}

func NewHandler(logger *slog.Logger, repo *Repository) *Handler {
	return &Handler{logger: logger, repo: repo}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/moves", h.List)
	r.Get("/moves/stats", h.Stats)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.ParsePageQuery(r, 20)
	q := r.URL.Query()
	filter := Filter{
		Type:   q.Get("type"),
		Status: q.Get("status"),
		Page:   page,
		Limit:  limit,
	}
	if v, err := strconv.ParseInt(q.Get("productId"), 10, 64); err == nil {
		filter.ProductID = v
	}

	moves, total, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list moves failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shared.PagedResponse{Data: moves, Meta: shared.NewPagination(page, limit, total)})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetStats(r.Context())
	if err != nil {
		h.logger.Error("move stats failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}
