package dashboard

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Low stock means fewer than this many units on hand.
const lowStockThreshold = 50

// Repository reads dashboard aggregates from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CountProducts(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n)
	return n, err
}

func (r *Repository) CountLowStock(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE on_hand < $1`, lowStockThreshold).Scan(&n)
	return n, err
}

// CountPending counts non-terminal operations of one type.
func (r *Repository) CountPending(ctx context.Context, opType string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM operations WHERE type = $1 AND status NOT IN ('DONE', 'CANCELLED')`, opType).Scan(&n)
	return n, err
}

// InventoryValue sums on_hand * cost_price over all products.
func (r *Repository) InventoryValue(ctx context.Context) (decimal.Decimal, error) {
	var value decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(on_hand * cost_price), 0) FROM products`).Scan(&value)
	return value, err
}

// WeeklyFlow returns done quantities per week over the trailing window.
func (r *Repository) WeeklyFlow(ctx context.Context, weeks int) ([]ChartPoint, error) {
	rows, err := r.pool.Query(ctx, `SELECT
  date_trunc('week', o.created_at) AS week_start,
  COALESCE(SUM(ol.done_qty) FILTER (WHERE o.type = 'RECEIPT'), 0),
  COALESCE(SUM(ol.done_qty) FILTER (WHERE o.type = 'DELIVERY'), 0)
FROM operations o
JOIN operation_lines ol ON ol.operation_id = o.id
WHERE o.status = 'DONE' AND o.created_at >= date_trunc('week', now()) - ($1 - 1) * interval '1 week'
GROUP BY week_start
ORDER BY week_start`, weeks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []ChartPoint{}
	for rows.Next() {
		var p ChartPoint
		if err := rows.Scan(&p.WeekStart, &p.Receipts, &p.Deliveries); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// RecentActivity returns the most recent operations.
func (r *Repository) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, `SELECT o.id, o.ref, o.type, o.status, u.name, o.created_at
FROM operations o
LEFT JOIN users u ON u.id = o.user_id
ORDER BY o.created_at DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Activity{}
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.Ref, &a.Type, &a.Status, &a.User, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
