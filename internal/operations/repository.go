package operations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockmaster/stockmaster/internal/stock"
)

// Repository serves the read side of the operation listing.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const operationColumns = `o.id, o.ref, o.type, o.status, o.scheduled_date, sl.name, dl.name, c.name, u.name, o.notes, o.created_at`

const operationJoins = `
LEFT JOIN locations sl ON sl.id = o.source_location_id
LEFT JOIN locations dl ON dl.id = o.destination_location_id
LEFT JOIN contacts c ON c.id = o.contact_id
LEFT JOIN users u ON u.id = o.user_id`

// List returns a page of operations plus the total row count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]OperationView, int, error) {
	where := []string{}
	args := []any{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where = append(where, fmt.Sprintf("o.type = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM operations o"+clause, args...).Scan(&total); err != nil {
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
	query := fmt.Sprintf(`SELECT %s FROM operations o%s%s ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`,
		operationColumns, operationJoins, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	views := []OperationView{}
	for rows.Next() {
		var v OperationView
		if err := rows.Scan(&v.ID, &v.Ref, &v.Type, &v.Status, &v.ScheduledDate, &v.SourceLocation, &v.DestinationLocation, &v.Contact, &v.User, &v.Notes, &v.CreatedAt); err != nil {
			return nil, 0, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// Get returns one operation with its lines.
func (r *Repository) Get(ctx context.Context, id int64) (OperationView, error) {
	var v OperationView
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM operations o%s WHERE o.id = $1`, operationColumns, operationJoins), id).
		Scan(&v.ID, &v.Ref, &v.Type, &v.Status, &v.ScheduledDate, &v.SourceLocation, &v.DestinationLocation, &v.Contact, &v.User, &v.Notes, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OperationView{}, stock.ErrOperationNotFound
		}
		return OperationView{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT ol.id, p.id, p.sku, p.name, ol.demand_qty, ol.done_qty
FROM operation_lines ol
JOIN products p ON p.id = ol.product_id
WHERE ol.operation_id = $1 ORDER BY ol.id`, id)
	if err != nil {
		return OperationView{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line LineView
		if err := rows.Scan(&line.ID, &line.Product.ID, &line.Product.SKU, &line.Product.Name, &line.DemandQty, &line.DoneQty); err != nil {
			return OperationView{}, err
		}
		v.Lines = append(v.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return OperationView{}, err
	}
	return v, nil
}
