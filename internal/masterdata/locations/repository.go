package locations

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockmaster/stockmaster/internal/platform/httpx"
)

type Repository interface {
	List(ctx context.Context, locationType string) ([]Location, error)
	Get(ctx context.Context, id int64) (Location, error)
	Create(ctx context.Context, location Location) (Location, error)
	Rename(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
	IsReferenced(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, locationType string) ([]Location, error) {
	query := `SELECT l.id, l.name, l.type, l.parent_warehouse_id, w.name, l.created_at, l.updated_at
FROM locations l LEFT JOIN warehouses w ON w.id = l.parent_warehouse_id`
	args := []any{}
	if locationType != "" {
		query += ` WHERE l.type = $1`
		args = append(args, locationType)
	}
	query += ` ORDER BY l.name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Type, &l.ParentWarehouseID, &l.WarehouseName, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Location, error) {
	var l Location
	err := r.db.QueryRow(ctx, `SELECT l.id, l.name, l.type, l.parent_warehouse_id, w.name, l.created_at, l.updated_at
FROM locations l LEFT JOIN warehouses w ON w.id = l.parent_warehouse_id WHERE l.id = $1`, id).
		Scan(&l.ID, &l.Name, &l.Type, &l.ParentWarehouseID, &l.WarehouseName, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Location{}, httpx.ErrNotFound
	}
	return l, err
}

func (r *repository) Create(ctx context.Context, location Location) (Location, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx, `INSERT INTO locations (name, type, parent_warehouse_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $4) RETURNING id`,
		location.Name, location.Type, location.ParentWarehouseID, now).Scan(&location.ID)
	if err != nil {
		return Location{}, err
	}
	location.CreatedAt = now
	location.UpdatedAt = now
	return location, nil
}

func (r *repository) Rename(ctx context.Context, id int64, name string) error {
	tag, err := r.db.Exec(ctx, `UPDATE locations SET name = $1, updated_at = $2 WHERE id = $3`, name, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// IsReferenced reports whether operations or balances point at the location.
func (r *repository) IsReferenced(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(
SELECT 1 FROM operations WHERE source_location_id = $1 OR destination_location_id = $1
UNION ALL
SELECT 1 FROM stock_balances WHERE location_id = $1 AND qty <> 0)`, id).Scan(&exists)
	return exists, err
}
