package stock

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrBalanceNotFound indicates a missing balance row. An absent row reads
// as quantity zero.
var ErrBalanceNotFound = errors.New("stock: balance not found")

// TxRepository exposes the transactional operations used by the service.
type TxRepository interface {
	GetProductByID(ctx context.Context, id int64) (Product, error)
	GetProductBySKU(ctx context.Context, sku string) (Product, error)
	GetLocation(ctx context.Context, id int64) (Location, error)
	InsertOperation(ctx context.Context, op Operation) (int64, error)
	InsertOperationLine(ctx context.Context, line OperationLine) (int64, error)
	GetBalanceForUpdate(ctx context.Context, productID, locationID int64) (Balance, error)
	UpsertBalance(ctx context.Context, balance Balance) error
	RecomputeOnHand(ctx context.Context, productID int64) (int64, error)
	GetOperationForUpdate(ctx context.Context, id int64) (Operation, error)
	GetOperationLines(ctx context.Context, operationID int64) ([]OperationLine, error)
	SetOperationStatus(ctx context.Context, id int64, status OperationStatus) error
	MarkLinesDone(ctx context.Context, operationID int64) error
	UpdateOperationHeader(ctx context.Context, op Operation) error
	DeleteOperationLines(ctx context.Context, operationID int64) error
	DeleteOperation(ctx context.Context, id int64) error
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetBalance(ctx context.Context, productID, locationID int64) (Balance, error)
	ListProductIDs(ctx context.Context) ([]int64, error)
}

// Repository persists ledger data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("stock: repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// GetBalance reads a balance outside any transaction. Missing rows read as
// zero quantity.
func (r *Repository) GetBalance(ctx context.Context, productID, locationID int64) (Balance, error) {
	var bal Balance
	err := r.pool.QueryRow(ctx, `SELECT product_id, location_id, qty, updated_at FROM stock_balances WHERE product_id=$1 AND location_id=$2`, productID, locationID).
		Scan(&bal.ProductID, &bal.LocationID, &bal.Qty, &bal.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{ProductID: productID, LocationID: locationID}, nil
		}
		return Balance{}, err
	}
	return bal, nil
}

// ListProductIDs returns every product id, used by the reconciliation sweep.
func (r *Repository) ListProductIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *txRepository) GetProductByID(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.tx.QueryRow(ctx, `SELECT id, sku, name, on_hand FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.SKU, &p.Name, &p.OnHand)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *txRepository) GetProductBySKU(ctx context.Context, sku string) (Product, error) {
	var p Product
	err := r.tx.QueryRow(ctx, `SELECT id, sku, name, on_hand FROM products WHERE sku=$1`, sku).
		Scan(&p.ID, &p.SKU, &p.Name, &p.OnHand)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *txRepository) GetLocation(ctx context.Context, id int64) (Location, error) {
	var loc Location
	err := r.tx.QueryRow(ctx, `SELECT id, name, type FROM locations WHERE id=$1`, id).
		Scan(&loc.ID, &loc.Name, &loc.Type)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Location{}, ErrLocationNotFound
		}
		return Location{}, err
	}
	return loc, nil
}

func (r *txRepository) InsertOperation(ctx context.Context, op Operation) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO operations (ref, type, status, scheduled_date, source_location_id, destination_location_id, contact_id, user_id, notes, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW()) RETURNING id`,
		op.Ref, string(op.Type), string(op.Status), op.ScheduledDate, op.SourceLocationID, op.DestinationLocationID, op.ContactID, op.UserID, op.Notes).Scan(&id)
	return id, err
}

func (r *txRepository) InsertOperationLine(ctx context.Context, line OperationLine) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO operation_lines (operation_id, product_id, demand_qty, done_qty, created_at)
VALUES ($1,$2,$3,$4,NOW()) RETURNING id`, line.OperationID, line.ProductID, line.DemandQty, line.DoneQty).Scan(&id)
	return id, err
}

func (r *txRepository) GetBalanceForUpdate(ctx context.Context, productID, locationID int64) (Balance, error) {
	var bal Balance
	err := r.tx.QueryRow(ctx, `SELECT product_id, location_id, qty, updated_at FROM stock_balances WHERE product_id=$1 AND location_id=$2 FOR UPDATE`, productID, locationID).
		Scan(&bal.ProductID, &bal.LocationID, &bal.Qty, &bal.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{ProductID: productID, LocationID: locationID}, ErrBalanceNotFound
		}
		return Balance{}, err
	}
	return bal, nil
}

func (r *txRepository) UpsertBalance(ctx context.Context, balance Balance) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_balances (product_id, location_id, qty, updated_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (product_id, location_id) DO UPDATE SET qty=EXCLUDED.qty, updated_at=NOW()`,
		balance.ProductID, balance.LocationID, balance.Qty)
	return err
}

// RecomputeOnHand re-sums the product's balances at internal locations into
// products.on_hand. Virtual location balances track the outside world and
// are excluded from the total.
func (r *txRepository) RecomputeOnHand(ctx context.Context, productID int64) (int64, error) {
	var onHand int64
	err := r.tx.QueryRow(ctx, `UPDATE products SET on_hand = COALESCE((
SELECT SUM(sb.qty) FROM stock_balances sb
JOIN locations l ON l.id = sb.location_id
WHERE sb.product_id = $1 AND l.type = 'INTERNAL'), 0), updated_at = NOW()
WHERE id = $1 RETURNING on_hand`, productID).Scan(&onHand)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, err
	}
	return onHand, nil
}

func (r *txRepository) GetOperationForUpdate(ctx context.Context, id int64) (Operation, error) {
	var op Operation
	err := r.tx.QueryRow(ctx, `SELECT id, ref, type, status, scheduled_date, source_location_id, destination_location_id, contact_id, user_id, notes, created_at, updated_at
FROM operations WHERE id=$1 FOR UPDATE`, id).
		Scan(&op.ID, &op.Ref, &op.Type, &op.Status, &op.ScheduledDate, &op.SourceLocationID, &op.DestinationLocationID, &op.ContactID, &op.UserID, &op.Notes, &op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Operation{}, ErrOperationNotFound
		}
		return Operation{}, err
	}
	return op, nil
}

func (r *txRepository) GetOperationLines(ctx context.Context, operationID int64) ([]OperationLine, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, operation_id, product_id, demand_qty, done_qty FROM operation_lines WHERE operation_id=$1 ORDER BY id`, operationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []OperationLine
	for rows.Next() {
		var line OperationLine
		if err := rows.Scan(&line.ID, &line.OperationID, &line.ProductID, &line.DemandQty, &line.DoneQty); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *txRepository) SetOperationStatus(ctx context.Context, id int64, status OperationStatus) error {
	tag, err := r.tx.Exec(ctx, `UPDATE operations SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOperationNotFound
	}
	return nil
}

func (r *txRepository) MarkLinesDone(ctx context.Context, operationID int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE operation_lines SET done_qty=demand_qty WHERE operation_id=$1`, operationID)
	return err
}

func (r *txRepository) UpdateOperationHeader(ctx context.Context, op Operation) error {
	tag, err := r.tx.Exec(ctx, `UPDATE operations SET scheduled_date=$2, source_location_id=$3, destination_location_id=$4, contact_id=$5, notes=$6, updated_at=NOW() WHERE id=$1`,
		op.ID, op.ScheduledDate, op.SourceLocationID, op.DestinationLocationID, op.ContactID, op.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOperationNotFound
	}
	return nil
}

func (r *txRepository) DeleteOperationLines(ctx context.Context, operationID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM operation_lines WHERE operation_id=$1`, operationID)
	return err
}

func (r *txRepository) DeleteOperation(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM operations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOperationNotFound
	}
	return nil
}
