package stock

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/stockmaster/stockmaster/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates stock movements.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// refPrefixes maps operation types to human-traceable reference prefixes.
var refPrefixes = map[OperationType]string{
	OperationTypeReceipt:    "WH/IN",
	OperationTypeDelivery:   "WH/OUT",
	OperationTypeInternal:   "WH/INT",
	OperationTypeAdjustment: "WH/ADJ",
}

func newRef(opType OperationType, at time.Time) string {
	return fmt.Sprintf("%s/%d", refPrefixes[opType], at.UnixNano())
}

// ExecuteMovement runs the stock movement transaction: it records a DONE
// operation with a single line, credits the destination, debits the source
// and recomputes the product's on-hand cache, all inside one transaction.
// Any failure rolls the whole movement back.
func (s *Service) ExecuteMovement(ctx context.Context, input MovementInput) (Operation, error) {
	if input.Quantity <= 0 {
		return Operation{}, ErrInvalidQuantity
	}
	if !input.Type.Valid() {
		return Operation{}, fmt.Errorf("stock: unknown operation type %q", input.Type)
	}
	if input.SourceLocationID == nil && input.DestinationLocationID == nil {
		return Operation{}, errors.New("stock: movement requires a source or destination location")
	}
	if input.ProductID == 0 && input.SKU == "" {
		return Operation{}, ErrProductNotFound
	}

	now := time.Now().UTC()
	scheduled := input.ScheduledDate
	if scheduled.IsZero() {
		scheduled = now
	}

	var op Operation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := s.resolveProduct(ctx, tx, input)
		if err != nil {
			return err
		}

		var userID *int64
		if input.ActorID != 0 {
			userID = &input.ActorID
		}
		op = Operation{
			Ref:                   newRef(input.Type, now),
			Type:                  input.Type,
			Status:                StatusDone,
			ScheduledDate:         scheduled,
			SourceLocationID:      input.SourceLocationID,
			DestinationLocationID: input.DestinationLocationID,
			ContactID:             input.ContactID,
			UserID:                userID,
			Notes:                 input.Notes,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		opID, err := tx.InsertOperation(ctx, op)
		if err != nil {
			return err
		}
		op.ID = opID

		line := OperationLine{
			OperationID: opID,
			ProductID:   product.ID,
			DemandQty:   input.Quantity,
			DoneQty:     input.Quantity,
		}
		lineID, err := tx.InsertOperationLine(ctx, line)
		if err != nil {
			return err
		}
		line.ID = lineID
		op.Lines = []OperationLine{line}

		if err := s.applyLineDeltas(ctx, tx, product.ID, input.Quantity, input.SourceLocationID, input.DestinationLocationID); err != nil {
			return err
		}
		if _, err := tx.RecomputeOnHand(ctx, product.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return Operation{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   fmt.Sprintf("stock:%s", input.Type),
			Entity:   "operation",
			EntityID: strconv.FormatInt(op.ID, 10),
			Meta: map[string]any{
				"ref":      op.Ref,
				"quantity": input.Quantity,
			},
		})
	}
	return op, nil
}

// CreateDraft records a staged operation with its lines and no balance
// effect.
func (s *Service) CreateDraft(ctx context.Context, input DraftInput) (Operation, error) {
	if !input.Type.Valid() {
		return Operation{}, fmt.Errorf("stock: unknown operation type %q", input.Type)
	}
	if len(input.Lines) == 0 {
		return Operation{}, errors.New("stock: draft requires at least one line")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return Operation{}, ErrInvalidQuantity
		}
	}
	if input.SourceLocationID == nil && input.DestinationLocationID == nil {
		return Operation{}, errors.New("stock: draft requires a source or destination location")
	}

	now := time.Now().UTC()
	scheduled := input.ScheduledDate
	if scheduled.IsZero() {
		scheduled = now
	}

	var op Operation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.SourceLocationID != nil {
			if _, err := tx.GetLocation(ctx, *input.SourceLocationID); err != nil {
				return err
			}
		}
		if input.DestinationLocationID != nil {
			if _, err := tx.GetLocation(ctx, *input.DestinationLocationID); err != nil {
				return err
			}
		}
		var userID *int64
		if input.ActorID != 0 {
			userID = &input.ActorID
		}
		op = Operation{
			Ref:                   newRef(input.Type, now),
			Type:                  input.Type,
			Status:                StatusDraft,
			ScheduledDate:         scheduled,
			SourceLocationID:      input.SourceLocationID,
			DestinationLocationID: input.DestinationLocationID,
			ContactID:             input.ContactID,
			UserID:                userID,
			Notes:                 input.Notes,
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		opID, err := tx.InsertOperation(ctx, op)
		if err != nil {
			return err
		}
		op.ID = opID
		for _, dl := range input.Lines {
			productID := dl.ProductID
			if productID == 0 {
				product, err := tx.GetProductBySKU(ctx, dl.SKU)
				if err != nil {
					return err
				}
				productID = product.ID
			} else if _, err := tx.GetProductByID(ctx, productID); err != nil {
				return err
			}
			line := OperationLine{OperationID: opID, ProductID: productID, DemandQty: dl.Quantity}
			lineID, err := tx.InsertOperationLine(ctx, line)
			if err != nil {
				return err
			}
			line.ID = lineID
			op.Lines = append(op.Lines, line)
		}
		return nil
	})
	if err != nil {
		return Operation{}, err
	}
	return op, nil
}

// UpdateDraft replaces the header fields and lines of a DRAFT operation.
func (s *Service) UpdateDraft(ctx context.Context, operationID int64, input DraftInput) (Operation, error) {
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return Operation{}, ErrInvalidQuantity
		}
	}
	var op Operation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		op, err = tx.GetOperationForUpdate(ctx, operationID)
		if err != nil {
			return err
		}
		if op.Status != StatusDraft {
			return fmt.Errorf("%w: only DRAFT operations can be edited", ErrInvalidStatus)
		}
		if !input.ScheduledDate.IsZero() {
			op.ScheduledDate = input.ScheduledDate
		}
		if input.SourceLocationID != nil {
			if _, err := tx.GetLocation(ctx, *input.SourceLocationID); err != nil {
				return err
			}
			op.SourceLocationID = input.SourceLocationID
		}
		if input.DestinationLocationID != nil {
			if _, err := tx.GetLocation(ctx, *input.DestinationLocationID); err != nil {
				return err
			}
			op.DestinationLocationID = input.DestinationLocationID
		}
		if input.ContactID != nil {
			op.ContactID = input.ContactID
		}
		if input.Notes != "" {
			op.Notes = input.Notes
		}
		if err := tx.UpdateOperationHeader(ctx, op); err != nil {
			return err
		}
		if len(input.Lines) > 0 {
			if err := tx.DeleteOperationLines(ctx, operationID); err != nil {
				return err
			}
			op.Lines = nil
			for _, dl := range input.Lines {
				productID := dl.ProductID
				if productID == 0 {
					product, err := tx.GetProductBySKU(ctx, dl.SKU)
					if err != nil {
						return err
					}
					productID = product.ID
				} else if _, err := tx.GetProductByID(ctx, productID); err != nil {
					return err
				}
				line := OperationLine{OperationID: operationID, ProductID: productID, DemandQty: dl.Quantity}
				lineID, err := tx.InsertOperationLine(ctx, line)
				if err != nil {
					return err
				}
				line.ID = lineID
				op.Lines = append(op.Lines, line)
			}
		} else {
			op.Lines, err = tx.GetOperationLines(ctx, operationID)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Operation{}, err
	}
	return op, nil
}

// CompleteOperation performs the READY to DONE edge of a staged operation:
// every line's balance deltas, the on-hand recompute and the status flip
// commit together.
func (s *Service) CompleteOperation(ctx context.Context, operationID, actorID int64) (Operation, error) {
	var op Operation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		op, err = tx.GetOperationForUpdate(ctx, operationID)
		if err != nil {
			return err
		}
		if op.Status != StatusReady {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, op.Status, StatusDone)
		}
		lines, err := tx.GetOperationLines(ctx, operationID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if line.DemandQty <= 0 {
				return ErrInvalidQuantity
			}
			if err := s.applyLineDeltas(ctx, tx, line.ProductID, line.DemandQty, op.SourceLocationID, op.DestinationLocationID); err != nil {
				return err
			}
			if _, err := tx.RecomputeOnHand(ctx, line.ProductID); err != nil {
				return err
			}
		}
		if err := tx.MarkLinesDone(ctx, operationID); err != nil {
			return err
		}
		if err := tx.SetOperationStatus(ctx, operationID, StatusDone); err != nil {
			return err
		}
		op.Status = StatusDone
		for i := range lines {
			lines[i].DoneQty = lines[i].DemandQty
		}
		op.Lines = lines
		return nil
	})
	if err != nil {
		return Operation{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "stock:complete",
			Entity:   "operation",
			EntityID: strconv.FormatInt(op.ID, 10),
			Meta:     map[string]any{"ref": op.Ref},
		})
	}
	return op, nil
}

// TransitionOperation moves a staged operation along the lifecycle for
// every edge except READY to DONE, which must go through CompleteOperation.
func (s *Service) TransitionOperation(ctx context.Context, operationID int64, to OperationStatus, actorID int64) (Operation, error) {
	if to == StatusDone {
		return s.CompleteOperation(ctx, operationID, actorID)
	}
	var op Operation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		op, err = tx.GetOperationForUpdate(ctx, operationID)
		if err != nil {
			return err
		}
		if !CanTransition(op.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, op.Status, to)
		}
		if err := tx.SetOperationStatus(ctx, operationID, to); err != nil {
			return err
		}
		op.Status = to
		return nil
	})
	if err != nil {
		return Operation{}, err
	}
	return op, nil
}

// DeleteOperation removes a DRAFT operation and its lines. Operations in
// any other status are immutable ledger entries.
func (s *Service) DeleteOperation(ctx context.Context, operationID int64) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		op, err := tx.GetOperationForUpdate(ctx, operationID)
		if err != nil {
			return err
		}
		if op.Status != StatusDraft {
			return fmt.Errorf("%w: only DRAFT operations can be deleted", ErrInvalidStatus)
		}
		return tx.DeleteOperation(ctx, operationID)
	})
}

// GetBalance reads one balance row. Missing rows read as zero.
func (s *Service) GetBalance(ctx context.Context, productID, locationID int64) (Balance, error) {
	return s.repo.GetBalance(ctx, productID, locationID)
}

// Reconcile recomputes on-hand for every product and reports how many
// cached totals had drifted.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	ids, err := s.repo.ListProductIDs(ctx)
	if err != nil {
		return 0, err
	}
	drift := 0
	for _, id := range ids {
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			product, err := tx.GetProductByID(ctx, id)
			if err != nil {
				return err
			}
			onHand, err := tx.RecomputeOnHand(ctx, id)
			if err != nil {
				return err
			}
			if onHand != product.OnHand {
				drift++
			}
			return nil
		})
		if err != nil {
			return drift, err
		}
	}
	return drift, nil
}

func (s *Service) resolveProduct(ctx context.Context, tx TxRepository, input MovementInput) (Product, error) {
	if input.ProductID != 0 {
		return tx.GetProductByID(ctx, input.ProductID)
	}
	return tx.GetProductBySKU(ctx, input.SKU)
}

// applyLineDeltas credits the destination then debits the source. The debit
// runs last so the insufficient-stock check sees the final source balance.
func (s *Service) applyLineDeltas(ctx context.Context, tx TxRepository, productID, qty int64, sourceID, destinationID *int64) error {
	if destinationID != nil {
		if err := s.applyDelta(ctx, tx, productID, *destinationID, qty); err != nil {
			return err
		}
	}
	if sourceID != nil {
		if err := s.applyDelta(ctx, tx, productID, *sourceID, -qty); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) applyDelta(ctx context.Context, tx TxRepository, productID, locationID, delta int64) error {
	location, err := tx.GetLocation(ctx, locationID)
	if err != nil {
		return err
	}
	balance, err := tx.GetBalanceForUpdate(ctx, productID, locationID)
	if err != nil && !errors.Is(err, ErrBalanceNotFound) {
		return err
	}
	newQty := balance.Qty + delta
	if newQty < 0 && !location.Type.Virtual() {
		return &InsufficientStockError{LocationID: locationID, Available: balance.Qty, Requested: -delta}
	}
	balance.Qty = newQty
	return tx.UpsertBalance(ctx, balance)
}
