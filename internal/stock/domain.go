// Package stock implements the stock ledger: per-location balances,
// operation records and the atomic movement transaction that ties them
// together.
package stock

import (
	"errors"
	"fmt"
	"time"
)

// OperationType enumerates supported stock operations.
type OperationType string

const (
	// OperationTypeReceipt brings stock in from a vendor.
	OperationTypeReceipt OperationType = "RECEIPT"
	// OperationTypeDelivery ships stock out to a customer.
	OperationTypeDelivery OperationType = "DELIVERY"
	// OperationTypeInternal moves stock between internal locations.
	OperationTypeInternal OperationType = "INTERNAL"
	// OperationTypeAdjustment corrects counted stock against inventory loss.
	OperationTypeAdjustment OperationType = "ADJUSTMENT"
)

// Valid reports whether t is a known operation type.
func (t OperationType) Valid() bool {
	switch t {
	case OperationTypeReceipt, OperationTypeDelivery, OperationTypeInternal, OperationTypeAdjustment:
		return true
	}
	return false
}

// OperationStatus enumerates the operation lifecycle.
type OperationStatus string

const (
	StatusDraft     OperationStatus = "DRAFT"
	StatusWaiting   OperationStatus = "WAITING"
	StatusReady     OperationStatus = "READY"
	StatusDone      OperationStatus = "DONE"
	StatusCancelled OperationStatus = "CANCELLED"
)

// LocationType enumerates location kinds. Non-INTERNAL locations are
// virtual endpoints representing the outside world and may hold negative
// balances.
type LocationType string

const (
	LocationTypeInternal      LocationType = "INTERNAL"
	LocationTypeVendor        LocationType = "VENDOR"
	LocationTypeCustomer      LocationType = "CUSTOMER"
	LocationTypeInventoryLoss LocationType = "INVENTORY_LOSS"
)

// Virtual reports whether the location may be debited below zero.
func (t LocationType) Virtual() bool {
	return t != LocationTypeInternal
}

// Balance is one (product, location) row of the balance store.
type Balance struct {
	ProductID  int64
	LocationID int64
	Qty        int64
	UpdatedAt  time.Time
}

// Product is the slice of the product record the ledger needs.
type Product struct {
	ID     int64
	SKU    string
	Name   string
	OnHand int64
}

// Location is the slice of the location record the ledger needs.
type Location struct {
	ID   int64
	Name string
	Type LocationType
}

// Operation models a ledger entry header.
type Operation struct {
	ID                    int64
	Ref                   string
	Type                  OperationType
	Status                OperationStatus
	ScheduledDate         time.Time
	SourceLocationID      *int64
	DestinationLocationID *int64
	ContactID             *int64
	UserID                *int64
	Notes                 string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Lines                 []OperationLine
}

// OperationLine models one product movement within an operation.
type OperationLine struct {
	ID          int64
	OperationID int64
	ProductID   int64
	DemandQty   int64
	DoneQty     int64
}

// MovementInput describes a requested stock movement. The product may be
// addressed by ID or SKU.
type MovementInput struct {
	ProductID             int64
	SKU                   string
	Quantity              int64
	Type                  OperationType
	SourceLocationID      *int64
	DestinationLocationID *int64
	ContactID             *int64
	ActorID               int64
	Notes                 string
	ScheduledDate         time.Time
}

// DraftLine is one requested line of a staged operation.
type DraftLine struct {
	ProductID int64
	SKU       string
	Quantity  int64
}

// DraftInput describes a staged operation. Drafts have no balance effect
// until completed.
type DraftInput struct {
	Type                  OperationType
	ScheduledDate         time.Time
	SourceLocationID      *int64
	DestinationLocationID *int64
	ContactID             *int64
	ActorID               int64
	Notes                 string
	Lines                 []DraftLine
}

// Sentinel errors of the ledger.
var (
	ErrProductNotFound   = errors.New("stock: product not found")
	ErrLocationNotFound  = errors.New("stock: location not found")
	ErrOperationNotFound = errors.New("stock: operation not found")
	ErrInvalidQuantity   = errors.New("stock: quantity must be positive")
	ErrInvalidStatus     = errors.New("stock: invalid status transition")
	ErrInsufficientStock = errors.New("stock: insufficient stock")
)

// InsufficientStockError reports which location could not cover a debit.
// errors.Is(err, ErrInsufficientStock) matches it.
type InsufficientStockError struct {
	LocationID int64
	Available  int64
	Requested  int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock: insufficient stock at location %d: have %d, need %d", e.LocationID, e.Available, e.Requested)
}

// Is makes the error match the ErrInsufficientStock sentinel.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
