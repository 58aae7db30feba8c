package locations

import "time"

// Location represents a stock location. Non-INTERNAL types are virtual
// endpoints (vendors, customers, inventory loss).
type Location struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Type              string    `json:"type"`
	ParentWarehouseID *int64    `json:"parentWarehouseId"`
	WarehouseName     *string   `json:"warehouseName,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// CreateLocationRequest is the body for location creation.
type CreateLocationRequest struct {
	Name              string `json:"name" validate:"required,max=255"`
	Type              string `json:"type" validate:"required,oneof=INTERNAL VENDOR CUSTOMER INVENTORY_LOSS"`
	ParentWarehouseID *int64 `json:"parentWarehouseId,omitempty" validate:"omitempty,gt=0"`
}

// UpdateLocationRequest renames a location. Type changes would rewrite
// ledger semantics and are not allowed.
type UpdateLocationRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}
