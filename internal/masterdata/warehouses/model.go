package warehouses

import "time"

// Warehouse represents a physical warehouse.
type Warehouse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ShortCode string    `json:"shortCode"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateWarehouseRequest is the body for warehouse creation.
type CreateWarehouseRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	ShortCode string `json:"shortCode" validate:"required,max=16"`
	Address   string `json:"address" validate:"max=500"`
}

// UpdateWarehouseRequest edits warehouse fields. Absent fields are kept.
type UpdateWarehouseRequest struct {
	Name      string `json:"name" validate:"omitempty,max=255"`
	ShortCode string `json:"shortCode" validate:"omitempty,max=16"`
	Address   string `json:"address" validate:"omitempty,max=500"`
}
