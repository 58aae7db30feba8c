package operations

import "time"

// CreateOperationRequest is the body of the transactional movement endpoint.
// The product may be addressed by id or SKU.
type CreateOperationRequest struct {
	ProductID             int64      `json:"productId" validate:"omitempty,gt=0"`
	SKU                   string     `json:"sku" validate:"omitempty,max=64"`
	Quantity              int64      `json:"quantity" validate:"required,gt=0"`
	Type                  string     `json:"type" validate:"required,oneof=RECEIPT DELIVERY INTERNAL ADJUSTMENT"`
	SourceLocationID      *int64     `json:"sourceLocationId,omitempty" validate:"omitempty,gt=0"`
	DestinationLocationID *int64     `json:"destinationLocationId,omitempty" validate:"omitempty,gt=0"`
	ContactID             *int64     `json:"contactId,omitempty" validate:"omitempty,gt=0"`
	Notes                 string     `json:"notes" validate:"max=1000"`
	ScheduledDate         *time.Time `json:"scheduledDate,omitempty"`
}

// DraftLineRequest is one line of a staged operation.
type DraftLineRequest struct {
	ProductID int64  `json:"productId" validate:"omitempty,gt=0"`
	SKU       string `json:"sku" validate:"omitempty,max=64"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

// CreateDraftRequest is the body of the staged creation endpoint.
type CreateDraftRequest struct {
	Type                  string             `json:"type" validate:"required,oneof=RECEIPT DELIVERY INTERNAL ADJUSTMENT"`
	SourceLocationID      *int64             `json:"sourceLocationId,omitempty" validate:"omitempty,gt=0"`
	DestinationLocationID *int64             `json:"destinationLocationId,omitempty" validate:"omitempty,gt=0"`
	ContactID             *int64             `json:"contactId,omitempty" validate:"omitempty,gt=0"`
	Notes                 string             `json:"notes" validate:"max=1000"`
	ScheduledDate         *time.Time         `json:"scheduledDate,omitempty"`
	Lines                 []DraftLineRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateDraftRequest edits a DRAFT operation. Absent fields are kept.
type UpdateDraftRequest struct {
	SourceLocationID      *int64             `json:"sourceLocationId,omitempty" validate:"omitempty,gt=0"`
	DestinationLocationID *int64             `json:"destinationLocationId,omitempty" validate:"omitempty,gt=0"`
	ContactID             *int64             `json:"contactId,omitempty" validate:"omitempty,gt=0"`
	Notes                 string             `json:"notes" validate:"max=1000"`
	ScheduledDate         *time.Time         `json:"scheduledDate,omitempty"`
	Lines                 []DraftLineRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

// UpdateStatusRequest moves an operation along its lifecycle.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=DRAFT WAITING READY DONE CANCELLED"`
}
