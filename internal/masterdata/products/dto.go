package products

// CreateProductRequest is the body for product creation.
type CreateProductRequest struct {
	SKU          string `json:"sku" validate:"required,max=64"`
	Name         string `json:"name" validate:"required,max=255"`
	Category     string `json:"category" validate:"required,max=100"`
	CostPrice    string `json:"costPrice" validate:"omitempty"`
	SellingPrice string `json:"sellingPrice" validate:"omitempty"`
}

// UpdateProductRequest edits descriptive fields. SKU is immutable and
// onHand belongs to the ledger, so neither is accepted here.
type UpdateProductRequest struct {
	Name         string `json:"name" validate:"omitempty,max=255"`
	Category     string `json:"category" validate:"omitempty,max=100"`
	CostPrice    string `json:"costPrice" validate:"omitempty"`
	SellingPrice string `json:"sellingPrice" validate:"omitempty"`
}
