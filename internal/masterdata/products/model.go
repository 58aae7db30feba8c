package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product entity. OnHand and FreeToUse are maintained
// by the stock ledger and never written by this module.
type Product struct {
	ID           int64           `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	CostPrice    decimal.Decimal `json:"costPrice"`
	SellingPrice decimal.Decimal `json:"sellingPrice"`
	OnHand       int64           `json:"onHand"`
	FreeToUse    int64           `json:"freeToUse"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// RecentLine is a recent operation line shown on the product detail page.
type RecentLine struct {
	OperationID int64     `json:"operationId"`
	Ref         string    `json:"ref"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	DemandQty   int64     `json:"demandQty"`
	DoneQty     int64     `json:"doneQty"`
	ScheduledAt time.Time `json:"scheduledAt"`
}
