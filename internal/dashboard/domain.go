// Package dashboard aggregates inventory KPIs for the landing page.
package dashboard

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stats is the headline KPI block.
type Stats struct {
	TotalProducts     int             `json:"totalProducts"`
	LowStockCount     int             `json:"lowStockCount"`
	PendingReceipts   int             `json:"pendingReceipts"`
	PendingDeliveries int             `json:"pendingDeliveries"`
	InventoryValue    decimal.Decimal `json:"inventoryValue"`
}

// ChartPoint is the done quantity moved during one week.
type ChartPoint struct {
	WeekStart  time.Time `json:"weekStart"`
	Receipts   int64     `json:"receipts"`
	Deliveries int64     `json:"deliveries"`
}

// Activity is a recent operation in compact form.
type Activity struct {
	ID        int64     `json:"id"`
	Ref       string    `json:"ref"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	User      *string   `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}
