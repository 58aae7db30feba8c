// Package operations exposes the operation ledger over HTTP.
package operations

import "time"

// LineView is an operation line with its product resolved.
type LineView struct {
	ID        int64      `json:"id"`
	Product   ProductRef `json:"product"`
	DemandQty int64      `json:"demandQty"`
	DoneQty   int64      `json:"doneQty"`
}

// ProductRef identifies a product on a line.
type ProductRef struct {
	ID   int64  `json:"id"`
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

// OperationView is the JSON shape of one ledger entry.
type OperationView struct {
	ID                  int64      `json:"id"`
	Ref                 string     `json:"ref"`
	Type                string     `json:"type"`
	Status              string     `json:"status"`
	ScheduledDate       time.Time  `json:"scheduledDate"`
	SourceLocation      *string    `json:"sourceLocation"`
	DestinationLocation *string    `json:"destinationLocation"`
	Contact             *string    `json:"contact"`
	User                *string    `json:"user"`
	Notes               string     `json:"notes"`
	CreatedAt           time.Time  `json:"createdAt"`
	Lines               []LineView `json:"items,omitempty"`
}

// ListFilter narrows the operation listing.
type ListFilter struct {
	Status string
	Type   string
	Page   int
	Limit  int
}
