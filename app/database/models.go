package database

import (
	"time"
)

// Product represents a catalog row in the database
type Product struct {
	SKU             string
	MarketplaceSKU  string // marketplace-side SKU, distinct string form of the same item
	SupplierPrice   float64
	Quantity        int
	Availability    string // "inStock" / "outOfStock" wire forms
	Brand           string
	LeadTime        int
	LeadTime2       int
	HandlingTimeAmz int
	UpdateFlag      int
	LastUpdate      time.Time
}

// PendingProduct is the subset of a changed row needed to build a feed message
type PendingProduct struct {
	MarketplaceSKU  string
	HandlingTimeAmz int
	Quantity        int
}

// ProductUpdate carries the full set of fields rewritten on a detected change
type ProductUpdate struct {
	SupplierPrice   float64
	Quantity        int
	Availability    string
	Brand           string
	LeadTime        int
	LeadTime2       int
	HandlingTimeAmz int
	UpdateFlag      int
}
