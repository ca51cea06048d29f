package reconcile

import (
	"context"

	"github.com/sevcommerce/catalog-sync/app/supplier"
)

type Status string

const (
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusFailed    Status = "failed"
)

// Outcome is the per-SKU result of one reconciliation
type Outcome struct {
	SKU     string
	Status  Status
	Message string
}

// Report aggregates a full reconciliation run
type Report struct {
	Total     int
	Updated   int
	Unchanged int
	Failed    int
	Outcomes  []Outcome
}

// ItemFetcher resolves one SKU to its best supplier answer
type ItemFetcher interface {
	Fetch(ctx context.Context, sku string) supplier.Answer
}

// ItemReconciler applies one supplier answer to the persisted store
type ItemReconciler interface {
	Reconcile(answer supplier.Answer) Outcome
}
