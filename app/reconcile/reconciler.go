package reconcile

import (
	"log/slog"

	"github.com/sevcommerce/catalog-sync/app/database"
	"github.com/sevcommerce/catalog-sync/app/supplier"
)

// Reconciler compares a fetched answer against the persisted row and writes
// only on detected difference. Errors never propagate; they surface as failed
// outcomes so one bad row cannot abort a run.
type Reconciler struct {
	repo       database.ProductRepository
	leadTime   int
	leadTime2  int
	updateFlag int
}

var _ ItemReconciler = (*Reconciler)(nil)

func NewReconciler(repo database.ProductRepository, leadTime, leadTime2, updateFlag int) *Reconciler {
	return &Reconciler{
		repo:       repo,
		leadTime:   leadTime,
		leadTime2:  leadTime2,
		updateFlag: updateFlag,
	}
}

func (r *Reconciler) Reconcile(answer supplier.Answer) Outcome {
	current, err := r.repo.GetBySKU(answer.SKU)
	if err != nil {
		slog.Error("Reconcile read failed", "sku", answer.SKU, "error", err)
		return Outcome{SKU: answer.SKU, Status: StatusFailed, Message: err.Error()}
	}
	if current == nil {
		slog.Warn("Product not found in database", "sku", answer.SKU)
		return Outcome{SKU: answer.SKU, Status: StatusFailed, Message: "product not found"}
	}

	if !r.hasChanges(current, answer) {
		if err := r.repo.TouchLastUpdate(answer.SKU); err != nil {
			slog.Error("Reconcile touch failed", "sku", answer.SKU, "error", err)
			return Outcome{SKU: answer.SKU, Status: StatusFailed, Message: err.Error()}
		}
		return Outcome{SKU: answer.SKU, Status: StatusUnchanged}
	}

	slog.Info("Product changed",
		"sku", answer.SKU,
		"old_availability", current.Availability, "old_price", current.SupplierPrice,
		"new_availability", answer.Availability, "new_price", answer.Price)

	affected, err := r.repo.UpdateProduct(answer.SKU, database.ProductUpdate{
		SupplierPrice:   answer.Price,
		Quantity:        answer.Quantity,
		Availability:    string(answer.Availability),
		Brand:           answer.Brand,
		LeadTime:        r.leadTime,
		LeadTime2:       r.leadTime2,
		HandlingTimeAmz: answer.HandlingDays,
		UpdateFlag:      r.updateFlag,
	})
	if err != nil {
		slog.Error("Reconcile write failed", "sku", answer.SKU, "error", err)
		return Outcome{SKU: answer.SKU, Status: StatusFailed, Message: err.Error()}
	}

	// Zero rows affected without an error means the row vanished between the
	// read and the write; report it rather than claiming success.
	if affected == 0 {
		slog.Error("Database update affected no rows", "sku", answer.SKU)
		return Outcome{SKU: answer.SKU, Status: StatusFailed, Message: "no rows updated"}
	}

	return Outcome{SKU: answer.SKU, Status: StatusUpdated}
}

func (r *Reconciler) hasChanges(current *database.Product, answer supplier.Answer) bool {
	return current.SupplierPrice != answer.Price ||
		current.Quantity != answer.Quantity ||
		current.Availability != string(answer.Availability) ||
		current.Brand != answer.Brand ||
		current.LeadTime != r.leadTime ||
		current.LeadTime2 != r.leadTime2 ||
		current.HandlingTimeAmz != answer.HandlingDays
}
