package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevcommerce/catalog-sync/app/reconcile"
)

// CatalogRunner runs one reconciliation pass over a set of SKUs
type CatalogRunner interface {
	Run(ctx context.Context, skus []string) reconcile.Report
}

var _ CatalogRunner = (*reconcile.Runner)(nil)

// SyncCatalogTask reloads the catalog file and reconciles every listed SKU
// against the supplier
type SyncCatalogTask struct {
	Task
	catalogFile string
	runner      CatalogRunner
	stats       *Stats
}

func NewSyncCatalogTask(catalogFile string, runner CatalogRunner, stats *Stats) *SyncCatalogTask {
	return &SyncCatalogTask{
		Task:        NewTask(TaskTypeSyncCatalog),
		catalogFile: catalogFile,
		runner:      runner,
		stats:       stats,
	}
}

func (t *SyncCatalogTask) Execute(ctx context.Context) error {
	started := time.Now()

	skus, err := reconcile.LoadCatalog(t.catalogFile)
	if err != nil {
		t.stats.RecordError(err)
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	report := t.runner.Run(ctx, skus)
	t.stats.RecordSync(report, time.Since(started))

	slog.Info("Catalog sync finished",
		"total", report.Total, "updated", report.Updated,
		"unchanged", report.Unchanged, "failed", report.Failed,
		"duration", time.Since(started).Round(time.Millisecond))

	return nil
}
