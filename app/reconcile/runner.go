package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sevcommerce/catalog-sync/app/supplier"
)

const (
	windowPause = 1 * time.Second
	groupPause  = 2 * time.Second
)

// Runner fans SKU lookups out across bounded concurrency windows and applies
// the resulting writes strictly sequentially. The pauses between windows and
// groups are a courtesy toward the supplier API, not a correctness requirement.
type Runner struct {
	fetcher     ItemFetcher
	reconciler  ItemReconciler
	batchSize   int
	concurrency int
	pause       func(time.Duration)
}

func NewRunner(fetcher ItemFetcher, reconciler ItemReconciler, batchSize, concurrency int) *Runner {
	if batchSize <= 0 {
		batchSize = 1
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{
		fetcher:     fetcher,
		reconciler:  reconciler,
		batchSize:   batchSize,
		concurrency: concurrency,
		pause:       time.Sleep,
	}
}

// Run processes every SKU and returns the aggregated report. The report
// always accounts for all input SKUs.
func (r *Runner) Run(ctx context.Context, skus []string) Report {
	slog.Info("Starting reconciliation run",
		"total", len(skus), "batch_size", r.batchSize, "concurrency", r.concurrency)

	report := Report{}

	for start := 0; start < len(skus); start += r.batchSize {
		end := min(start+r.batchSize, len(skus))
		group := skus[start:end]
		groupNumber := start/r.batchSize + 1

		slog.Info("Processing group", "group", groupNumber, "size", len(group))

		for wStart := 0; wStart < len(group); wStart += r.concurrency {
			wEnd := min(wStart+r.concurrency, len(group))
			window := group[wStart:wEnd]

			for _, outcome := range r.runWindow(ctx, window) {
				report.Outcomes = append(report.Outcomes, outcome)
				report.Total++
				switch outcome.Status {
				case StatusUpdated:
					report.Updated++
				case StatusUnchanged:
					report.Unchanged++
				default:
					report.Failed++
				}
			}

			if wEnd < len(group) {
				r.pause(windowPause)
			}
		}

		if end < len(skus) {
			slog.Info("Completed group, pausing before next", "group", groupNumber)
			r.pause(groupPause)
		}
	}

	slog.Info("Reconciliation run finished",
		"total", report.Total, "updated", report.Updated,
		"unchanged", report.Unchanged, "failed", report.Failed)

	return report
}

// runWindow fetches one window concurrently, joins fully, then reconciles the
// collected answers in completion order. Writes never overlap fetches.
func (r *Runner) runWindow(ctx context.Context, window []string) []Outcome {
	results := make(chan supplier.Answer, len(window))

	var wg sync.WaitGroup
	for _, sku := range window {
		wg.Add(1)
		go func(sku string) {
			defer wg.Done()
			results <- r.fetcher.Fetch(ctx, sku)
		}(sku)
	}
	wg.Wait()
	close(results)

	outcomes := make([]Outcome, 0, len(window))
	for answer := range results {
		outcomes = append(outcomes, r.reconciler.Reconcile(answer))
	}
	return outcomes
}
