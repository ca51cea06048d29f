package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevcommerce/catalog-sync/app/database"
)

// RunReport summarizes one feed submission pass over the pending products
type RunReport struct {
	Pending    int
	Slices     int
	Results    []*Result
	FlagsReset bool
}

// Driver turns flagged database rows into feed documents and pushes each
// through the submission lifecycle. Update flags are cleared only when every
// slice reaches Done, so a failed slice keeps its rows queued for the next run.
type Driver struct {
	repo       database.ProductRepository
	api        MarketplaceAPI
	submission *Submission

	sellerID   string
	updateFlag int
	skuPrefix  string
	sliceSize  int
	feedsDir   string

	now func() time.Time
}

func NewDriver(repo database.ProductRepository, api MarketplaceAPI, submission *Submission,
	sellerID string, updateFlag int, skuPrefix string, sliceSize int, feedsDir string) *Driver {
	return &Driver{
		repo:       repo,
		api:        api,
		submission: submission,
		sellerID:   sellerID,
		updateFlag: updateFlag,
		skuPrefix:  skuPrefix,
		sliceSize:  sliceSize,
		feedsDir:   feedsDir,
		now:        time.Now,
	}
}

func (d *Driver) Run(ctx context.Context) (*RunReport, error) {
	pending, err := d.repo.GetPendingForFeed(d.updateFlag, d.skuPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending products: %w", err)
	}

	report := &RunReport{Pending: len(pending)}

	if len(pending) == 0 {
		slog.Info("No pending products, skipping feed submission")
		return report, nil
	}

	slices := sliceRows(pending, d.sliceSize)
	report.Slices = len(slices)

	slog.Info("Starting feed submission",
		"pending", len(pending), "slices", len(slices))

	token, err := d.api.GetAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}

	allDone := true

	for i, rows := range slices {
		result, err := d.submitSlice(ctx, token, rows, i+1, len(slices))
		if err != nil {
			slog.Error("Feed slice failed", "slice", i+1, "error", err)
			allDone = false
			continue
		}

		report.Results = append(report.Results, result)
		// DONE without a result document means the marketplace never
		// reported what it processed; keep the rows flagged.
		if result.Status != StatusDone || result.ResultDocumentID == "" {
			allDone = false
		}
	}

	if allDone {
		cleared, err := d.repo.ResetUpdateFlag(d.updateFlag, d.skuPrefix)
		if err != nil {
			return report, fmt.Errorf("failed to reset update flags: %w", err)
		}
		report.FlagsReset = true
		slog.Info("Update flags cleared", "rows", cleared)
	} else {
		slog.Warn("Not all feed slices succeeded, update flags kept for retry")
	}

	return report, nil
}

func (d *Driver) submitSlice(ctx context.Context, token string, rows []database.PendingProduct,
	batch, totalBatches int) (*Result, error) {
	doc, err := BuildDocument(d.sellerID, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed document: %w", err)
	}

	if path, err := saveAudit(d.feedsDir, doc, batch, totalBatches, d.now()); err != nil {
		slog.Warn("Failed to save feed audit copy", "error", err)
	} else {
		slog.Debug("Feed audit copy saved", "path", path)
	}

	result, err := d.submission.Run(ctx, token, doc)
	if err != nil {
		return nil, err
	}

	slog.Info("Feed slice finished",
		"slice", batch, "feed_id", result.FeedID, "status", result.Status, "products", len(rows))

	return result, nil
}

func sliceRows(rows []database.PendingProduct, size int) [][]database.PendingProduct {
	if size <= 0 {
		return [][]database.PendingProduct{rows}
	}

	var slices [][]database.PendingProduct
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		slices = append(slices, rows[start:end])
	}

	return slices
}
