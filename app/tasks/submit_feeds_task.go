package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevcommerce/catalog-sync/app/feeds"
)

// FeedDriver pushes pending products through the feed submission lifecycle
type FeedDriver interface {
	Run(ctx context.Context) (*feeds.RunReport, error)
}

var _ FeedDriver = (*feeds.Driver)(nil)

// SubmitFeedsTask submits all flagged products to the marketplace
type SubmitFeedsTask struct {
	Task
	driver FeedDriver
	stats  *Stats
}

func NewSubmitFeedsTask(driver FeedDriver, stats *Stats) *SubmitFeedsTask {
	return &SubmitFeedsTask{
		Task:   NewTask(TaskTypeSubmitFeeds),
		driver: driver,
		stats:  stats,
	}
}

func (t *SubmitFeedsTask) Execute(ctx context.Context) error {
	started := time.Now()

	report, err := t.driver.Run(ctx)
	if err != nil {
		t.stats.RecordError(err)
		return fmt.Errorf("feed submission failed: %w", err)
	}

	t.stats.RecordFeed(report, time.Since(started))

	slog.Info("Feed submission finished",
		"pending", report.Pending, "slices", report.Slices,
		"submitted", len(report.Results), "flags_reset", report.FlagsReset,
		"duration", time.Since(started).Round(time.Millisecond))

	return nil
}
