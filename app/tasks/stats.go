package tasks

import (
	"sync"
	"time"

	"github.com/sevcommerce/catalog-sync/app/feeds"
	"github.com/sevcommerce/catalog-sync/app/reconcile"
)

// Stats tracks the outcome of completed sync cycles for the status API
type Stats struct {
	mu sync.Mutex

	runCount  int
	lastRunAt time.Time
	lastError string

	lastSync *SyncSummary
	lastFeed *FeedSummary
}

type SyncSummary struct {
	Total     int       `json:"total"`
	Updated   int       `json:"updated"`
	Unchanged int       `json:"unchanged"`
	Failed    int       `json:"failed"`
	Duration  string    `json:"duration"`
	At        time.Time `json:"at"`
}

type FeedSummary struct {
	Pending    int       `json:"pending"`
	Slices     int       `json:"slices"`
	Submitted  int       `json:"submitted"`
	FlagsReset bool      `json:"flags_reset"`
	Duration   string    `json:"duration"`
	At         time.Time `json:"at"`
}

// Snapshot is a consistent read of the current statistics
type Snapshot struct {
	RunCount  int          `json:"run_count"`
	LastRunAt *time.Time   `json:"last_run_at,omitempty"`
	LastError string       `json:"last_error,omitempty"`
	LastSync  *SyncSummary `json:"last_sync,omitempty"`
	LastFeed  *FeedSummary `json:"last_feed,omitempty"`
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) RecordSync(report reconcile.Report, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runCount++
	s.lastRunAt = time.Now()
	s.lastSync = &SyncSummary{
		Total:     report.Total,
		Updated:   report.Updated,
		Unchanged: report.Unchanged,
		Failed:    report.Failed,
		Duration:  duration.Round(time.Millisecond).String(),
		At:        s.lastRunAt,
	}
}

func (s *Stats) RecordFeed(report *feeds.RunReport, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastFeed = &FeedSummary{
		Pending:    report.Pending,
		Slices:     report.Slices,
		Submitted:  len(report.Results),
		FlagsReset: report.FlagsReset,
		Duration:   duration.Round(time.Millisecond).String(),
		At:         time.Now(),
	}
}

func (s *Stats) RecordError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = err.Error()
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		RunCount:  s.runCount,
		LastError: s.lastError,
		LastSync:  s.lastSync,
		LastFeed:  s.lastFeed,
	}
	if !s.lastRunAt.IsZero() {
		at := s.lastRunAt
		snapshot.LastRunAt = &at
	}

	return snapshot
}
