package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// taskTimeout bounds one phase. Feed polling alone can legitimately take
// ten minutes, so this is generous.
const taskTimeout = 2 * time.Hour

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler runs sync cycles in daemon mode. A single worker drains the queue
// so the reconciliation phase of a cycle always finishes before its feed
// submission phase starts.
type Scheduler struct {
	catalogFile string
	runner      CatalogRunner
	driver      FeedDriver
	stats       *Stats
	interval    time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(catalogFile string, runner CatalogRunner, driver FeedDriver,
	stats *Stats, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		catalogFile: catalogFile,
		runner:      runner,
		driver:      driver,
		stats:       stats,
		interval:    interval,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 16),
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.worker()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueCycle()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueCycle()
			}
		}
	}()
}

// Stop cancels the context and waits for the workers. The queue is never
// closed: a detached retry goroutine may still call EnqueueTask after
// shutdown, and sending to a closed channel would panic.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueCycle queues one full sync cycle. A full queue means the previous
// cycle is still running; the tick is skipped rather than stacked.
func (s *Scheduler) enqueueCycle() {
	syncTask := NewSyncCatalogTask(s.catalogFile, s.runner, s.stats)
	if err := s.EnqueueTask(syncTask); err != nil {
		slog.Warn("Failed to enqueue SyncCatalogTask, skipping cycle", "error", err)
		return
	}

	submitTask := NewSubmitFeedsTask(s.driver, s.stats)
	if err := s.EnqueueTask(submitTask); err != nil {
		slog.Warn("Failed to enqueue SubmitFeedsTask", "error", err)
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		slog.Debug("Task finished", "type", string(task.GetType()),
			"id", task.GetID(), "duration", task.GetDuration().Round(time.Millisecond))
		return
	}

	slog.Error("Task execution failed", "type", string(task.GetType()),
		"id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()),
			"id", task.GetID(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "type", string(task.GetType()),
		"retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(),
		"delay", retryDelay.String())

	go func() {
		time.Sleep(retryDelay)
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry",
				"type", string(task.GetType()), "id", task.GetID())
		default:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry",
					"type", string(task.GetType()), "id", task.GetID(), "error", retryErr)
			}
		}
	}()
}

// RunOnce executes a single sync cycle synchronously. Used for one-shot runs
// where daemon mode is disabled. A failed reconciliation phase still lets the
// feed phase run: rows flagged by earlier cycles stay worth submitting.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	syncTask := NewSyncCatalogTask(s.catalogFile, s.runner, s.stats)
	syncTask.Start()
	syncErr := syncTask.Execute(ctx)
	if syncErr != nil {
		slog.Error("Catalog sync phase failed, continuing to feed submission", "error", syncErr)
	}

	submitTask := NewSubmitFeedsTask(s.driver, s.stats)
	submitTask.Start()
	if err := submitTask.Execute(ctx); err != nil {
		return err
	}

	return syncErr
}
