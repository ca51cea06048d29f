package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const maxDownloadRetries = 3

// Submission drives one feed document through the marketplace lifecycle:
// create, upload, submit, poll, and result retrieval.
type Submission struct {
	api             MarketplaceAPI
	pollInterval    time.Duration
	maxPollAttempts int
	submitRetries   int

	sleep func(time.Duration)
}

func NewSubmission(api MarketplaceAPI, pollInterval time.Duration, maxPollAttempts, submitRetries int) *Submission {
	return &Submission{
		api:             api,
		pollInterval:    pollInterval,
		maxPollAttempts: maxPollAttempts,
		submitRetries:   submitRetries,
		sleep:           time.Sleep,
	}
}

// Run executes the full lifecycle for one document and returns the terminal
// outcome. A nil error with a non-Done status means the marketplace rejected
// or never finished the feed; the caller decides what that implies.
func (s *Submission) Run(ctx context.Context, token string, doc *Document) (*Result, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize feed document: %w", err)
	}

	handle, err := s.api.CreateDocument(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed document: %w", err)
	}

	if err := s.api.UploadDocument(ctx, handle.UploadURL, payload); err != nil {
		return nil, fmt.Errorf("failed to upload feed document: %w", err)
	}

	feedID, err := s.submit(ctx, token, handle.DocumentID)
	if err != nil {
		return nil, err
	}

	status, err := s.poll(ctx, token, feedID)
	if err != nil {
		return nil, err
	}

	result := &Result{
		FeedID:           feedID,
		Status:           status.ProcessingStatus,
		ResultDocumentID: status.ResultDocumentID,
	}

	if status.ProcessingStatus == StatusDone {
		if status.ResultDocumentID == "" {
			slog.Warn("Feed done but no result document reported", "feed_id", feedID)
		} else if report, err := s.downloadResult(ctx, token, status.ResultDocumentID); err != nil {
			slog.Warn("Failed to retrieve feed result", "feed_id", feedID, "error", err)
		} else {
			result.Report = report
		}
	}

	return result, nil
}

// submit retries rate-limited submissions up to the configured cap, honoring
// the server-directed delay between attempts
func (s *Submission) submit(ctx context.Context, token, documentID string) (string, error) {
	attempts := s.submitRetries + 1

	for attempt := 1; attempt <= attempts; attempt++ {
		feedID, err := s.api.SubmitFeed(ctx, token, documentID)
		if err == nil {
			return feedID, nil
		}

		var limited *RateLimitedError
		if !errors.As(err, &limited) {
			return "", fmt.Errorf("failed to submit feed: %w", err)
		}
		if attempt == attempts {
			return "", fmt.Errorf("feed submission rate limited after %d attempts", attempts)
		}

		slog.Warn("Feed submission rate limited",
			"attempt", attempt, "retry_after", limited.RetryAfter)
		s.sleep(limited.RetryAfter)
	}

	return "", fmt.Errorf("feed submission attempts exhausted")
}

// poll waits for a terminal processing status. Rate-limited polls consume an
// attempt like any other, so a throttled marketplace cannot extend the
// polling window indefinitely. Exhausting attempts yields TimedOut.
func (s *Submission) poll(ctx context.Context, token, feedID string) (*FeedStatus, error) {
	for attempt := 1; attempt <= s.maxPollAttempts; attempt++ {
		status, err := s.api.GetFeedStatus(ctx, token, feedID)

		delay := s.pollInterval

		var limited *RateLimitedError
		switch {
		case err == nil:
			if status.ProcessingStatus.Terminal() {
				slog.Info("Feed reached terminal status",
					"feed_id", feedID, "status", status.ProcessingStatus, "attempts", attempt)
				return status, nil
			}
			slog.Debug("Feed still processing",
				"feed_id", feedID, "status", status.ProcessingStatus, "attempt", attempt)

		case errors.As(err, &limited):
			// Throttled polls pause for the server-directed delay but
			// still burn an attempt
			delay = limited.RetryAfter
			slog.Warn("Feed status poll rate limited",
				"feed_id", feedID, "attempt", attempt, "retry_after", limited.RetryAfter)

		default:
			return nil, fmt.Errorf("failed to get feed status: %w", err)
		}

		if attempt < s.maxPollAttempts {
			s.sleep(delay)
		}
	}

	slog.Warn("Feed polling exhausted", "feed_id", feedID, "attempts", s.maxPollAttempts)

	return &FeedStatus{ProcessingStatus: StatusTimedOut}, nil
}

// downloadResult fetches the processing report, retrying rate-limited
// downloads a bounded number of times
func (s *Submission) downloadResult(ctx context.Context, token, resultDocumentID string) (string, error) {
	for attempt := 1; attempt <= maxDownloadRetries; attempt++ {
		body, err := s.api.FetchResult(ctx, token, resultDocumentID)
		if err == nil {
			return decodeResult(body), nil
		}

		var limited *RateLimitedError
		if !errors.As(err, &limited) {
			return "", fmt.Errorf("failed to fetch feed result: %w", err)
		}
		if attempt == maxDownloadRetries {
			return "", fmt.Errorf("result download rate limited after %d attempts", maxDownloadRetries)
		}

		s.sleep(limited.RetryAfter)
	}

	return "", fmt.Errorf("result download attempts exhausted")
}
