package supplier

import (
	"context"
	"log/slog"
	"time"
)

const baseRetryDelay = 1000 * time.Millisecond

// Fetcher wraps a lookup with validation and severity-scaled backoff. It never
// returns an error: on exhausted attempts the caller gets the best suspicious
// answer seen, or the canonical out-of-stock fallback.
type Fetcher struct {
	lookup       LookupClient
	maxAttempts  int
	handlingDays int
	sleep        func(time.Duration)
}

func NewFetcher(lookup LookupClient, maxAttempts, handlingDays int) *Fetcher {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Fetcher{
		lookup:       lookup,
		maxAttempts:  maxAttempts,
		handlingDays: handlingDays,
		sleep:        time.Sleep,
	}
}

// Fetch runs up to maxAttempts lookups for a SKU and returns the most
// trustworthy answer obtained.
func (f *Fetcher) Fetch(ctx context.Context, sku string) Answer {
	var best *Answer

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		answer, err := f.lookup.Lookup(ctx, sku)
		if err != nil {
			slog.Error("Lookup attempt failed", "sku", sku, "attempt", attempt, "error", err)

			if attempt < f.maxAttempts {
				f.sleep(retryDelay(attempt, SeverityHigh))
				continue
			}

			slog.Warn("All lookup attempts failed, marking as outOfStock",
				"sku", sku, "attempts", f.maxAttempts)
			return f.fallback(sku)
		}

		verdict := Classify(answer)
		if verdict.Valid {
			if attempt > 1 {
				slog.Info("Valid response after retry",
					"sku", sku, "attempt", attempt,
					"availability", answer.Availability, "price", answer.Price)
			}
			return answer
		}

		// Retain the freshest answer unless that would downgrade the candidate
		if best == nil || !betterAnswer(*best, answer) {
			candidate := answer
			best = &candidate
		}

		slog.Warn("Suspicious supplier response",
			"sku", sku, "attempt", attempt,
			"reason", verdict.Reason, "severity", verdict.Severity)

		if attempt < f.maxAttempts {
			delay := retryDelay(attempt, verdict.Severity)
			slog.Debug("Retrying lookup", "sku", sku, "delay", delay, "attempt", attempt)
			f.sleep(delay)
		}
	}

	slog.Warn("Max retries reached, using best available response", "sku", sku)
	if best != nil {
		return *best
	}
	return f.fallback(sku)
}

// betterAnswer reports whether current improves on the retained candidate: a
// positive price supersedes a zero price, inStock supersedes outOfStock.
func betterAnswer(current, previous Answer) bool {
	if current.Price > 0 && previous.Price == 0 {
		return true
	}
	if current.Availability == InStock && previous.Availability == OutOfStock {
		return true
	}
	return false
}

// retryDelay scales the progressive backoff by verdict severity
func retryDelay(attempt int, severity Severity) time.Duration {
	multiplier := 1.0
	switch severity {
	case SeverityMedium:
		multiplier = 1.5
	case SeverityHigh:
		multiplier = 2.0
	}

	return time.Duration(float64(baseRetryDelay) * float64(attempt) * multiplier)
}

func (f *Fetcher) fallback(sku string) Answer {
	return Answer{
		SKU:          sku,
		Availability: OutOfStock,
		HandlingDays: f.handlingDays,
	}
}
