package feeds

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sevcommerce/catalog-sync/app/database"
)

// mockAPI scripts the marketplace surface call by call
type mockAPI struct {
	tokenErr   error
	createErr  error
	uploadErr  error
	submitErrs []error
	feedID     string
	statuses   []pollStep
	resultBody []byte
	resultErrs []error

	submitCalls   int
	pollCalls     int
	fetchCalls    int
	uploadedBytes []byte
}

type pollStep struct {
	status *FeedStatus
	err    error
}

func (m *mockAPI) GetAccessToken(ctx context.Context) (string, error) {
	if m.tokenErr != nil {
		return "", m.tokenErr
	}
	return "token-1", nil
}

func (m *mockAPI) CreateDocument(ctx context.Context, token string) (*DocumentHandle, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &DocumentHandle{DocumentID: "doc-1", UploadURL: "https://upload.example/doc-1"}, nil
}

func (m *mockAPI) UploadDocument(ctx context.Context, uploadURL string, payload []byte) error {
	m.uploadedBytes = payload
	return m.uploadErr
}

func (m *mockAPI) SubmitFeed(ctx context.Context, token, documentID string) (string, error) {
	call := m.submitCalls
	m.submitCalls++
	if call < len(m.submitErrs) && m.submitErrs[call] != nil {
		return "", m.submitErrs[call]
	}
	if m.feedID == "" {
		return "feed-1", nil
	}
	return m.feedID, nil
}

func (m *mockAPI) GetFeedStatus(ctx context.Context, token, feedID string) (*FeedStatus, error) {
	call := m.pollCalls
	m.pollCalls++
	if call >= len(m.statuses) {
		last := m.statuses[len(m.statuses)-1]
		return last.status, last.err
	}
	return m.statuses[call].status, m.statuses[call].err
}

func (m *mockAPI) FetchResult(ctx context.Context, token, resultDocumentID string) ([]byte, error) {
	call := m.fetchCalls
	m.fetchCalls++
	if call < len(m.resultErrs) && m.resultErrs[call] != nil {
		return nil, m.resultErrs[call]
	}
	return m.resultBody, nil
}

func newTestSubmission(api *mockAPI) (*Submission, *[]time.Duration) {
	sub := NewSubmission(api, 30*time.Second, 20, 3)

	var slept []time.Duration
	sub.sleep = func(d time.Duration) {
		slept = append(slept, d)
	}

	return sub, &slept
}

func testDocument(t *testing.T) *Document {
	t.Helper()

	doc, err := BuildDocument("SELLER123", []database.PendingProduct{
		{MarketplaceSKU: "SEVC-A1", Quantity: 20, HandlingTimeAmz: 4},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	return doc
}

func TestSubmissionHappyPath(t *testing.T) {
	api := &mockAPI{
		statuses: []pollStep{
			{status: &FeedStatus{ProcessingStatus: StatusInProgress}},
			{status: &FeedStatus{ProcessingStatus: StatusDone, ResultDocumentID: "res-1"}},
		},
		resultBody: []byte(`{"summary":{"errors":0}}`),
	}
	sub, slept := newTestSubmission(api)

	result, err := sub.Run(context.Background(), "token-1", testDocument(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.FeedID != "feed-1" {
		t.Errorf("Expected feed ID 'feed-1', got %q", result.FeedID)
	}
	if result.Status != StatusDone {
		t.Errorf("Expected status DONE, got %q", result.Status)
	}
	if result.Report == "" {
		t.Error("Expected a decoded report, got empty string")
	}
	if len(api.uploadedBytes) == 0 {
		t.Error("Expected document payload to be uploaded")
	}
	if len(*slept) != 1 || (*slept)[0] != 30*time.Second {
		t.Errorf("Expected one 30s poll pause, got %v", *slept)
	}
}

func TestSubmissionRetriesRateLimitedSubmit(t *testing.T) {
	api := &mockAPI{
		submitErrs: []error{
			&RateLimitedError{RetryAfter: 300 * time.Second},
			&RateLimitedError{RetryAfter: 120 * time.Second},
		},
		statuses: []pollStep{
			{status: &FeedStatus{ProcessingStatus: StatusDone}},
		},
	}
	sub, slept := newTestSubmission(api)

	result, err := sub.Run(context.Background(), "token-1", testDocument(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if api.submitCalls != 3 {
		t.Errorf("Expected 3 submit attempts, got %d", api.submitCalls)
	}
	if len(*slept) != 2 || (*slept)[0] != 300*time.Second || (*slept)[1] != 120*time.Second {
		t.Errorf("Expected server-directed pauses [300s 120s], got %v", *slept)
	}
	if result.Status != StatusDone {
		t.Errorf("Expected status DONE, got %q", result.Status)
	}
}

func TestSubmissionSubmitRetriesExhausted(t *testing.T) {
	limited := &RateLimitedError{RetryAfter: time.Second}
	api := &mockAPI{
		submitErrs: []error{limited, limited, limited, limited},
	}
	sub, _ := newTestSubmission(api)

	_, err := sub.Run(context.Background(), "token-1", testDocument(t))
	if err == nil {
		t.Fatal("Expected error after exhausting submit retries, got nil")
	}
	if api.submitCalls != 4 {
		t.Errorf("Expected 4 submit attempts, got %d", api.submitCalls)
	}
	if api.pollCalls != 0 {
		t.Errorf("Expected no polling after failed submit, got %d calls", api.pollCalls)
	}
}

func TestSubmissionPollTimesOut(t *testing.T) {
	api := &mockAPI{
		statuses: []pollStep{
			{status: &FeedStatus{ProcessingStatus: StatusInProgress}},
		},
	}
	sub, slept := newTestSubmission(api)

	result, err := sub.Run(context.Background(), "token-1", testDocument(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Status != StatusTimedOut {
		t.Errorf("Expected status TIMED_OUT, got %q", result.Status)
	}
	if api.pollCalls != 20 {
		t.Errorf("Expected 20 poll attempts, got %d", api.pollCalls)
	}
	if len(*slept) != 19 {
		t.Errorf("Expected 19 poll pauses, got %d", len(*slept))
	}
}

func TestSubmissionRateLimitedPollConsumesAttempt(t *testing.T) {
	api := &mockAPI{
		statuses: []pollStep{
			{err: &RateLimitedError{RetryAfter: 300 * time.Second}},
		},
	}
	sub, slept := newTestSubmission(api)

	result, err := sub.Run(context.Background(), "token-1", testDocument(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Status != StatusTimedOut {
		t.Errorf("Expected status TIMED_OUT, got %q", result.Status)
	}
	if api.pollCalls != 20 {
		t.Errorf("Expected throttled polls to consume attempts, got %d calls", api.pollCalls)
	}
	if len(*slept) != 19 || (*slept)[0] != 300*time.Second {
		t.Errorf("Expected server-directed 300s pauses between throttled polls, got %v", *slept)
	}
}

func TestSubmissionRateLimitedPollUsesServerDelay(t *testing.T) {
	api := &mockAPI{
		statuses: []pollStep{
			{err: &RateLimitedError{RetryAfter: 300 * time.Second}},
			{status: &FeedStatus{ProcessingStatus: StatusInProgress}},
			{status: &FeedStatus{ProcessingStatus: StatusDone}},
		},
	}
	sub, slept := newTestSubmission(api)

	result, err := sub.Run(context.Background(), "token-1", testDocument(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Status != StatusDone {
		t.Errorf("Expected status DONE, got %q", result.Status)
	}
	if len(*slept) != 2 || (*slept)[0] != 300*time.Second || (*slept)[1] != 30*time.Second {
		t.Errorf("Expected pauses [300s 30s], got %v", *slept)
	}
}

func TestSubmissionCancelledIsTerminal(t *testing.T) {
	api := &mockAPI{
		statuses: []pollStep{
			{status: &FeedStatus{ProcessingStatus: StatusInProgress}},
			{status: &FeedStatus{ProcessingStatus: StatusCancelled}},
		},
	}
	sub, _ := newTestSubmission(api)

	result, err := sub.Run(context.Background(), "token-1", testDocument(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Status != StatusCancelled {
		t.Errorf("Expected status CANCELLED, got %q", result.Status)
	}
	if api.pollCalls != 2 {
		t.Errorf("Expected polling to stop at terminal status, got %d calls", api.pollCalls)
	}
	if api.fetchCalls != 0 {
		t.Errorf("Expected no result fetch for cancelled feed, got %d calls", api.fetchCalls)
	}
}

func TestSubmissionPollFailureIsFatal(t *testing.T) {
	api := &mockAPI{
		statuses: []pollStep{
			{err: fmt.Errorf("network down")},
		},
	}
	sub, _ := newTestSubmission(api)

	_, err := sub.Run(context.Background(), "token-1", testDocument(t))
	if err == nil {
		t.Fatal("Expected error from failed poll, got nil")
	}
	if api.pollCalls != 1 {
		t.Errorf("Expected polling to stop on hard failure, got %d calls", api.pollCalls)
	}
}

func TestSubmissionResultDownloadRetriesRateLimit(t *testing.T) {
	api := &mockAPI{
		statuses: []pollStep{
			{status: &FeedStatus{ProcessingStatus: StatusDone, ResultDocumentID: "res-1"}},
		},
		resultErrs: []error{&RateLimitedError{RetryAfter: 60 * time.Second}},
		resultBody: []byte("report"),
	}
	sub, slept := newTestSubmission(api)

	result, err := sub.Run(context.Background(), "token-1", testDocument(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if api.fetchCalls != 2 {
		t.Errorf("Expected 2 fetch attempts, got %d", api.fetchCalls)
	}
	if result.Report != "report" {
		t.Errorf("Expected report 'report', got %q", result.Report)
	}
	if len(*slept) != 1 || (*slept)[0] != 60*time.Second {
		t.Errorf("Expected one 60s download pause, got %v", *slept)
	}
}

func TestSubmissionResultDownloadFailureIsNonFatal(t *testing.T) {
	api := &mockAPI{
		statuses: []pollStep{
			{status: &FeedStatus{ProcessingStatus: StatusDone, ResultDocumentID: "res-1"}},
		},
		resultErrs: []error{fmt.Errorf("storage gone")},
	}
	sub, _ := newTestSubmission(api)

	result, err := sub.Run(context.Background(), "token-1", testDocument(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.Status != StatusDone {
		t.Errorf("Expected status DONE, got %q", result.Status)
	}
	if result.Report != "" {
		t.Errorf("Expected empty report on failed download, got %q", result.Report)
	}
}
