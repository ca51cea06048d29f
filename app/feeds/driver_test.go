package feeds

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sevcommerce/catalog-sync/app/database"
)

type mockProductRepository struct {
	pending    []database.PendingProduct
	pendingErr error
	resetErr   error

	resetCalls  int
	resetFlag   int
	resetPrefix string
}

func (m *mockProductRepository) GetBySKU(sku string) (*database.Product, error) {
	return nil, nil
}

func (m *mockProductRepository) TouchLastUpdate(sku string) error {
	return nil
}

func (m *mockProductRepository) UpdateProduct(sku string, update database.ProductUpdate) (int64, error) {
	return 0, nil
}

func (m *mockProductRepository) GetPendingForFeed(updateFlag int, skuPrefix string) ([]database.PendingProduct, error) {
	return m.pending, m.pendingErr
}

func (m *mockProductRepository) ResetUpdateFlag(updateFlag int, skuPrefix string) (int64, error) {
	m.resetCalls++
	m.resetFlag = updateFlag
	m.resetPrefix = skuPrefix
	return int64(len(m.pending)), m.resetErr
}

func pendingRows(n int) []database.PendingProduct {
	rows := make([]database.PendingProduct, n)
	for i := range rows {
		rows[i] = database.PendingProduct{
			MarketplaceSKU:  fmt.Sprintf("SEVC-%03d", i+1),
			Quantity:        20,
			HandlingTimeAmz: 4,
		}
	}
	return rows
}

func newTestDriver(t *testing.T, repo database.ProductRepository, api *mockAPI, sliceSize int) *Driver {
	t.Helper()

	sub, _ := newTestSubmission(api)
	driver := NewDriver(repo, api, sub, "SELLER123", 4, "SEVC", sliceSize, t.TempDir())
	driver.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}

	return driver
}

func TestDriverNoPendingProducts(t *testing.T) {
	repo := &mockProductRepository{}
	api := &mockAPI{}
	driver := newTestDriver(t, repo, api, 9990)

	report, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if report.Pending != 0 || report.Slices != 0 {
		t.Errorf("Expected empty report, got %+v", report)
	}
	if api.submitCalls != 0 {
		t.Errorf("Expected no submissions, got %d", api.submitCalls)
	}
	if repo.resetCalls != 0 {
		t.Errorf("Expected no flag reset, got %d calls", repo.resetCalls)
	}
}

func TestDriverSingleSliceSuccess(t *testing.T) {
	repo := &mockProductRepository{pending: pendingRows(3)}
	api := &mockAPI{
		statuses: []pollStep{
			{status: &FeedStatus{ProcessingStatus: StatusDone, ResultDocumentID: "res-1"}},
		},
	}
	driver := newTestDriver(t, repo, api, 9990)

	report, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if report.Slices != 1 {
		t.Errorf("Expected 1 slice, got %d", report.Slices)
	}
	if !report.FlagsReset {
		t.Error("Expected update flags to be reset")
	}
	if repo.resetFlag != 4 || repo.resetPrefix != "SEVC" {
		t.Errorf("Expected reset with flag 4 and prefix SEVC, got %d %q",
			repo.resetFlag, repo.resetPrefix)
	}
}

func TestDriverSlicesLargeRuns(t *testing.T) {
	repo := &mockProductRepository{pending: pendingRows(7)}
	api := &mockAPI{
		statuses: []pollStep{
			{status: &FeedStatus{ProcessingStatus: StatusDone, ResultDocumentID: "res-1"}},
		},
	}
	driver := newTestDriver(t, repo, api, 3)

	report, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if report.Slices != 3 {
		t.Errorf("Expected 3 slices for 7 rows at size 3, got %d", report.Slices)
	}
	if api.submitCalls != 3 {
		t.Errorf("Expected 3 submissions, got %d", api.submitCalls)
	}
	if !report.FlagsReset {
		t.Error("Expected update flags to be reset after all slices succeeded")
	}
}

func TestDriverKeepsFlagsWhenSliceTimesOut(t *testing.T) {
	repo := &mockProductRepository{pending: pendingRows(2)}
	api := &mockAPI{
		statuses: []pollStep{
			{status: &FeedStatus{ProcessingStatus: StatusInProgress}},
		},
	}
	driver := newTestDriver(t, repo, api, 9990)

	report, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if report.FlagsReset {
		t.Error("Expected update flags to be kept after a timed-out slice")
	}
	if repo.resetCalls != 0 {
		t.Errorf("Expected no flag reset, got %d calls", repo.resetCalls)
	}
	if len(report.Results) != 1 || report.Results[0].Status != StatusTimedOut {
		t.Errorf("Expected a TIMED_OUT slice result, got %+v", report.Results)
	}
}

func TestDriverKeepsFlagsWhenResultDocumentMissing(t *testing.T) {
	repo := &mockProductRepository{pending: pendingRows(2)}
	api := &mockAPI{
		statuses: []pollStep{
			{status: &FeedStatus{ProcessingStatus: StatusDone}},
		},
	}
	driver := newTestDriver(t, repo, api, 9990)

	report, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if report.FlagsReset {
		t.Error("Expected update flags to be kept when no result document was reported")
	}
	if repo.resetCalls != 0 {
		t.Errorf("Expected no flag reset, got %d calls", repo.resetCalls)
	}
	if len(report.Results) != 1 || report.Results[0].Status != StatusDone {
		t.Errorf("Expected a DONE slice result, got %+v", report.Results)
	}
}

func TestDriverContinuesAfterFailedSlice(t *testing.T) {
	repo := &mockProductRepository{pending: pendingRows(4)}
	limited := &RateLimitedError{RetryAfter: time.Second}
	api := &mockAPI{
		// first slice exhausts all four submit attempts, second succeeds
		submitErrs: []error{limited, limited, limited, limited},
		statuses: []pollStep{
			{status: &FeedStatus{ProcessingStatus: StatusDone, ResultDocumentID: "res-1"}},
		},
	}
	driver := newTestDriver(t, repo, api, 2)

	report, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if report.Slices != 2 {
		t.Errorf("Expected 2 slices, got %d", report.Slices)
	}
	if len(report.Results) != 1 {
		t.Fatalf("Expected 1 successful slice result, got %d", len(report.Results))
	}
	if report.FlagsReset {
		t.Error("Expected update flags to be kept after a failed slice")
	}
}

func TestDriverTokenFailure(t *testing.T) {
	repo := &mockProductRepository{pending: pendingRows(1)}
	api := &mockAPI{tokenErr: fmt.Errorf("auth down")}
	driver := newTestDriver(t, repo, api, 9990)

	_, err := driver.Run(context.Background())
	if err == nil {
		t.Fatal("Expected error when token exchange fails, got nil")
	}
	if api.submitCalls != 0 {
		t.Errorf("Expected no submissions without a token, got %d", api.submitCalls)
	}
}

func TestDriverWritesAuditCopies(t *testing.T) {
	repo := &mockProductRepository{pending: pendingRows(4)}
	api := &mockAPI{
		statuses: []pollStep{
			{status: &FeedStatus{ProcessingStatus: StatusDone, ResultDocumentID: "res-1"}},
		},
	}

	sub, _ := newTestSubmission(api)
	dir := t.TempDir()
	driver := NewDriver(repo, api, sub, "SELLER123", 4, "SEVC", 2, dir)
	driver.now = func() time.Time {
		return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	}

	if _, err := driver.Run(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, name := range []string{
		"inventory_feed_batch1_20260828_120000.json",
		"inventory_feed_batch2_20260828_120000.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected audit file %s: %v", name, err)
		}
	}
}
