package supplier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(serverURL string) *Client {
	return NewClient(ClientOptions{
		BaseURL:      serverURL,
		UserAgent:    "test-agent",
		StockLevel:   20,
		HandlingDays: 4,
	})
}

func TestLookup_InStock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/6569319" {
			t.Errorf("Expected path /6569319, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"success": true, "data": {"availability": "InStock", "price": 1399.99, "brand": "Sony"}}`))
	}))
	defer server.Close()

	answer, err := newTestClient(server.URL).Lookup(context.Background(), "6569319")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if answer.Availability != InStock {
		t.Errorf("Expected inStock, got %v", answer.Availability)
	}
	if answer.Quantity != 20 {
		t.Errorf("Expected configured stock level 20, got %d", answer.Quantity)
	}
	if answer.Price != 1399.99 {
		t.Errorf("Expected price 1399.99, got %v", answer.Price)
	}
	if answer.Brand != "Sony" {
		t.Errorf("Expected brand 'Sony', got '%s'", answer.Brand)
	}
	if answer.HandlingDays != 4 {
		t.Errorf("Expected handling days 4, got %d", answer.HandlingDays)
	}
}

func TestLookup_OutOfStock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": {"availability": "SoldOut", "price": 0, "brand": ""}}`))
	}))
	defer server.Close()

	answer, err := newTestClient(server.URL).Lookup(context.Background(), "100")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if answer.Availability != OutOfStock {
		t.Errorf("Expected outOfStock, got %v", answer.Availability)
	}
	if answer.Quantity != 0 {
		t.Errorf("Expected quantity 0 for out-of-stock, got %d", answer.Quantity)
	}
}

func TestLookup_AvailabilityCaseInsensitive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": {"availability": "INSTOCK", "price": 10, "brand": "x"}}`))
	}))
	defer server.Close()

	answer, err := newTestClient(server.URL).Lookup(context.Background(), "100")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if answer.Availability != InStock {
		t.Errorf("Availability comparison should be case-insensitive, got %v", answer.Availability)
	}
}

func TestLookup_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Lookup(context.Background(), "100")
	if err == nil {
		t.Error("Expected error for HTTP 500")
	}
}

func TestLookup_InvalidStructure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Lookup(context.Background(), "100")
	if err == nil {
		t.Error("Expected error for success=false payload")
	}
}
