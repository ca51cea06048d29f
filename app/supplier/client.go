package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const lookupTimeout = 30 * time.Second

// LookupClient issues one supplier lookup per call
type LookupClient interface {
	Lookup(ctx context.Context, sku string) (Answer, error)
}

type ClientOptions struct {
	BaseURL      string
	UserAgent    string
	RPS          float64 // 0 disables rate limiting
	StockLevel   int
	HandlingDays int // sum of the two configured lead-time constants
}

// Client queries the supplier price/availability API
type Client struct {
	baseURL      string
	userAgent    string
	httpClient   *http.Client
	limiter      *rate.Limiter
	stockLevel   int
	handlingDays int
}

var _ LookupClient = (*Client)(nil)

func NewClient(opts ClientOptions) *Client {
	var limiter *rate.Limiter
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}

	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		userAgent:    opts.UserAgent,
		httpClient:   &http.Client{Timeout: lookupTimeout},
		limiter:      limiter,
		stockLevel:   opts.StockLevel,
		handlingDays: opts.HandlingDays,
	}
}

type lookupResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Availability string  `json:"availability"`
		Price        float64 `json:"price"`
		Brand        string  `json:"brand"`
	} `json:"data"`
}

// Lookup fetches and normalizes the supplier answer for one SKU
func (c *Client) Lookup(ctx context.Context, sku string) (Answer, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Answer{}, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s", c.baseURL, sku)
	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Answer{}, fmt.Errorf("failed to fetch product data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Answer{}, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Answer{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if !payload.Success {
		return Answer{}, fmt.Errorf("API returned invalid data structure")
	}

	isInStock := strings.EqualFold(payload.Data.Availability, "instock")

	answer := Answer{
		SKU:          sku,
		Price:        payload.Data.Price,
		Brand:        payload.Data.Brand,
		Availability: OutOfStock,
		Quantity:     0,
		HandlingDays: c.handlingDays,
	}
	if isInStock {
		answer.Availability = InStock
		answer.Quantity = c.stockLevel
	}

	slog.Debug("Supplier lookup",
		"sku", sku,
		"availability", payload.Data.Availability,
		"price", payload.Data.Price)

	return answer, nil
}
