package feeds

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	feedsAPIPath = "/feeds/2021-06-30"

	// Server-directed delay fallbacks when a 429 carries no Retry-After
	defaultSubmitRetryAfter   = 300 * time.Second
	defaultDownloadRetryAfter = 60 * time.Second
)

// MarketplaceAPI is the remote feed-submission surface the state machine
// drives. Every call can return *RateLimitedError on a 429.
type MarketplaceAPI interface {
	GetAccessToken(ctx context.Context) (string, error)
	CreateDocument(ctx context.Context, token string) (*DocumentHandle, error)
	UploadDocument(ctx context.Context, uploadURL string, payload []byte) error
	SubmitFeed(ctx context.Context, token, documentID string) (string, error)
	GetFeedStatus(ctx context.Context, token, feedID string) (*FeedStatus, error)
	FetchResult(ctx context.Context, token, resultDocumentID string) ([]byte, error)
}

type ClientOptions struct {
	AuthURL       string // OAuth2 token endpoint
	APIBaseURL    string
	ClientID      string
	ClientSecret  string
	RefreshToken  string
	MarketplaceID string
	UserAgent     string
}

// Client talks to the marketplace selling-partner feed API
type Client struct {
	opts       ClientOptions
	httpClient *http.Client
}

var _ MarketplaceAPI = (*Client)(nil)

func NewClient(opts ClientOptions) *Client {
	opts.APIBaseURL = strings.TrimRight(opts.APIBaseURL, "/")
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// GetAccessToken exchanges the refresh token for a bearer token. Fetched once
// per phase invocation and threaded through calls.
func (c *Client) GetAccessToken(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.opts.ClientID},
		"client_secret": {c.opts.ClientSecret},
		"refresh_token": {c.opts.RefreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.opts.AuthURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("access token missing from response")
	}

	slog.Debug("Marketplace access token obtained")

	return payload.AccessToken, nil
}

// CreateDocument obtains a one-time upload target for a new feed document
func (c *Client) CreateDocument(ctx context.Context, token string) (*DocumentHandle, error) {
	body := []byte(`{"contentType":"application/json"}`)

	resp, err := c.doJSON(ctx, "POST", c.opts.APIBaseURL+feedsAPIPath+"/documents", token, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, c.protocolError("create feed document", resp)
	}

	var handle DocumentHandle
	if err := json.NewDecoder(resp.Body).Decode(&handle); err != nil {
		return nil, fmt.Errorf("failed to decode document handle: %w", err)
	}

	slog.Info("Feed document created", "document_id", handle.DocumentID)

	return &handle, nil
}

// UploadDocument PUTs the serialized feed to the pre-signed target
func (c *Client) UploadDocument(ctx context.Context, uploadURL string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, "PUT", uploadURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.protocolError("upload feed content", resp)
	}

	slog.Info("Feed content uploaded", "bytes", len(payload))

	return nil
}

// SubmitFeed references the uploaded document for processing. A 429 surfaces
// as *RateLimitedError with the server's Retry-After delay.
func (c *Client) SubmitFeed(ctx context.Context, token, documentID string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"feedType":            "JSON_LISTINGS_FEED",
		"marketplaceIds":      []string{c.opts.MarketplaceID},
		"inputFeedDocumentId": documentID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal submission: %w", err)
	}

	resp, err := c.doJSON(ctx, "POST", c.opts.APIBaseURL+feedsAPIPath+"/feeds", token, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusAccepted:
		var result struct {
			FeedID string `json:"feedId"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return "", fmt.Errorf("failed to decode submission response: %w", err)
		}
		if result.FeedID == "" {
			return "", fmt.Errorf("feed ID missing from response")
		}
		slog.Info("Feed submitted", "feed_id", result.FeedID)
		return result.FeedID, nil

	case http.StatusTooManyRequests:
		return "", &RateLimitedError{RetryAfter: retryAfter(resp, defaultSubmitRetryAfter)}

	default:
		return "", c.protocolError("submit feed", resp)
	}
}

// GetFeedStatus polls the processing status of a submitted feed
func (c *Client) GetFeedStatus(ctx context.Context, token, feedID string) (*FeedStatus, error) {
	resp, err := c.doJSON(ctx, "GET", c.opts.APIBaseURL+feedsAPIPath+"/feeds/"+feedID, token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var status FeedStatus
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return nil, fmt.Errorf("failed to decode feed status: %w", err)
		}
		return &status, nil

	case http.StatusTooManyRequests:
		return nil, &RateLimitedError{RetryAfter: retryAfter(resp, defaultSubmitRetryAfter)}

	default:
		return nil, c.protocolError("get feed status", resp)
	}
}

// FetchResult downloads the raw result content for a processed feed
func (c *Client) FetchResult(ctx context.Context, token, resultDocumentID string) ([]byte, error) {
	resp, err := c.doJSON(ctx, "GET",
		c.opts.APIBaseURL+feedsAPIPath+"/documents/"+resultDocumentID, token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to the content download below
	case http.StatusTooManyRequests:
		return nil, &RateLimitedError{RetryAfter: retryAfter(resp, defaultDownloadRetryAfter)}
	default:
		return nil, c.protocolError("get result document", resp)
	}

	var descriptor struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&descriptor); err != nil {
		return nil, fmt.Errorf("failed to decode result descriptor: %w", err)
	}
	if descriptor.URL == "" {
		return nil, fmt.Errorf("result document URL missing")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", descriptor.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	download, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("result download failed: %w", err)
	}
	defer download.Body.Close()

	if download.StatusCode != http.StatusOK {
		return nil, c.protocolError("download result content", download)
	}

	content, err := io.ReadAll(download.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read result content: %w", err)
	}

	return content, nil
}

func (c *Client) doJSON(ctx context.Context, method, url, token string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-amz-access-token", token)
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

func (c *Client) protocolError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
}

// retryAfter parses the Retry-After header, falling back to a default
func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
