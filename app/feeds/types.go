package feeds

import (
	"fmt"
	"time"
)

// ProcessingStatus is the marketplace-reported feed lifecycle state, plus the
// local TimedOut terminal for exhausted polling.
type ProcessingStatus string

const (
	StatusSubmitted  ProcessingStatus = "SUBMITTED"
	StatusInProgress ProcessingStatus = "IN_PROGRESS"
	StatusDone       ProcessingStatus = "DONE"
	StatusCancelled  ProcessingStatus = "CANCELLED"
	StatusFatal      ProcessingStatus = "FATAL"
	StatusTimedOut   ProcessingStatus = "TIMED_OUT"
)

// Terminal reports whether the marketplace will not change this status anymore
func (s ProcessingStatus) Terminal() bool {
	switch s {
	case StatusDone, StatusCancelled, StatusFatal:
		return true
	}
	return false
}

// Document is the bulk partial-update payload in the marketplace wire format
type Document struct {
	Header   Header    `json:"header"`
	Messages []Message `json:"messages"`
}

type Header struct {
	SellerID    string `json:"sellerId"`
	Version     string `json:"version"`
	IssueLocale string `json:"issueLocale"`
}

type Message struct {
	MessageID     int        `json:"messageId"`
	OperationType string     `json:"operationType"`
	SKU           string     `json:"sku"`
	ProductType   string     `json:"productType"`
	Attributes    Attributes `json:"attributes"`
}

type Attributes struct {
	FulfillmentAvailability []FulfillmentAvailability `json:"fulfillment_availability"`
}

type FulfillmentAvailability struct {
	FulfillmentChannelCode string `json:"fulfillment_channel_code"`
	Quantity               int    `json:"quantity"`
	LeadTimeToShipMaxDays  int    `json:"lead_time_to_ship_max_days"`
}

// DocumentHandle is the marketplace's one-time upload target for a new document
type DocumentHandle struct {
	DocumentID string `json:"feedDocumentId"`
	UploadURL  string `json:"url"`
}

// FeedStatus is one polled snapshot of a submitted feed
type FeedStatus struct {
	ProcessingStatus ProcessingStatus `json:"processingStatus"`
	ResultDocumentID string           `json:"resultFeedDocumentId"`
}

// Result is the terminal outcome of one feed submission
type Result struct {
	FeedID           string
	Status           ProcessingStatus
	ResultDocumentID string
	Report           string // parsed result content as text, or raw body when parsing failed
}

// RateLimitedError signals a 429 with the server-directed (or default) delay
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}
