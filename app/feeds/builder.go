package feeds

import (
	"fmt"
	"log/slog"

	"github.com/sevcommerce/catalog-sync/app/database"
)

const (
	feedVersion     = "2.0"
	feedIssueLocale = "en_US"
	operationType   = "PARTIAL_UPDATE"
	productType     = "PRODUCT"
	channelCode     = "DEFAULT"
)

// BuildDocument maps pending rows to a partial-update document. Message IDs
// are 1-based in input order. A validation failure returns no document at
// all; callers must treat that as a hard stop for the slice, not a retry.
func BuildDocument(sellerID string, rows []database.PendingProduct) (*Document, error) {
	messages := make([]Message, 0, len(rows))
	for i, row := range rows {
		messages = append(messages, Message{
			MessageID:     i + 1,
			OperationType: operationType,
			SKU:           row.MarketplaceSKU,
			ProductType:   productType,
			Attributes: Attributes{
				FulfillmentAvailability: []FulfillmentAvailability{
					{
						FulfillmentChannelCode: channelCode,
						Quantity:               row.Quantity,
						LeadTimeToShipMaxDays:  row.HandlingTimeAmz,
					},
				},
			},
		})
	}

	doc := &Document{
		Header: Header{
			SellerID:    sellerID,
			Version:     feedVersion,
			IssueLocale: feedIssueLocale,
		},
		Messages: messages,
	}

	if err := validateDocument(doc); err != nil {
		return nil, fmt.Errorf("feed document validation failed: %w", err)
	}

	slog.Info("Feed document built", "messages", len(messages))

	return doc, nil
}

func validateDocument(doc *Document) error {
	if doc.Header.SellerID == "" {
		return fmt.Errorf("header is missing seller ID")
	}
	if doc.Header.Version != feedVersion {
		return fmt.Errorf("unexpected schema version %q", doc.Header.Version)
	}

	for i, msg := range doc.Messages {
		if msg.MessageID != i+1 {
			return fmt.Errorf("message %d has non-sequential ID %d", i, msg.MessageID)
		}
		if msg.SKU == "" {
			return fmt.Errorf("message %d has an empty SKU", msg.MessageID)
		}
		if len(msg.Attributes.FulfillmentAvailability) == 0 {
			return fmt.Errorf("message %d has no fulfillment availability", msg.MessageID)
		}
		for _, fa := range msg.Attributes.FulfillmentAvailability {
			if fa.Quantity < 0 {
				return fmt.Errorf("message %d has negative quantity", msg.MessageID)
			}
		}
	}

	return nil
}
