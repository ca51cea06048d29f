package feeds

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// saveAudit writes the serialized feed document next to the submission for
// later inspection. batch is 1-based; a single-slice run omits the batch
// marker from the filename.
func saveAudit(dir string, doc *Document, batch, totalBatches int, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create feeds directory: %w", err)
	}

	stamp := now.Format("20060102_150405")
	name := fmt.Sprintf("inventory_feed_%s.json", stamp)
	if totalBatches > 1 {
		name = fmt.Sprintf("inventory_feed_batch%d_%s.json", batch, stamp)
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize feed document: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("failed to write feed file: %w", err)
	}

	return path, nil
}
