package reconcile

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the YAML-supplied list of SKUs to reconcile, with an optional
// skip list for items temporarily excluded from lookups.
type Catalog struct {
	SKUs []string `yaml:"skus"`
	Skip []string `yaml:"skip"`
}

// LoadCatalog reads the catalog file and returns the SKUs to process, with
// skip-listed and blank entries removed.
func LoadCatalog(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	skip := make(map[string]bool, len(catalog.Skip))
	for _, sku := range catalog.Skip {
		skip[strings.TrimSpace(sku)] = true
	}

	skus := make([]string, 0, len(catalog.SKUs))
	for _, sku := range catalog.SKUs {
		sku = strings.TrimSpace(sku)
		if sku == "" || skip[sku] {
			continue
		}
		skus = append(skus, sku)
	}

	if len(catalog.Skip) > 0 {
		slog.Info("Catalog loaded", "skus", len(skus), "skipped", len(catalog.SKUs)-len(skus))
	}

	return skus, nil
}
