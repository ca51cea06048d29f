package feeds

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
)

// decodeResult turns a downloaded result body into readable text. Bodies may
// arrive gzip-compressed or plain, and JSON or free-form; each layer falls
// back to the raw form instead of failing.
func decodeResult(body []byte) string {
	content := body

	if reader, err := gzip.NewReader(bytes.NewReader(body)); err == nil {
		if plain, err := io.ReadAll(reader); err == nil {
			content = plain
		}
		reader.Close()
	}

	var parsed interface{}
	if err := json.Unmarshal(content, &parsed); err == nil {
		if pretty, err := json.MarshalIndent(parsed, "", "  "); err == nil {
			return string(pretty)
		}
	}

	return string(content)
}
