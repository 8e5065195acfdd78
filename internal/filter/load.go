package filter

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// LoadPatterns reads a JSONC array of glob patterns. Comments and trailing commas are allowed;
// blank entries are skipped.
func LoadPatterns(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied pattern file
	if err != nil {
		return nil, fmt.Errorf("reading patterns %q: %w", path, err)
	}

	var raw []string
	if err := json.Unmarshal(jsonc.ToJSONInPlace(data), &raw); err != nil {
		return nil, fmt.Errorf("parsing patterns %q: %w", path, err)
	}

	patterns := raw[:0]

	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}

	return patterns, nil
}
