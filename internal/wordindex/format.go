// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package wordindex

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/visual-medicine/pkg/types"
)

// FormatTable writes ranked as a human-readable table to w.
func FormatTable(ranked []types.WordCount, w io.Writer) {
	if len(ranked) == 0 {
		fmt.Fprintln(w, "No words counted.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-30s  %s\n", "Rank", "Word", "Count")
	fmt.Fprintln(w, strings.Repeat("-", 46))
	for i, wc := range ranked {
		fmt.Fprintf(w, "%-4d  %-30s  %d\n", i+1, truncate(wc.Word, 30), wc.Count)
	}
	fmt.Fprintf(w, "\n%d words\n", len(ranked))
}

// FormatJSON writes ranked as indented JSON to w.
func FormatJSON(ranked []types.WordCount, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ranked)
}

// FormatYAML writes ranked as a YAML sequence to w.
func FormatYAML(ranked []types.WordCount, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(ranked); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// Top returns at most n leading entries of ranked. n <= 0 returns none.
func Top(ranked []types.WordCount, n int) []types.WordCount {
	if n <= 0 {
		return []types.WordCount{}
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
