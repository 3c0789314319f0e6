// Package cli provides the interactive prompt and output formatting for vaxguide.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/vaxguide/internal/models"
	"github.com/hyperjump/vaxguide/pkg/utils"
)

// OutputFormat is the format for answer output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json"; anything else is an error.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("invalid output format %q (use text or json)", s)
	}
}

// WriteAnswer writes answer to w in the given format. Text output can include
// the supporting context, truncated.
func WriteAnswer(w io.Writer, answer *models.Answer, format OutputFormat, showContext bool) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}
	fmt.Fprintf(w, "\nAnswer: %s\n", answer.Text)
	if showContext && len(answer.Context) > 0 {
		fmt.Fprintln(w, "\nContext:")
		for i, c := range answer.Context {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, utils.Truncate(strings.Join(strings.Fields(c), " "), 200))
		}
	}
	return nil
}

// WriteBuildStats writes index build statistics.
func WriteBuildStats(w io.Writer, stats *models.BuildStats, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	fmt.Fprintf(w, "Indexed %s\n", stats.Source)
	fmt.Fprintf(w, "  characters:  %d\n", stats.DocumentChars)
	fmt.Fprintf(w, "  chunks:      %d\n", stats.Chunks)
	fmt.Fprintf(w, "  dimensions:  %d\n", stats.Dimensions)
	fmt.Fprintf(w, "  embedder:    %s\n", stats.EmbedderName)
	fmt.Fprintf(w, "  memory:      %s\n", humanBytes(stats.EmbeddingBytes))
	fmt.Fprintf(w, "  build time:  %dms\n", stats.DurationMs)
	return nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
