// Package output renders extraction results as text lines or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mvp-joe/treegrep/internal/extract"
)

// Format selects an output encoding.
type Format string

const (
	// Text emits one origin:row:col:name:text line per match.
	Text Format = "text"
	// JSON emits an array of file records with 1-based positions.
	JSON Format = "json"
)

// ParseFormat validates a format name from the command line.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case Text, JSON:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, json)", name)
	}
}

// Write renders files to w in the given format.
func Write(w io.Writer, files []*extract.ExtractedFile, format Format) error {
	switch format {
	case Text:
		for _, f := range files {
			if _, err := io.WriteString(w, f.String()); err != nil {
				return fmt.Errorf("failed to write results: %w", err)
			}
		}
		return nil
	case JSON:
		enc := json.NewEncoder(w)
		if err := enc.Encode(files); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
