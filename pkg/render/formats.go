// Package render writes command results as text tables, JSON or YAML.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

const (
	// FormatText is the human-readable table output.
	FormatText = "text"

	// FormatTableAlias is accepted as a synonym for FormatText.
	FormatTableAlias = "table"

	// FormatJSON is indented JSON output.
	FormatJSON = "json"

	// FormatYAML is YAML output.
	FormatYAML = "yaml"

	jsonIndent = "  "
	yamlIndent = 2
)

// ErrUnsupportedFormat indicates the requested output format is not supported.
var ErrUnsupportedFormat = errors.New("unsupported format")

// NormalizeFormat canonicalizes a user-provided output format string.
func NormalizeFormat(format string) string {
	normalized := strings.ToLower(strings.TrimSpace(format))

	switch normalized {
	case FormatTableAlias, "":
		return FormatText
	case "yml":
		return FormatYAML
	default:
		return normalized
	}
}

// ValidateFormat returns the canonical format or ErrUnsupportedFormat.
func ValidateFormat(format string) (string, error) {
	normalized := NormalizeFormat(format)

	switch normalized {
	case FormatText, FormatJSON, FormatYAML:
		return normalized, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// WriteJSON encodes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", jsonIndent)

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

// WriteYAML encodes v as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(yamlIndent)

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("flush yaml: %w", err)
	}

	return nil
}

// NewTable returns a borderless go-pretty table writer targeting w. Header
// and footer text is printed as given, since rule names and totals are
// lower-case identifiers.
func NewTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Format.Header = text.FormatDefault
	tbl.Style().Format.Footer = text.FormatDefault

	return tbl
}
