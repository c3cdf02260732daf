package tui

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// OutputFormat controls how command results are rendered.
type OutputFormat string

const (
	// FormatText renders human-friendly output (default).
	FormatText OutputFormat = "text"
	// FormatJSON renders JSON output.
	FormatJSON OutputFormat = "json"
	// FormatYAML renders YAML output.
	FormatYAML OutputFormat = "yaml"
)

var outputFormat = FormatText

// SetOutputFormat sets the global output format.
func SetOutputFormat(format string) {
	switch format {
	case "json":
		outputFormat = FormatJSON
	case "yaml":
		outputFormat = FormatYAML
	default:
		outputFormat = FormatText
	}
}

// GetOutputFormat returns the active output format.
func GetOutputFormat() OutputFormat {
	return outputFormat
}

// IsStructured returns true when output should be machine-readable (JSON or YAML).
func IsStructured() bool {
	return outputFormat == FormatJSON || outputFormat == FormatYAML
}

// RenderOutput prints data in the configured output format on Stdout.
// For text format, it prints textOutput as-is.
func RenderOutput(data any, textOutput string) error {
	return FprintOutput(Stdout, data, textOutput)
}

// FprintOutput writes structured or text output to a writer.
func FprintOutput(w io.Writer, data any, textOutput string) error {
	switch outputFormat {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	default:
		_, err := fmt.Fprint(w, textOutput)
		return err
	}
}

// PrintStructured prints data as JSON or YAML on Stdout when a structured
// format is active and reports whether it did.
func PrintStructured(data any) (bool, error) {
	if !IsStructured() {
		return false, nil
	}
	return true, FprintOutput(Stdout, data, "")
}
