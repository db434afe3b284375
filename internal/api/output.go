// Package api renders command results for the CLI.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the output format for CLI commands.
type OutputFormat string

const (
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatJSON OutputFormat = "json"
)

// DefaultOutput is the default output format.
var DefaultOutput OutputFormat = OutputFormatYAML

var (
	mu sync.RWMutex
	// globalOutputFormat is set by the root command's --output flag.
	globalOutputFormat = DefaultOutput
	stdout             io.Writer = os.Stdout
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(format string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(format))) {
	case OutputFormatJSON:
		return OutputFormatJSON, nil
	case OutputFormatYAML, "":
		return OutputFormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format: %s (use yaml or json)", format)
	}
}

// SetOutputFormat sets the global output format.
func SetOutputFormat(format string) error {
	f, err := ParseOutputFormat(format)
	if err != nil {
		return err
	}
	mu.Lock()
	globalOutputFormat = f
	mu.Unlock()
	return nil
}

// GetOutputFormat returns the current global output format.
func GetOutputFormat() OutputFormat {
	mu.RLock()
	defer mu.RUnlock()
	return globalOutputFormat
}

// SetWriter redirects Output, returning the previous writer.
func SetWriter(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := stdout
	stdout = w
	return prev
}

// Output writes data to stdout in the configured format.
func Output(data any) error {
	mu.RLock()
	w, format := stdout, globalOutputFormat
	mu.RUnlock()
	return OutputTo(w, format, data)
}

// OutputTo writes data to the given writer in the specified format.
func OutputTo(w io.Writer, format OutputFormat, data any) error {
	switch format {
	case OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
