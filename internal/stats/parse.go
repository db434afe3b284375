package stats

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// RowErrorKind classifies a reply line the parser could not turn into a record.
type RowErrorKind string

const (
	// RowColumnCount means the line did not carry exactly one value per column.
	RowColumnCount RowErrorKind = "column_count"
	// RowBadNumber means the player number was not a base-10 integer.
	RowBadNumber RowErrorKind = "bad_number"
)

// RowError describes one malformed line of an oracle reply.
type RowError struct {
	Line   int          `json:"line" yaml:"line"` // 1-indexed
	Kind   RowErrorKind `json:"kind" yaml:"kind"`
	Raw    string       `json:"raw" yaml:"raw"`
	Detail string       `json:"detail" yaml:"detail"`
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Detail)
}

// ParseOptions controls how malformed rows are treated.
type ParseOptions struct {
	// DropBadNumbers drops rows whose player number does not parse. By
	// default they are kept with Number set to NoNumber. Either way the row
	// is reported as a RowError.
	DropBadNumbers bool

	Logger *slog.Logger
}

// ParseResult is the outcome of parsing one reply.
type ParseResult struct {
	Players []PlayerStats `json:"players" yaml:"players"`
	Errors  []*RowError   `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// ParseResponse parses a reply with default options.
func ParseResponse(raw string, columns []Column) ParseResult {
	return ParseResponseWith(raw, columns, ParseOptions{})
}

// ParseResponseWith turns the oracle's tab-delimited reply into player records.
//
// Each line must be Name, Team, PlayerNumber followed by exactly len(columns)
// values. Lines with any other value count are dropped and reported; they
// never abort parsing. Quotes are stripped from Name and Team only, stat
// values are stored verbatim.
func ParseResponseWith(raw string, columns []Column, opts ParseOptions) ParseResult {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var result ParseResult
	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		lineNo := i + 1

		fields := strings.Split(line, "\t")
		values := []string{}
		if len(fields) > 3 {
			values = fields[3:]
		}
		if len(fields) < 3 {
			rowErr := &RowError{
				Line:   lineNo,
				Kind:   RowColumnCount,
				Raw:    line,
				Detail: fmt.Sprintf("expected at least 3 fields, got %d", len(fields)),
			}
			logger.Warn("missing name, team or number",
				"line", lineNo,
				"fields", len(fields),
				"raw", line)
			result.Errors = append(result.Errors, rowErr)
			continue
		}
		if len(values) != len(columns) {
			rowErr := &RowError{
				Line:   lineNo,
				Kind:   RowColumnCount,
				Raw:    line,
				Detail: fmt.Sprintf("expected %d values, got %d", len(columns), len(values)),
			}
			logger.Warn("unexpected number of columns",
				"line", lineNo,
				"expected", len(columns),
				"got", len(values),
				"raw", line)
			result.Errors = append(result.Errors, rowErr)
			continue
		}

		number, err := parseNumber(fields[2])
		if err != nil {
			rowErr := &RowError{
				Line:   lineNo,
				Kind:   RowBadNumber,
				Raw:    line,
				Detail: err.Error(),
			}
			logger.Warn("unparsable player number", "line", lineNo, "value", fields[2], "dropped", opts.DropBadNumbers)
			result.Errors = append(result.Errors, rowErr)
			if opts.DropBadNumbers {
				continue
			}
			number = NoNumber
		}

		row := make(map[string]string, len(columns))
		for j, col := range columns {
			row[col.Name] = values[j]
		}

		result.Players = append(result.Players, PlayerStats{
			Name:   stripQuotes(fields[0]),
			Number: number,
			Team:   stripQuotes(fields[1]),
			Stats:  row,
		})
	}
	return result
}

func parseNumber(token string) (int, error) {
	s := strings.TrimSpace(stripQuotes(token))
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("player number %q is not an integer", token)
	}
	return n, nil
}

func stripQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, "")
}
