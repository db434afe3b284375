package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackzampolin/scoresheet/internal/llmcall"
	"github.com/jackzampolin/scoresheet/internal/stats"
)

// ErrNoSuccessfulCalls is returned when a run has no reply to parse.
var ErrNoSuccessfulCalls = errors.New("run has no successful calls")

// ReparseOptions configures Reparse.
type ReparseOptions struct {
	DropBadNumbers bool
	Logger         *slog.Logger
}

// Reparse rebuilds a Result from recorded calls using the current parser and
// combiner. Failed calls are skipped. Categories are resolved against reg so
// custom categories parse with their configured columns.
func Reparse(calls []llmcall.Call, reg *stats.Registry, opts ReparseOptions) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = stats.NewRegistry()
	}

	result := &Result{}
	for _, c := range calls {
		if result.RunID == "" {
			result.RunID = c.RunID
			result.Document = c.Document
		}
		if !c.Success {
			logger.Debug("skipping failed call", "call_id", c.ID, "category", c.Category)
			continue
		}
		cat, ok := reg.Get(c.Category)
		if !ok {
			return nil, fmt.Errorf("call %s: %w: %q", c.ID, stats.ErrUnknownCategory, c.Category)
		}

		parsed := stats.ParseResponseWith(c.Response, cat.Columns, stats.ParseOptions{
			DropBadNumbers: opts.DropBadNumbers,
			Logger:         logger,
		})
		result.Categories = append(result.Categories, CategoryResult{
			Key:              cat.Key,
			Table:            cat.Table,
			CallID:           c.ID,
			Raw:              c.Response,
			Players:          parsed.Players,
			RowErrors:        parsed.Errors,
			PromptTokens:     c.InputTokens,
			CompletionTokens: c.OutputTokens,
			ElapsedMs:        int64(c.LatencyMs),
		})
	}

	if len(result.Categories) == 0 {
		return nil, ErrNoSuccessfulCalls
	}

	merged := combine(result.Categories)
	result.Players = merged.Players
	result.Conflicts = merged.Conflicts
	return result, nil
}
