package pipeline

import (
	"errors"
	"fmt"

	"github.com/jackzampolin/scoresheet/internal/pdfscan"
	"github.com/jackzampolin/scoresheet/internal/stats"
)

// Sentinel errors for the pipeline package.
var (
	// ErrAlreadyRun is returned when Run is called on a used Extractor.
	ErrAlreadyRun = errors.New("extractor already run")

	// ErrNoCategories is returned when there is nothing to fetch.
	ErrNoCategories = errors.New("no categories to fetch")
)

// CategoryError wraps a fatal error with the category being fetched.
type CategoryError struct {
	Category string
	Err      error
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("category %s: %v", e.Category, e.Err)
}

func (e *CategoryError) Unwrap() error {
	return e.Err
}

// CategoryResult is the parsed outcome of one category request.
type CategoryResult struct {
	Key              string              `json:"key" yaml:"key"`
	Table            string              `json:"table" yaml:"table"`
	CallID           string              `json:"call_id,omitempty" yaml:"call_id,omitempty"`
	Raw              string              `json:"raw,omitempty" yaml:"raw,omitempty"`
	Players          []stats.PlayerStats `json:"players" yaml:"players"`
	RowErrors        []*stats.RowError   `json:"row_errors,omitempty" yaml:"row_errors,omitempty"`
	PromptTokens     int64               `json:"prompt_tokens" yaml:"prompt_tokens"`
	CompletionTokens int64               `json:"completion_tokens" yaml:"completion_tokens"`
	ElapsedMs        int64               `json:"elapsed_ms" yaml:"elapsed_ms"`
}

// Result is the outcome of a complete extraction.
type Result struct {
	RunID      string              `json:"run_id" yaml:"run_id"`
	Document   string              `json:"document" yaml:"document"`
	Preflight  *pdfscan.Report     `json:"preflight,omitempty" yaml:"preflight,omitempty"`
	Categories []CategoryResult    `json:"categories" yaml:"categories"`
	Players    []stats.PlayerStats `json:"players" yaml:"players"`
	Conflicts  []stats.Conflict    `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
}

// WithoutRaw returns a shallow copy with raw replies omitted.
func (r *Result) WithoutRaw() *Result {
	out := *r
	out.Categories = make([]CategoryResult, len(r.Categories))
	for i, c := range r.Categories {
		c.Raw = ""
		out.Categories[i] = c
	}
	return &out
}

// Tokens returns total prompt and completion tokens across categories.
func (r *Result) Tokens() (prompt, completion int64) {
	for _, c := range r.Categories {
		prompt += c.PromptTokens
		completion += c.CompletionTokens
	}
	return prompt, completion
}

// combine merges category outputs in category order.
func combine(categories []CategoryResult) stats.CombineResult {
	lists := make([][]stats.PlayerStats, len(categories))
	for i, c := range categories {
		lists[i] = c.Players
	}
	return stats.Combine(lists...)
}
