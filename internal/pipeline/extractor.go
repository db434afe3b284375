// Package pipeline runs one extraction: preflight the document, open an
// oracle session, fetch each category in turn and merge the players.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/scoresheet/internal/llmcall"
	"github.com/jackzampolin/scoresheet/internal/oracle"
	"github.com/jackzampolin/scoresheet/internal/pdfscan"
	"github.com/jackzampolin/scoresheet/internal/stats"
)

// Preflighter checks a document before it is uploaded.
type Preflighter interface {
	Scan(path string, categories []stats.Category) (*pdfscan.Report, error)
}

// Config configures an Extractor.
type Config struct {
	// Categories are fetched in order. Empty means the built-in table.
	Categories []stats.Category

	// DropBadNumbers drops rows whose player number does not parse instead
	// of keeping them with stats.NoNumber.
	DropBadNumbers bool

	// Preflight is optional; nil skips the check.
	Preflight Preflighter

	// Recorder is optional; nil disables call history.
	Recorder *llmcall.Recorder

	Logger *slog.Logger
}

// Extractor drives a single extraction run. It is not reusable: create one
// per document.
type Extractor struct {
	starter    oracle.Starter
	categories []stats.Category
	dropBad    bool
	preflight  Preflighter
	recorder   *llmcall.Recorder
	logger     *slog.Logger

	mu    sync.RWMutex
	state State
	runID string
}

// New creates an Extractor that opens sessions through starter.
func New(starter oracle.Starter, cfg Config) *Extractor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cats := cfg.Categories
	if len(cats) == 0 {
		cats = stats.Categories()
	}
	return &Extractor{
		starter:    starter,
		categories: cats,
		dropBad:    cfg.DropBadNumbers,
		preflight:  cfg.Preflight,
		recorder:   cfg.Recorder,
		logger:     cfg.Logger,
		state:      StateUninitialized,
		runID:      uuid.New().String(),
	}
}

// State returns the current lifecycle state.
func (e *Extractor) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// RunID identifies this run in call history.
func (e *Extractor) RunID() string {
	return e.runID
}

func (e *Extractor) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}

// Run extracts and merges every configured category from the document.
// Any fatal error aborts the run and no partial result is returned.
func (e *Extractor) Run(ctx context.Context, pdfPath string) (*Result, error) {
	e.mu.Lock()
	if e.state != StateUninitialized {
		e.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	e.mu.Unlock()

	result, err := e.run(ctx, pdfPath)
	if err != nil {
		e.setState(StateFailed)
		e.logger.Error("extraction failed", "run_id", e.runID, "document", pdfPath, "error", err)
		return nil, err
	}
	e.setState(StateCombined)
	return result, nil
}

func (e *Extractor) run(ctx context.Context, pdfPath string) (*Result, error) {
	log := e.logger.With("run_id", e.runID)
	result := &Result{RunID: e.runID, Document: pdfPath}

	if len(e.categories) == 0 {
		return nil, ErrNoCategories
	}

	log.Info("extraction started", "document", pdfPath, "categories", len(e.categories))

	if e.preflight != nil {
		report, err := e.preflight.Scan(pdfPath, e.categories)
		if err != nil {
			return nil, fmt.Errorf("preflight: %w", err)
		}
		result.Preflight = report
		if len(report.Missing) > 0 {
			log.Warn("table titles not found in document text",
				"missing", report.Missing,
				"pages", report.Pages)
		}
	}

	session, err := e.starter.Start(ctx, pdfPath)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	e.setState(StateSessionOpen)

	e.setState(StateFetching)
	parseOpts := stats.ParseOptions{DropBadNumbers: e.dropBad, Logger: log}
	for _, cat := range e.categories {
		if err := ctx.Err(); err != nil {
			return nil, &CategoryError{Category: cat.Key, Err: err}
		}

		cr, err := e.fetch(ctx, session, pdfPath, cat, parseOpts)
		if err != nil {
			return nil, &CategoryError{Category: cat.Key, Err: err}
		}
		result.Categories = append(result.Categories, *cr)
	}

	merged := combine(result.Categories)
	result.Players = merged.Players
	result.Conflicts = merged.Conflicts
	for _, c := range merged.Conflicts {
		log.Warn("conflicting values while merging", "player", c.Player, "field", c.Field,
			"previous", c.Previous, "value", c.Value)
	}

	prompt, completion := result.Tokens()
	log.Info("extraction complete",
		"players", len(result.Players),
		"conflicts", len(result.Conflicts),
		"prompt_tokens", prompt,
		"completion_tokens", completion)
	return result, nil
}

// fetch runs one category round trip and parses the reply.
func (e *Extractor) fetch(ctx context.Context, session oracle.Submitter, pdfPath string, cat stats.Category, parseOpts stats.ParseOptions) (*CategoryResult, error) {
	prompt := cat.Prompt()
	start := time.Now()

	reply, err := session.Submit(ctx, oracle.Request{Category: cat.Key, Prompt: prompt})
	elapsed := time.Since(start)

	call := e.recorder.Record(ctx, reply, err, llmcall.RecordOptions{
		RunID:    e.runID,
		Document: pdfPath,
		Category: cat.Key,
		Prompt:   prompt,
		Latency:  elapsed,
	})
	if err != nil {
		return nil, err
	}

	parsed := stats.ParseResponseWith(reply.Text, cat.Columns, parseOpts)
	e.logger.Info("category fetched",
		"run_id", e.runID,
		"category", cat.Key,
		"players", len(parsed.Players),
		"row_errors", len(parsed.Errors),
		"elapsed_ms", elapsed.Milliseconds())

	return &CategoryResult{
		Key:              cat.Key,
		Table:            cat.Table,
		CallID:           call.ID,
		Raw:              reply.Text,
		Players:          parsed.Players,
		RowErrors:        parsed.Errors,
		PromptTokens:     reply.PromptTokens,
		CompletionTokens: reply.CompletionTokens,
		ElapsedMs:        elapsed.Milliseconds(),
	}, nil
}
