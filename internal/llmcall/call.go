// Package llmcall records every oracle call for traceability. Each call keeps
// its prompt and raw reply so a run can be re-parsed later without asking
// the assistant again.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/scoresheet/internal/oracle"
)

// Call represents a recorded oracle call.
type Call struct {
	// Unique identifier
	ID string `json:"id" yaml:"id"`

	// RunID groups the calls made for one extraction.
	RunID string `json:"run_id" yaml:"run_id"`

	// Timing
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	LatencyMs int       `json:"latency_ms" yaml:"latency_ms"`

	// Context references
	Document string `json:"document" yaml:"document"`
	Category string `json:"category" yaml:"category"`

	Prompt   string `json:"prompt" yaml:"prompt"`
	Response string `json:"response" yaml:"response"`

	// Remote run info
	Model        string `json:"model,omitempty" yaml:"model,omitempty"`
	OracleRunID  string `json:"oracle_run_id,omitempty" yaml:"oracle_run_id,omitempty"`
	Status       string `json:"status,omitempty" yaml:"status,omitempty"`
	InputTokens  int64  `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int64  `json:"output_tokens" yaml:"output_tokens"`

	// Status
	Success bool   `json:"success" yaml:"success"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RecordOptions provides context for recording an oracle call.
type RecordOptions struct {
	RunID    string
	Document string
	Category string
	Prompt   string
	// Latency is used when the reply is nil or carries no elapsed time.
	Latency time.Duration
}

// FromReply creates a Call from an oracle reply and the error returned with
// it. Either may be nil.
func FromReply(reply *oracle.Reply, callErr error, opts RecordOptions) *Call {
	call := &Call{
		ID:        uuid.New().String(),
		RunID:     opts.RunID,
		Timestamp: time.Now().UTC(),
		LatencyMs: int(opts.Latency.Milliseconds()),
		Document:  opts.Document,
		Category:  opts.Category,
		Prompt:    opts.Prompt,
		Success:   callErr == nil && reply != nil,
	}

	if reply != nil {
		call.Response = reply.Text
		call.Model = reply.Model
		call.OracleRunID = reply.RunID
		call.Status = reply.Status
		call.InputTokens = reply.PromptTokens
		call.OutputTokens = reply.CompletionTokens
		if reply.Elapsed > 0 {
			call.LatencyMs = int(reply.Elapsed.Milliseconds())
		}
	}
	if callErr != nil {
		call.Error = callErr.Error()
	}

	return call
}
