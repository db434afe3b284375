// Package oracle reaches the hosted assistant that reads scoresheet tables.
//
// The assistant is a black box: callers open one session per document and
// submit free-text instructions through it, getting the assistant's raw reply
// text back. Parsing the reply is not this package's concern.
package oracle

import (
	"context"
	"time"
)

// Request is one instruction sent into a session.
type Request struct {
	// Category identifies the request in logs and call history.
	Category string
	Prompt   string
}

// Reply is the assistant's answer to one Request.
type Reply struct {
	Text             string        `json:"text"`
	Status           string        `json:"status"`
	RunID            string        `json:"run_id,omitempty"`
	Model            string        `json:"model,omitempty"`
	PromptTokens     int64         `json:"prompt_tokens"`
	CompletionTokens int64         `json:"completion_tokens"`
	Elapsed          time.Duration `json:"elapsed"`
}

// Submitter sends requests into an open session. Calls block until the
// assistant finishes or fails.
type Submitter interface {
	Submit(ctx context.Context, req Request) (*Reply, error)
}

// Starter opens a session for a single document.
type Starter interface {
	Start(ctx context.Context, pdfPath string) (Submitter, error)
}

// Handles identifies the remote resources backing a session.
type Handles struct {
	AssistantID string `json:"assistant_id"`
	ThreadID    string `json:"thread_id"`
	FileID      string `json:"file_id"`
}
