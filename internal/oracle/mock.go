package oracle

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a scripted Starter and Submitter for tests.
// Replies are keyed by Request.Category; Errs takes precedence over Replies.
type Mock struct {
	Replies  map[string]string
	Errs     map[string]error
	StartErr error

	mu       sync.Mutex
	started  []string
	requests []Request
}

// NewMock creates a mock answering each category with the given reply text.
func NewMock(replies map[string]string) *Mock {
	return &Mock{Replies: replies, Errs: map[string]error{}}
}

// Start records the document path and returns the mock itself.
func (m *Mock) Start(_ context.Context, pdfPath string) (Submitter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, pdfPath)
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	return m, nil
}

// Submit returns the scripted reply for the request's category.
func (m *Mock) Submit(ctx context.Context, req Request) (*Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if err, ok := m.Errs[req.Category]; ok && err != nil {
		return nil, err
	}
	text, ok := m.Replies[req.Category]
	if !ok {
		return nil, fmt.Errorf("mock: no reply scripted for %q", req.Category)
	}
	return &Reply{
		Text:             text,
		Status:           "completed",
		RunID:            "run_" + req.Category,
		Model:            "mock",
		PromptTokens:     int64(len(req.Prompt)),
		CompletionTokens: int64(len(text)),
	}, nil
}

// Requests returns every request submitted so far, in order.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Started returns the document paths sessions were opened for.
func (m *Mock) Started() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.started...)
}

var (
	_ Starter   = (*Mock)(nil)
	_ Submitter = (*Mock)(nil)
)
