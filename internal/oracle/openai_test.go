package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeAssistants emulates the slice of the OpenAI REST API the client uses.
type fakeAssistants struct {
	t *testing.T

	mu           sync.Mutex
	runStatus    string
	runStatuses  []string // consumed by create and successive reads, then runStatus
	runGets      int
	fileStatuses []string // returned by successive GET /files/{id}; last one repeats
	uploadStatus string
	messages     []string
	messageBody  map[string]any
	assistant    map[string]any
	paths        []string
}

func newFakeAssistants(t *testing.T) *fakeAssistants {
	return &fakeAssistants{
		t:            t,
		runStatus:    "completed",
		uploadStatus: "processed",
		messages:     []string{"\"SMITH John\"\t\"EDM\"\t12\t3"},
	}
}

func (f *fakeAssistants) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/assistants":
		f.assistant = decodeBody(f.t, r)
		writeJSON(w, map[string]any{
			"id": "asst_1", "object": "assistant", "created_at": 1,
			"model": "gpt-4o", "tools": []any{map[string]any{"type": "file_search"}},
		})
	case r.Method == http.MethodPost && r.URL.Path == "/threads":
		writeJSON(w, map[string]any{"id": "thread_1", "object": "thread", "created_at": 1})
	case r.Method == http.MethodPost && r.URL.Path == "/files":
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			f.t.Errorf("expected multipart upload, got %q", r.Header.Get("Content-Type"))
		}
		writeJSON(w, fileObject(f.uploadStatus))
	case r.Method == http.MethodGet && r.URL.Path == "/files/file_1":
		status := "processed"
		if len(f.fileStatuses) > 0 {
			status = f.fileStatuses[0]
			if len(f.fileStatuses) > 1 {
				f.fileStatuses = f.fileStatuses[1:]
			}
		}
		writeJSON(w, fileObject(status))
	case r.Method == http.MethodPost && r.URL.Path == "/threads/thread_1/messages":
		f.messageBody = decodeBody(f.t, r)
		writeJSON(w, map[string]any{
			"id": "msg_user", "object": "thread.message", "created_at": 1,
			"thread_id": "thread_1", "role": "user", "status": "completed", "content": []any{},
		})
	case r.URL.Path == "/threads/thread_1/runs" || r.URL.Path == "/threads/thread_1/runs/run_1":
		status := f.runStatus
		if r.Method == http.MethodGet {
			f.runGets++
		}
		if len(f.runStatuses) > 0 {
			status = f.runStatuses[0]
			f.runStatuses = f.runStatuses[1:]
		}
		run := map[string]any{
			"id": "run_1", "object": "thread.run", "created_at": 1,
			"thread_id": "thread_1", "assistant_id": "asst_1", "model": "gpt-4o",
			"status": status,
			"usage":  map[string]any{"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150},
		}
		if status == "failed" {
			run["last_error"] = map[string]any{"code": "server_error", "message": "boom"}
		}
		writeJSON(w, run)
	case r.Method == http.MethodGet && r.URL.Path == "/threads/thread_1/messages":
		data := make([]any, 0, len(f.messages))
		for i, text := range f.messages {
			data = append(data, map[string]any{
				"id": "msg_" + string(rune('a'+i)), "object": "thread.message", "created_at": 2,
				"thread_id": "thread_1", "role": "assistant", "status": "completed",
				"content": []any{map[string]any{
					"type": "text",
					"text": map[string]any{"value": text, "annotations": []any{}},
				}},
			})
		}
		writeJSON(w, map[string]any{"object": "list", "data": data, "has_more": false})
	default:
		f.t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"not found"}}`))
	}
}

func fileObject(status string) map[string]any {
	return map[string]any{
		"id": "file_1", "object": "file", "bytes": 4, "created_at": 1,
		"filename": "game.pdf", "purpose": "assistants", "status": status,
	}
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		t.Errorf("read body: %v", err)
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Errorf("unmarshal body: %v", err)
	}
	return m
}

func writeJSON(w http.ResponseWriter, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

func testClient(t *testing.T, fake *fakeAssistants) *Client {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	return NewClient(Config{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		PollInterval:      10 * time.Millisecond,
		MaxRetries:        0,
		FileReadyAttempts: 5,
		FileReadyDelay:    time.Millisecond,
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\n"), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func TestClientStartSession(t *testing.T) {
	fake := newFakeAssistants(t)
	client := testClient(t, fake)

	session, err := client.StartSession(context.Background(), writePDF(t))
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}
	if session.AssistantID != "asst_1" || session.ThreadID != "thread_1" || session.FileID != "file_1" {
		t.Fatalf("unexpected handles: %+v", session.Handles)
	}
	if got, _ := fake.assistant["name"].(string); got != "PDF Analyzer" {
		t.Errorf("expected assistant name PDF Analyzer, got %q", got)
	}
	if got, _ := fake.assistant["model"].(string); got != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %q", got)
	}
	tools, _ := fake.assistant["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("expected one tool, got %v", fake.assistant["tools"])
	}
	if tool, _ := tools[0].(map[string]any); tool["type"] != "file_search" {
		t.Errorf("expected file_search tool, got %v", tools[0])
	}
}

func TestClientStartSessionWaitsForFile(t *testing.T) {
	fake := newFakeAssistants(t)
	fake.uploadStatus = "uploaded"
	fake.fileStatuses = []string{"uploaded", "uploaded", "processed"}
	client := testClient(t, fake)

	if _, err := client.StartSession(context.Background(), writePDF(t)); err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	gets := 0
	for _, p := range fake.paths {
		if p == "GET /files/file_1" {
			gets++
		}
	}
	if gets != 3 {
		t.Errorf("expected 3 file polls, got %d", gets)
	}
}

func TestClientStartSessionFileError(t *testing.T) {
	fake := newFakeAssistants(t)
	fake.uploadStatus = "uploaded"
	fake.fileStatuses = []string{"error"}
	client := testClient(t, fake)

	_, err := client.StartSession(context.Background(), writePDF(t))
	var fileErr *FileError
	if !errors.As(err, &fileErr) {
		t.Fatalf("expected FileError, got %T: %v", err, err)
	}
	if fileErr.Status != "error" {
		t.Errorf("expected status error, got %q", fileErr.Status)
	}
}

func TestClientStartSessionMissingFile(t *testing.T) {
	client := testClient(t, newFakeAssistants(t))

	if _, err := client.StartSession(context.Background(), filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("expected error for missing document")
	}
}

func TestSessionSubmit(t *testing.T) {
	fake := newFakeAssistants(t)
	client := testClient(t, fake)

	session, err := client.StartSession(context.Background(), writePDF(t))
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	reply, err := session.Submit(context.Background(), Request{Category: "rushing", Prompt: "summarize RUSHING"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if reply.Text != "\"SMITH John\"\t\"EDM\"\t12\t3" {
		t.Errorf("unexpected reply text: %q", reply.Text)
	}
	if reply.Status != "completed" || reply.RunID != "run_1" {
		t.Errorf("unexpected reply metadata: %+v", reply)
	}
	if reply.PromptTokens != 120 || reply.CompletionTokens != 30 {
		t.Errorf("unexpected usage: %d/%d", reply.PromptTokens, reply.CompletionTokens)
	}

	if got, _ := fake.messageBody["role"].(string); got != "user" {
		t.Errorf("expected role user, got %q", got)
	}
	if got, _ := fake.messageBody["content"].(string); got != "summarize RUSHING" {
		t.Errorf("expected prompt as content, got %v", fake.messageBody["content"])
	}
	attachments, _ := fake.messageBody["attachments"].([]any)
	if len(attachments) != 1 {
		t.Fatalf("expected one attachment, got %v", fake.messageBody["attachments"])
	}
	att, _ := attachments[0].(map[string]any)
	if att["file_id"] != "file_1" {
		t.Errorf("expected file_1 attached, got %v", att["file_id"])
	}
}

func TestSessionSubmitPollsRun(t *testing.T) {
	fake := newFakeAssistants(t)
	fake.runStatuses = []string{"queued", "in_progress", "in_progress"}
	client := testClient(t, fake)

	session, err := client.StartSession(context.Background(), writePDF(t))
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	reply, err := session.Submit(context.Background(), Request{Category: "passing", Prompt: "p"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if reply.Status != "completed" {
		t.Errorf("expected completed, got %q", reply.Status)
	}
	// queued on create, then in_progress twice, then completed
	if fake.runGets != 3 {
		t.Errorf("expected 3 run polls, got %d", fake.runGets)
	}
}

func TestSessionSubmitPollCancelled(t *testing.T) {
	fake := newFakeAssistants(t)
	fake.runStatus = "in_progress"
	client := testClient(t, fake)

	session, err := client.StartSession(context.Background(), writePDF(t))
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = session.Submit(ctx, Request{Category: "passing", Prompt: "p"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestSessionSubmitRunFailed(t *testing.T) {
	fake := newFakeAssistants(t)
	fake.runStatus = "failed"
	client := testClient(t, fake)

	session, err := client.StartSession(context.Background(), writePDF(t))
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	_, err = session.Submit(context.Background(), Request{Category: "passing", Prompt: "p"})
	var runErr *RunFailedError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected RunFailedError, got %T: %v", err, err)
	}
	if runErr.Status != "failed" {
		t.Errorf("expected status failed, got %q", runErr.Status)
	}
	if runErr.Message != "boom" {
		t.Errorf("expected last error message, got %q", runErr.Message)
	}
}

func TestSessionSubmitNoMessages(t *testing.T) {
	fake := newFakeAssistants(t)
	fake.messages = nil
	client := testClient(t, fake)

	session, err := client.StartSession(context.Background(), writePDF(t))
	if err != nil {
		t.Fatalf("StartSession() error = %v", err)
	}

	_, err = session.Submit(context.Background(), Request{Category: "passing", Prompt: "p"})
	if !errors.Is(err, ErrNoMessages) {
		t.Fatalf("expected ErrNoMessages, got %v", err)
	}
}

func TestClientRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit","type":"rate_limit_error","param":"","code":"rate_limit"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		MaxRetries: 0,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	_, err := client.StartSession(context.Background(), "unused.pdf")
	rle, ok := IsRateLimitError(err)
	if !ok {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if rle.RetryAfter != 3*time.Second {
		t.Errorf("expected RetryAfter=3s, got %v", rle.RetryAfter)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter("5"); got != 5*time.Second {
		t.Errorf("expected 5s, got %v", got)
	}
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Errorf("expected 0 for garbage, got %v", got)
	}
}

func TestRunFailedErrorMessage(t *testing.T) {
	err := &RunFailedError{Status: "expired"}
	if err.Error() != "run failed. status: expired" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
