package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultModel = "gpt-4o"

	assistantName         = "PDF Analyzer"
	assistantInstructions = "You will be given PDF files containing tables with statistics about a Canadian football game. " +
		"Your job is to reformat the statistics in to CSV as requested."
)

// Config holds configuration for the OpenAI assistant client.
type Config struct {
	APIKey  string
	Project string
	Model   string
	BaseURL string // Optional (tests)

	// PollInterval is how often a run's status is checked while it is in progress.
	PollInterval time.Duration
	// MaxRetries is the SDK transport retry budget for a single API call.
	MaxRetries int
	// RequestTimeout bounds one category round trip. Zero means no bound.
	RequestTimeout time.Duration

	// FileReadyAttempts and FileReadyDelay control how long Start waits for
	// the uploaded document to finish processing.
	FileReadyAttempts int
	FileReadyDelay    time.Duration

	HTTPClient *http.Client // Optional (tests)
	Logger     *slog.Logger
}

// Client opens assistant sessions over the OpenAI Assistants API.
type Client struct {
	client            openai.Client
	model             string
	pollInterval      time.Duration
	requestTimeout    time.Duration
	fileReadyAttempts int
	fileReadyDelay    time.Duration
	logger            *slog.Logger
}

// NewClient creates a new OpenAI assistant client.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.FileReadyAttempts <= 0 {
		cfg.FileReadyAttempts = 30
	}
	if cfg.FileReadyDelay <= 0 {
		cfg.FileReadyDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.Project != "" {
		opts = append(opts, option.WithProject(cfg.Project))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client:            openai.NewClient(opts...),
		model:             cfg.Model,
		pollInterval:      cfg.PollInterval,
		requestTimeout:    cfg.RequestTimeout,
		fileReadyAttempts: cfg.FileReadyAttempts,
		fileReadyDelay:    cfg.FileReadyDelay,
		logger:            cfg.Logger,
	}
}

// Model returns the configured assistant model.
func (c *Client) Model() string {
	return c.model
}

// Start creates the assistant and thread, then uploads the document.
// The returned session reuses all three for every request.
func (c *Client) Start(ctx context.Context, pdfPath string) (Submitter, error) {
	return c.StartSession(ctx, pdfPath)
}

// StartSession is Start with the concrete session type.
func (c *Client) StartSession(ctx context.Context, pdfPath string) (*Session, error) {
	c.logger.Info("creating assistant", "model", c.model)
	assistant, err := c.client.Beta.Assistants.New(ctx, openai.BetaAssistantNewParams{
		Model:        openai.ChatModel(c.model),
		Name:         openai.String(assistantName),
		Instructions: openai.String(assistantInstructions),
		Tools: []openai.AssistantToolUnionParam{
			{OfFileSearch: &openai.FileSearchToolParam{}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create assistant: %w", mapOpenAIError(err))
	}

	c.logger.Info("creating thread")
	thread, err := c.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return nil, fmt.Errorf("create thread: %w", mapOpenAIError(err))
	}

	c.logger.Info("uploading PDF", "path", pdfPath)
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	file, err := c.client.Files.New(ctx, openai.FileNewParams{
		File:    openai.File(f, filepath.Base(pdfPath), "application/pdf"),
		Purpose: openai.FilePurposeAssistants,
	})
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", mapOpenAIError(err))
	}

	if file.Status != openai.FileObjectStatusProcessed {
		if err := c.waitForFile(ctx, file.ID); err != nil {
			return nil, err
		}
	}

	s := &Session{
		client: c,
		Handles: Handles{
			AssistantID: assistant.ID,
			ThreadID:    thread.ID,
			FileID:      file.ID,
		},
	}
	c.logger.Info("session started",
		"assistant_id", s.AssistantID,
		"thread_id", s.ThreadID,
		"file_id", s.FileID)
	return s, nil
}

var errFileNotReady = errors.New("file not processed yet")

// waitForFile polls the uploaded file until the API reports it processed.
func (c *Client) waitForFile(ctx context.Context, fileID string) error {
	err := retry.Do(
		func() error {
			file, err := c.client.Files.Get(ctx, fileID)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("get file: %w", mapOpenAIError(err)))
			}
			switch file.Status {
			case openai.FileObjectStatusProcessed:
				return nil
			case openai.FileObjectStatusError:
				return retry.Unrecoverable(&FileError{
					FileID: fileID,
					Status: string(file.Status),
					Detail: file.StatusDetails,
				})
			default:
				return errFileNotReady
			}
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.fileReadyAttempts)),
		retry.Delay(c.fileReadyDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("waiting for uploaded file", "file_id", fileID, "attempt", n+1)
		}),
	)
	if errors.Is(err, errFileNotReady) {
		return &FileError{FileID: fileID, Status: "timeout", Detail: "not processed after waiting"}
	}
	return err
}

var errRunPending = errors.New("run still in progress")

// runPending reports whether a run has not reached a terminal status yet.
func runPending(status openai.RunStatus) bool {
	switch status {
	case openai.RunStatusQueued, openai.RunStatusInProgress, openai.RunStatusCancelling:
		return true
	}
	return false
}

// pollRun re-reads the run every poll interval until it leaves the pending
// statuses or ctx is done.
func (c *Client) pollRun(ctx context.Context, threadID string, run *openai.Run) (*openai.Run, error) {
	if !runPending(run.Status) {
		return run, nil
	}
	runID := run.ID
	err := retry.Do(
		func() error {
			got, err := c.client.Beta.Threads.Runs.Get(ctx, threadID, runID)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("get run: %w", mapOpenAIError(err)))
			}
			run = got
			if runPending(run.Status) {
				return errRunPending
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(0),
		retry.Delay(c.pollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("waiting for run", "run_id", runID, "status", run.Status, "attempt", n+1)
		}),
	)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("run %s: %w", runID, ctxErr)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// Session is one open conversation about one uploaded document.
// Handles are fixed at creation.
type Session struct {
	Handles
	client *Client
}

// Submit posts the prompt into the thread with the document attached,
// waits for the run to finish, and returns the first reply's text.
func (s *Session) Submit(ctx context.Context, req Request) (*Reply, error) {
	c := s.client
	start := time.Now()

	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	c.logger.Info("analyzing", "category", req.Category)
	_, err := c.client.Beta.Threads.Messages.New(ctx, s.ThreadID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(req.Prompt),
		},
		Attachments: []openai.BetaThreadMessageNewParamsAttachment{{
			FileID: openai.String(s.FileID),
			Tools: []openai.BetaThreadMessageNewParamsAttachmentToolUnion{
				{OfFileSearch: &openai.BetaThreadMessageNewParamsAttachmentToolFileSearch{}},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("create message: %w", mapOpenAIError(err))
	}

	c.logger.Debug("creating run", "category", req.Category)
	run, err := c.client.Beta.Threads.Runs.New(ctx, s.ThreadID, openai.BetaThreadRunNewParams{
		AssistantID: s.AssistantID,
	})
	if err != nil {
		return nil, fmt.Errorf("create run: %w", mapOpenAIError(err))
	}
	run, err = c.pollRun(ctx, s.ThreadID, run)
	if err != nil {
		return nil, err
	}

	reply := &Reply{
		Status:           string(run.Status),
		RunID:            run.ID,
		Model:            run.Model,
		PromptTokens:     run.Usage.PromptTokens,
		CompletionTokens: run.Usage.CompletionTokens,
	}
	c.logger.Debug("run finished",
		"category", req.Category,
		"run_id", run.ID,
		"status", run.Status,
		"prompt_tokens", reply.PromptTokens,
		"completion_tokens", reply.CompletionTokens)

	if run.Status != openai.RunStatusCompleted {
		return nil, &RunFailedError{
			RunID:   run.ID,
			Status:  string(run.Status),
			Code:    string(run.LastError.Code),
			Message: run.LastError.Message,
		}
	}

	page, err := c.client.Beta.Threads.Messages.List(ctx, s.ThreadID, openai.BetaThreadMessageListParams{})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", mapOpenAIError(err))
	}
	if page == nil || len(page.Data) == 0 {
		return nil, ErrNoMessages
	}

	// Messages are newest first, so the first is the assistant's reply.
	reply.Text = firstText(page.Data[0])
	reply.Elapsed = time.Since(start)

	c.logger.Debug("raw response", "category", req.Category, "text", reply.Text)
	return reply, nil
}

func firstText(msg openai.Message) string {
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text.Value
		}
	}
	return ""
}

var (
	_ Starter   = (*Client)(nil)
	_ Submitter = (*Session)(nil)
)
