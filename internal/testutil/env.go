// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"
)

// TestingT is the subset of testing.T the helpers need.
type TestingT interface {
	Helper()
	TempDir() string
	Fatalf(format string, args ...any)
}

// Logger returns a logger that discards output unless SCORESHEET_TEST_LOG is set.
func Logger() *slog.Logger {
	if os.Getenv("SCORESHEET_TEST_LOG") != "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RequireEnv skips the test unless the named environment variable is set.
func RequireEnv(t *testing.T, key string) string {
	t.Helper()
	v := os.Getenv(key)
	if v == "" {
		t.Skipf("%s not set", key)
	}
	return v
}
