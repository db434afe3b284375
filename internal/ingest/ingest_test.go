package ingest

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/jackzampolin/scoresheet/internal/testutil"
)

func TestSortPDFsByNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "already sorted",
			input:    []string{"week-1.pdf", "week-2.pdf", "week-3.pdf"},
			expected: []string{"week-1.pdf", "week-2.pdf", "week-3.pdf"},
		},
		{
			name:     "mixed with double digits",
			input:    []string{"week-10.pdf", "week-2.pdf", "week-1.pdf"},
			expected: []string{"week-1.pdf", "week-2.pdf", "week-10.pdf"},
		},
		{
			name:     "numbered and unnumbered",
			input:    []string{"week-2.pdf", "final.pdf", "week-1.pdf"},
			expected: []string{"final.pdf", "week-1.pdf", "week-2.pdf"},
		},
		{
			name:     "upper case extension",
			input:    []string{"week-2.PDF", "week-1.PDF"},
			expected: []string{"week-1.PDF", "week-2.PDF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sortPDFsByNumber(tt.input)
			if !slices.Equal(result, tt.expected) {
				t.Errorf("got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestDocumentName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/path/to/test-reduced.pdf", "test-reduced"},
		{"/path/to/week-10.PDF", "week-10"},
		{"simple.pdf", "simple"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DocumentName(tt.input); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "season")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{
		filepath.Join(sub, "week-2.pdf"),
		filepath.Join(sub, "week-1.pdf"),
		filepath.Join(sub, "notes.txt"),
	} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	single := filepath.Join(dir, "other.pdf")
	if err := os.WriteFile(single, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := Discover([]string{sub, single})
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	want := []string{single, filepath.Join(sub, "week-1.pdf"), filepath.Join(sub, "week-2.pdf")}
	if !slices.Equal(paths, want) {
		t.Errorf("got %v, want %v", paths, want)
	}

	t.Run("missing", func(t *testing.T) {
		if _, err := Discover([]string{filepath.Join(dir, "nope.pdf")}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("empty dir", func(t *testing.T) {
		if _, err := Discover([]string{t.TempDir()}); err == nil {
			t.Error("expected error for directory without PDFs")
		}
	})
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p, ok := <-ch:
		if !ok {
			t.Fatal("event channel closed")
		}
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
	return ""
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "week-1.pdf")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := Watch(ctx, WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    50 * time.Millisecond,
		Logger:      testutil.Logger(),
	})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if got := receive(t, events); got != existing {
		t.Errorf("initial scan: got %q, want %q", got, existing)
	}

	// Ignored: not a PDF.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	created := filepath.Join(dir, "week-2.pdf")
	if err := os.WriteFile(created, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := receive(t, events); got != created {
		t.Errorf("create: got %q, want %q", got, created)
	}

	cancel()
	for range events {
	}
}

func TestWatch_NoRoots(t *testing.T) {
	if _, _, err := Watch(context.Background(), WatchConfig{}); err == nil {
		t.Error("expected error")
	}
}
