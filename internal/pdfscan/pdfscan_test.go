package pdfscan

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/jackzampolin/scoresheet/internal/stats"
	"github.com/jackzampolin/scoresheet/internal/testutil"
)

func TestPageCount(t *testing.T) {
	path := testutil.WritePDF(t, "game.pdf", "page one", "page two", "page three")

	n, err := New(testutil.Logger()).PageCount(path)
	if err != nil {
		t.Fatalf("PageCount failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 pages, got %d", n)
	}
}

func TestPageCount_Invalid(t *testing.T) {
	s := New(testutil.Logger())

	t.Run("missing file", func(t *testing.T) {
		if _, err := s.PageCount(filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("not a pdf", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.pdf")
		if err := os.WriteFile(path, []byte("just some text"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := s.PageCount(path); err == nil {
			t.Error("expected error for non-PDF content")
		}
	})
}

func TestScan(t *testing.T) {
	path := testutil.WritePDF(t, "game.pdf",
		"GAME SUMMARY\nPASSING\nRUSHING",
		"INDIVIDUAL & TEAM DEFENCE\nRECEIVING",
	)

	cats := []stats.Category{
		{Key: "passing", Table: "PASSING"},
		{Key: "receiving", Table: "receiving"},
		{Key: "interceptions", Table: "INTERCEPTIONS"},
	}

	report, err := New(testutil.Logger()).Scan(path, cats)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if report.TextErr != "" {
		t.Fatalf("unexpected text extraction error: %s", report.TextErr)
	}
	if report.Pages != 2 {
		t.Errorf("expected 2 pages, got %d", report.Pages)
	}
	if len(report.Tables) != 3 {
		t.Fatalf("expected 3 table hits, got %d", len(report.Tables))
	}
	if !slices.Equal(report.Tables[0].Pages, []int{1}) {
		t.Errorf("passing pages = %v, want [1]", report.Tables[0].Pages)
	}
	if !slices.Equal(report.Tables[1].Pages, []int{2}) {
		t.Errorf("receiving pages = %v, want [2]", report.Tables[1].Pages)
	}
	if !slices.Equal(report.Missing, []string{"interceptions"}) {
		t.Errorf("missing = %v, want [interceptions]", report.Missing)
	}
}

func TestNormalize(t *testing.T) {
	if got := normalize("  Field   Goals\n& Converts "); got != "FIELD GOALS & CONVERTS" {
		t.Errorf("normalize = %q", got)
	}
}
