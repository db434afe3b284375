// Package pdfscan checks a scoresheet PDF before it is sent to the oracle:
// the file must be a readable PDF, and each requested table title should
// appear somewhere in its text.
package pdfscan

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jackzampolin/scoresheet/internal/stats"
)

// TableHit lists the pages mentioning one category's table title.
type TableHit struct {
	Category string `json:"category" yaml:"category"`
	Table    string `json:"table" yaml:"table"`
	Pages    []int  `json:"pages" yaml:"pages"` // 1-indexed
}

// Report is the outcome of scanning one document.
type Report struct {
	Path    string     `json:"path" yaml:"path"`
	Pages   int        `json:"pages" yaml:"pages"`
	Tables  []TableHit `json:"tables" yaml:"tables"`
	Missing []string   `json:"missing,omitempty" yaml:"missing,omitempty"` // category keys
	// TextErr is set when page text could not be extracted. Validation
	// still succeeded, so the document may well be usable by the oracle.
	TextErr string `json:"text_error,omitempty" yaml:"text_error,omitempty"`
}

// Scanner validates documents and searches their text.
type Scanner struct {
	conf   *model.Configuration
	logger *slog.Logger
}

// New creates a Scanner.
func New(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Scanner{conf: conf, logger: logger}
}

// PageCount validates the document and returns its number of pages.
func (s *Scanner) PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	if err := api.Validate(f, s.conf); err != nil {
		return 0, fmt.Errorf("invalid PDF %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := api.PageCount(f, s.conf)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count for %s: %w", path, err)
	}
	return n, nil
}

// PageTexts returns the plain text of every page, in page order.
func (s *Scanner) PageTexts(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening PDF: %w", err)
	}
	defer f.Close()

	texts := make([]string, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("error extracting text from page %d: %w", i, err)
		}
		texts[i-1] = text
	}
	return texts, nil
}

// Scan validates the document and locates each category's table title.
// Titles that cannot be found are listed in Report.Missing; that is a hint,
// not an error, since the oracle reads the rendered tables rather than the
// text layer.
func (s *Scanner) Scan(path string, categories []stats.Category) (*Report, error) {
	pages, err := s.PageCount(path)
	if err != nil {
		return nil, err
	}
	report := &Report{Path: path, Pages: pages}

	texts, err := s.PageTexts(path)
	if err != nil {
		s.logger.Warn("could not extract PDF text", "path", path, "error", err)
		report.TextErr = err.Error()
		return report, nil
	}

	normalized := make([]string, len(texts))
	for i, t := range texts {
		normalized[i] = normalize(t)
	}

	for _, c := range categories {
		hit := TableHit{Category: c.Key, Table: c.Table, Pages: []int{}}
		title := normalize(c.Table)
		for i, text := range normalized {
			if title != "" && strings.Contains(text, title) {
				hit.Pages = append(hit.Pages, i+1)
			}
		}
		if len(hit.Pages) == 0 {
			report.Missing = append(report.Missing, c.Key)
		}
		report.Tables = append(report.Tables, hit)
	}

	s.logger.Debug("scanned PDF", "path", path, "pages", pages, "missing", report.Missing)
	return report, nil
}

var reSpace = regexp.MustCompile(`\s+`)

func normalize(s string) string {
	return strings.TrimSpace(reSpace.ReplaceAllString(strings.ToUpper(s), " "))
}
