// Package ingest finds scoresheet PDFs on disk, either from explicit
// arguments or by watching directories for new files.
package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// IsPDF reports whether path has a .pdf extension.
func IsPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Discover expands args into a sorted list of PDF paths. Files are taken as
// given; directories are walked recursively for PDFs.
func Discover(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no PDF paths provided")
	}

	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("PDF not found: %s", arg)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if !d.IsDir() && IsPDF(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no PDF files found")
	}
	return sortPDFsByNumber(paths), nil
}

var reNumberSuffix = regexp.MustCompile(`-(\d+)\.pdf$`)

// sortPDFsByNumber sorts PDF paths by their numeric suffix.
// e.g., ["week-2.pdf", "week-1.pdf", "week-10.pdf"] -> ["week-1.pdf", "week-2.pdf", "week-10.pdf"]
func sortPDFsByNumber(paths []string) []string {
	sorted := make([]string, len(paths))
	copy(sorted, paths)

	sort.SliceStable(sorted, func(i, j int) bool {
		mi := reNumberSuffix.FindStringSubmatch(strings.ToLower(sorted[i]))
		mj := reNumberSuffix.FindStringSubmatch(strings.ToLower(sorted[j]))

		if len(mi) > 1 && len(mj) > 1 {
			ni, _ := strconv.Atoi(mi[1])
			nj, _ := strconv.Atoi(mj[1])
			if ni != nj {
				return ni < nj
			}
			return sorted[i] < sorted[j]
		}

		// Files without numbers come first
		if len(mi) > 1 {
			return false
		}
		if len(mj) > 1 {
			return true
		}
		return sorted[i] < sorted[j]
	})

	return sorted
}

// DocumentName derives a display name from a PDF filename.
// e.g., "/games/week-3.pdf" -> "week-3"
func DocumentName(pdfPath string) string {
	base := filepath.Base(pdfPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
