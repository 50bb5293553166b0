package pagetext

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Extractor pulls per-page text out of a PDF. It tries the Go library
// first, then falls back to pdftotext if available.
type Extractor struct {
	FallbackPdftotext bool
}

// Extract returns one string per page, in page order. Pages that yield
// no text stay in the result as empty strings so page attribution is
// never shifted.
func (e *Extractor) Extract(ctx context.Context, path string) ([]string, error) {
	pages, err := extractPDFPages(path)
	if (err != nil || allEmpty(pages)) && e.FallbackPdftotext {
		pages, err = extractPdftotext(ctx, path)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	for i, page := range pages {
		pages[i] = Canonicalize(page)
	}
	return pages, nil
}

func extractPDFPages(path string) (pages []string, err error) {
	// The parser panics on some malformed cross-reference tables;
	// treat that like any other parse failure so the pdftotext
	// fallback still gets its turn.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf parse: panic: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func extractPdftotext(ctx context.Context, path string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	// pdftotext separates pages with form feeds and emits a trailing one.
	pages := strings.Split(string(out), "\f")
	if n := len(pages); n > 0 && pages[n-1] == "" {
		pages = pages[:n-1]
	}
	return pages, nil
}

func allEmpty(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}
