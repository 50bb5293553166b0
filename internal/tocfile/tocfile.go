// Package tocfile reads and writes the human-editable serialization
// of a table of contents. The text format is the primary one; a
// Markdown rendition is available for people who prefer editing
// nested lists. Page numbers in files are 1-based; entries in memory
// are 0-based.
package tocfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessemcg/Dog-Ear/internal/toc"
)

// EncodeOptions adjust how entries are written.
type EncodeOptions struct {
	// PageOffset shifts every written page number, for documents whose
	// printed numbering differs from physical pages. Results clamp to 1.
	PageOffset int
}

// Diagnostic reports a line the decoder could not use. Decoding is
// resilient: bad lines are skipped and reported, never fatal.
type Diagnostic struct {
	Line    int
	Text    string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s (%q)", d.Line, d.Message, d.Text)
}

// Codec serializes a TOC entry sequence to one concrete file format.
type Codec interface {
	Encode(w io.Writer, entries []toc.Entry, opts EncodeOptions) error
	Decode(r io.Reader) ([]toc.Entry, []Diagnostic, error)
}

// ForPath picks the codec for a file name: .md gets Markdown,
// everything else the text format.
func ForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return &MarkdownCodec{}
	default:
		return &TextCodec{}
	}
}

// WriteFile serializes entries to path with the codec its extension
// selects.
func WriteFile(path string, entries []toc.Entry, opts EncodeOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create toc file: %w", err)
	}
	if err := ForPath(path).Encode(f, entries, opts); err != nil {
		f.Close()
		return fmt.Errorf("write toc file: %w", err)
	}
	return f.Close()
}

// ReadFile loads entries back from path.
func ReadFile(path string) ([]toc.Entry, []Diagnostic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open toc file: %w", err)
	}
	defer f.Close()
	return ForPath(path).Decode(f)
}

func displayPage(pageIndex int, opts EncodeOptions) int {
	page := pageIndex + 1 + opts.PageOffset
	if page < 1 {
		page = 1
	}
	return page
}

// fileGroup is the decoder's intermediate shape shared by the codecs.
type fileGroup struct {
	name  string
	items []fileItem
}

type fileItem struct {
	label string
	page  int // 1-based as written
}

// buildEntries converts decoded groups into the canonical entry
// sequence with fresh sequential ids and position-derived keys.
func buildEntries(groups []fileGroup) []toc.Entry {
	var entries []toc.Entry
	n := 0
	for rank, g := range groups {
		for seq, item := range g.items {
			n++
			entries = append(entries, toc.Entry{
				ID:        fmt.Sprintf("e%04d", n),
				GroupName: g.name,
				Label:     item.label,
				PageIndex: item.page - 1,
				Key:       toc.Key{Rank: rank, Seq: seq},
			})
		}
	}
	return entries
}
