package tocfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jessemcg/Dog-Ear/internal/toc"
)

// TextCodec is the primary TOC file format: one group header per line,
// tab-indented entries below it, a trailing 4-digit page number on
// every line, blank line between groups.
//
//	chapters 0001
//		Opening Statement 0001
//		Verdict 0042
type TextCodec struct{}

func (TextCodec) Encode(w io.Writer, entries []toc.Entry, opts EncodeOptions) error {
	bw := bufio.NewWriter(w)
	lastGroup := ""
	for _, entry := range entries {
		if entry.GroupName != lastGroup {
			if lastGroup != "" {
				fmt.Fprintln(bw)
			}
			fmt.Fprintf(bw, "%s %04d\n", entry.GroupName, displayPage(entry.PageIndex, opts))
			lastGroup = entry.GroupName
		}
		fmt.Fprintf(bw, "\t%s %04d\n", entry.Label, displayPage(entry.PageIndex, opts))
	}
	return bw.Flush()
}

func (TextCodec) Decode(r io.Reader) ([]toc.Entry, []Diagnostic, error) {
	var groups []fileGroup
	var diags []Diagnostic

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimRight(raw, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		indented := strings.HasPrefix(line, "\t") || strings.HasPrefix(raw, "    ")
		text, page, ok := splitTrailingPage(strings.TrimLeft(line, " \t"))
		if !ok {
			diags = append(diags, Diagnostic{Line: lineNo, Text: raw, Message: "no trailing page number"})
			continue
		}

		if !indented {
			groups = append(groups, fileGroup{name: text})
			continue
		}
		if len(groups) == 0 {
			diags = append(diags, Diagnostic{Line: lineNo, Text: raw, Message: "entry before any group header"})
			continue
		}
		g := &groups[len(groups)-1]
		g.items = append(g.items, fileItem{label: text, page: page})
	}
	if err := scanner.Err(); err != nil {
		return nil, diags, fmt.Errorf("read toc: %w", err)
	}
	return buildEntries(groups), diags, nil
}

// splitTrailingPage splits "Some Title 0042" into the title and the
// 1-based page. Titles may contain digits; only the final
// space-separated field counts.
func splitTrailingPage(line string) (string, int, bool) {
	idx := strings.LastIndexAny(line, " \t")
	if idx < 0 {
		return "", 0, false
	}
	page, err := strconv.Atoi(strings.TrimSpace(line[idx+1:]))
	if err != nil || page < 1 {
		return "", 0, false
	}
	title := strings.TrimSpace(line[:idx])
	if title == "" {
		return "", 0, false
	}
	return title, page, true
}
