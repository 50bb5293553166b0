package tocfile

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/jessemcg/Dog-Ear/internal/toc"
)

var mdItemPage = regexp.MustCompile(`^(.*\S)\s+\(p\.\s*(\d+)\)$`)

// MarkdownCodec renders the TOC as "## group" headings with
// "- Label (p. N)" list items. Writing is by hand; reading walks the
// goldmark AST so that editors which reflow or re-indent Markdown do
// not break the round trip.
type MarkdownCodec struct{}

func (MarkdownCodec) Encode(w io.Writer, entries []toc.Entry, opts EncodeOptions) error {
	bw := bufio.NewWriter(w)
	lastGroup := ""
	for _, entry := range entries {
		if entry.GroupName != lastGroup {
			if lastGroup != "" {
				fmt.Fprintln(bw)
			}
			fmt.Fprintf(bw, "## %s\n\n", entry.GroupName)
			lastGroup = entry.GroupName
		}
		fmt.Fprintf(bw, "- %s (p. %d)\n", entry.Label, displayPage(entry.PageIndex, opts))
	}
	return bw.Flush()
}

func (MarkdownCodec) Decode(r io.Reader) ([]toc.Entry, []Diagnostic, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read toc: %w", err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var groups []fileGroup
	var diags []Diagnostic

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			name := strings.TrimSpace(inlineText(node, src))
			if name == "" {
				diags = append(diags, Diagnostic{Line: nodeLine(node, src), Message: "empty group heading"})
				continue
			}
			groups = append(groups, fileGroup{name: name})

		case *ast.List:
			if len(groups) == 0 {
				diags = append(diags, Diagnostic{Line: nodeLine(node, src), Message: "list before any group heading"})
				continue
			}
			g := &groups[len(groups)-1]
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				line := strings.TrimSpace(inlineText(item, src))
				if line == "" {
					continue
				}
				m := mdItemPage.FindStringSubmatch(line)
				if m == nil {
					diags = append(diags, Diagnostic{Line: nodeLine(item, src), Text: line, Message: "item has no (p. N) suffix"})
					continue
				}
				page, err := strconv.Atoi(m[2])
				if err != nil || page < 1 {
					diags = append(diags, Diagnostic{Line: nodeLine(item, src), Text: line, Message: "bad page number"})
					continue
				}
				g.items = append(g.items, fileItem{label: m[1], page: page})
			}
		}
	}
	return buildEntries(groups), diags, nil
}

// nodeLine maps a block node to its 1-based source line via the
// node's first text segment, descending into children until one
// carries segments. Inline nodes have none, so the walk stays on
// blocks. Returns 0 when no segment exists (e.g. an empty heading).
func nodeLine(n ast.Node, src []byte) int {
	for cur := n; cur != nil && cur.Type() == ast.TypeBlock; cur = cur.FirstChild() {
		if lines := cur.Lines(); lines != nil && lines.Len() > 0 {
			return bytes.Count(src[:lines.At(0).Start], []byte{'\n'}) + 1
		}
	}
	return 0
}

// inlineText collects the plain text under a goldmark node.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
			continue
		}
		buf.WriteString(inlineText(c, src))
	}
	return buf.String()
}
