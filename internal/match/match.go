package match

import (
	"strings"

	"github.com/jessemcg/Dog-Ear/internal/pattern"
)

// Record is one pattern hit on one page. Offset is the match start
// within the page text and orders records within a page.
type Record struct {
	GroupName string
	PageIndex int
	Label     string
	Offset    int
}

// Scan applies every pattern in group to one page's text and returns a
// record per non-overlapping match, in pattern order then text order.
// The label is the first capturing group's text, trimmed; matches whose
// label trims to nothing are dropped. An empty result is normal.
func Scan(group pattern.Group, pageIndex int, text string) []Record {
	var records []Record
	for _, p := range group.Patterns {
		for _, m := range p.Expr.FindAllStringSubmatchIndex(text, -1) {
			lo, hi := m[2*p.LabelGroup], m[2*p.LabelGroup+1]
			if lo < 0 {
				continue
			}
			label := strings.TrimSpace(text[lo:hi])
			if label == "" {
				continue
			}
			records = append(records, Record{
				GroupName: group.Name,
				PageIndex: pageIndex,
				Label:     label,
				Offset:    m[0],
			})
		}
	}
	return records
}
