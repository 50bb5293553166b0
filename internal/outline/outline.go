// Package outline turns a committed TOC into a PDF bookmark tree and
// writes it into a target document.
package outline

import (
	"github.com/jessemcg/Dog-Ear/internal/toc"
)

// Node is one bookmark. The tree Build produces is two levels deep:
// the root's children are group nodes, their children are leaves, one
// per TOC entry. TargetPage is 0-based.
type Node struct {
	Title      string  `json:"title"`
	TargetPage int     `json:"target_page"`
	Children   []*Node `json:"children,omitempty"`
}

// Build partitions entries by group name in first-seen order and
// returns the bookmark tree root. Group nodes target their first
// child's page. Groups with no entries cannot occur by construction:
// a group exists only because an entry named it.
func Build(entries []toc.Entry) *Node {
	root := &Node{}
	groups := make(map[string]*Node)
	for _, entry := range entries {
		g, ok := groups[entry.GroupName]
		if !ok {
			g = &Node{Title: entry.GroupName, TargetPage: entry.PageIndex}
			groups[entry.GroupName] = g
			root.Children = append(root.Children, g)
		}
		g.Children = append(g.Children, &Node{
			Title:      entry.Label,
			TargetPage: entry.PageIndex,
		})
	}
	return root
}

// Leaves returns every leaf node of a built tree in render order.
func (n *Node) Leaves() []*Node {
	var out []*Node
	var walk func(node *Node)
	walk = func(node *Node) {
		if len(node.Children) == 0 && node != n {
			out = append(out, node)
			return
		}
		for _, c := range node.Children {
			walk(c)
		}
	}
	walk(n)
	return out
}
