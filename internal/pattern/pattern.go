package pattern

import (
	"fmt"
	"regexp"
)

// Pattern is one compiled expression from a pattern file. The first
// capturing group supplies the bookmark label; LabelGroup records its
// index explicitly so downstream code never inspects the regexp's
// group table.
type Pattern struct {
	Expr       *regexp.Regexp
	LabelGroup int
	Source     string
	Line       int
}

// Group is the ordered set of patterns loaded from one file. The name
// is the file stem and becomes the bookmark group title.
type Group struct {
	Name     string
	Patterns []Pattern
}

// CompileError reports a pattern line that failed to compile. Sibling
// patterns in the same file load normally.
type CompileError struct {
	File    string
	Line    int
	Pattern string
	Err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d: compile %q: %v", e.File, e.Line, e.Pattern, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// NoCapturingGroupError reports a pattern with no capturing group.
// Such a pattern has nothing to label a bookmark with and is rejected
// at load time.
type NoCapturingGroupError struct {
	File    string
	Line    int
	Pattern string
}

func (e *NoCapturingGroupError) Error() string {
	return fmt.Sprintf("%s:%d: pattern %q has no capturing group", e.File, e.Line, e.Pattern)
}
