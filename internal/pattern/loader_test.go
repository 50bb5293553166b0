package pattern

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writePatternFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoad_SingleGroup(t *testing.T) {
	dir := t.TempDir()
	writePatternFile(t, dir, "chapters.txt", "(?:Chapter )(\\d+)\n(?:Section )(\\d+)\n")

	groups, diags, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Name != "chapters" {
		t.Errorf("expected group name %q, got %q", "chapters", groups[0].Name)
	}
	if len(groups[0].Patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(groups[0].Patterns))
	}
	if groups[0].Patterns[0].LabelGroup != 1 {
		t.Errorf("expected label group 1, got %d", groups[0].Patterns[0].LabelGroup)
	}
	if groups[0].Patterns[1].Line != 2 {
		t.Errorf("expected second pattern on line 2, got %d", groups[0].Patterns[1].Line)
	}
}

func TestLoad_CompileErrorDoesNotAbortSiblings(t *testing.T) {
	dir := t.TempDir()
	writePatternFile(t, dir, "chapters.txt", "(?:Chapter )(\\d+\n(Verdict)\n")

	groups, diags, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Patterns) != 1 {
		t.Fatalf("expected the valid sibling pattern to load, got %+v", groups)
	}

	var ce *CompileError
	found := false
	for _, d := range diags {
		if errors.As(d, &ce) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a CompileError diagnostic, got %v", diags)
	}
	if ce.Line != 1 {
		t.Errorf("expected compile error on line 1, got %d", ce.Line)
	}
	if filepath.Base(ce.File) != "chapters.txt" {
		t.Errorf("expected error to name chapters.txt, got %q", ce.File)
	}
}

func TestLoad_RejectsZeroCapturingGroups(t *testing.T) {
	dir := t.TempDir()
	writePatternFile(t, dir, "headings.txt", "Chapter \\d+\n(Appendix [A-Z])\n")

	groups, diags, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups[0].Patterns) != 1 {
		t.Fatalf("expected only the capturing pattern to load, got %d", len(groups[0].Patterns))
	}

	var nce *NoCapturingGroupError
	found := false
	for _, d := range diags {
		if errors.As(d, &nce) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a NoCapturingGroupError diagnostic, got %v", diags)
	}
	if nce.Pattern != "Chapter \\d+" {
		t.Errorf("expected rejected pattern text, got %q", nce.Pattern)
	}
}

func TestLoad_SkipsCommentsAndBlankLines(t *testing.T) {
	dir := t.TempDir()
	writePatternFile(t, dir, "g.txt", "# heading patterns\n\n(Chapter \\d+)\n\n# trailing comment\n")

	groups, diags, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
	if len(groups[0].Patterns) != 1 {
		t.Fatalf("expected 1 pattern, got %d", len(groups[0].Patterns))
	}
	if groups[0].Patterns[0].Line != 3 {
		t.Errorf("expected pattern on line 3, got %d", groups[0].Patterns[0].Line)
	}
}

func TestLoad_MultilineIsDefault(t *testing.T) {
	dir := t.TempDir()
	writePatternFile(t, dir, "g.txt", "^(Verdict)$\n")

	groups, _, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expr := groups[0].Patterns[0].Expr
	if !expr.MatchString("Opening\nVerdict\nClosing") {
		t.Error("expected ^/$ to anchor to line boundaries")
	}
}

func TestLoad_FlagsDirective(t *testing.T) {
	dir := t.TempDir()
	writePatternFile(t, dir, "g.txt", "(chapter \\d+)\n# flags: i\n(verdict)\n")

	groups, diags, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
	patterns := groups[0].Patterns
	if len(patterns) != 2 {
		t.Fatalf("expected 2 patterns, got %d", len(patterns))
	}
	if patterns[0].Expr.MatchString("CHAPTER 1") {
		t.Error("expected pattern before the directive to stay case-sensitive")
	}
	if !patterns[1].Expr.MatchString("VERDICT") {
		t.Error("expected pattern after the directive to be case-insensitive")
	}
}

func TestLoad_UnsupportedFlagDiagnosed(t *testing.T) {
	dir := t.TempDir()
	writePatternFile(t, dir, "g.txt", "# flags: ix\n(verdict)\n")

	groups, diags, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic for the x flag, got %v", diags)
	}
	// The supported letters still apply.
	if !groups[0].Patterns[0].Expr.MatchString("VERDICT") {
		t.Error("expected i flag to apply despite the unsupported x")
	}
}

func TestLoad_ExcludesDotfilesAndOrderFile(t *testing.T) {
	dir := t.TempDir()
	writePatternFile(t, dir, "chapters.txt", "(Chapter \\d+)\n")
	writePatternFile(t, dir, ".hidden.txt", "(nope)\n")
	writePatternFile(t, dir, "_order.txt", "chapters\n")

	groups, _, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 || groups[0].Name != "chapters" {
		t.Fatalf("expected only the chapters group, got %+v", groups)
	}
}

func TestLoad_AnyExtensionIsAPatternFile(t *testing.T) {
	dir := t.TempDir()
	writePatternFile(t, dir, "issues.regex", "(Issue \\d+)\n")
	writePatternFile(t, dir, "motions", "(Motion to [A-Z]\\w+)\n")
	writePatternFile(t, dir, "chapters.txt", "(Chapter \\d+)\n")

	groups, diags, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	got := make(map[string]bool)
	for _, g := range groups {
		got[g.Name] = true
	}
	for _, want := range []string{"issues", "motions", "chapters"} {
		if !got[want] {
			t.Errorf("missing group %q in %v", want, groups)
		}
	}
}

func TestLoad_OrderFileControlsRank(t *testing.T) {
	dir := t.TempDir()
	writePatternFile(t, dir, "alpha.txt", "(a)\n")
	writePatternFile(t, dir, "beta.txt", "(b)\n")
	writePatternFile(t, dir, "gamma.txt", "(c)\n")
	writePatternFile(t, dir, "_order.txt", "gamma\nalpha\n")

	groups, _, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []string{groups[0].Name, groups[1].Name, groups[2].Name}
	want := []string{"gamma", "alpha", "beta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestLoad_DefaultOrderIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writePatternFile(t, dir, "Bravo.txt", "(b)\n")
	writePatternFile(t, dir, "alpha.txt", "(a)\n")

	groups, _, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if groups[0].Name != "alpha" || groups[1].Name != "Bravo" {
		t.Errorf("expected case-insensitive name order, got %q then %q", groups[0].Name, groups[1].Name)
	}
}

func TestLoad_EmptyGroupKeptForReporting(t *testing.T) {
	dir := t.TempDir()
	writePatternFile(t, dir, "broken.txt", "no capture here\n")

	groups, diags, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected the group to survive with zero patterns, got %d groups", len(groups))
	}
	if len(groups[0].Patterns) != 0 {
		t.Errorf("expected zero patterns, got %d", len(groups[0].Patterns))
	}
	if len(diags) != 1 {
		t.Errorf("expected 1 diagnostic, got %d", len(diags))
	}
}
