package pattern

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const orderFileName = "_order.txt"

var flagsDirective = regexp.MustCompile(`^#\s*flags:\s*([A-Za-z]*)\s*$`)

// Load reads every pattern file in dir into a Group. Any regular file
// is a pattern file, whatever its extension; the file name minus its
// extension is the group name. Files hold one expression per line;
// blank lines and #-comments are skipped; a "# flags: ims" directive
// switches flags for the lines that follow it. Dotfiles and
// _order.txt are not pattern files.
//
// Pattern-level problems (bad syntax, no capturing group, unknown
// flag letters) are collected into diags and never abort sibling
// patterns or sibling groups. Group order follows _order.txt when
// present; unlisted groups sort by name, case-insensitively.
func Load(dir string) (groups []Group, diags []error, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read pattern dir: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || name == orderFileName {
			continue
		}
		group, fileDiags, err := parseFile(filepath.Join(dir, name), strings.TrimSuffix(name, filepath.Ext(name)))
		if err != nil {
			diags = append(diags, err)
			continue
		}
		diags = append(diags, fileDiags...)
		groups = append(groups, group)
	}

	order := readOrder(filepath.Join(dir, orderFileName))
	sortGroups(groups, order)
	return groups, diags, nil
}

// parseFile compiles one pattern file. The returned error is reserved
// for I/O failures; per-line problems land in diags.
func parseFile(path, name string) (Group, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return Group{}, nil, fmt.Errorf("open pattern file: %w", err)
	}
	defer f.Close()

	group := Group{Name: name}
	var diags []error

	// Multiline stays on for every pattern; the directive can add
	// case-insensitive and dot-matches-newline on top.
	caseInsensitive := false
	dotAll := false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if m := flagsDirective.FindStringSubmatch(line); m != nil {
				caseInsensitive, dotAll = false, false
				for _, ch := range m[1] {
					switch ch {
					case 'i':
						caseInsensitive = true
					case 'm':
						// Already on.
					case 's':
						dotAll = true
					default:
						diags = append(diags, fmt.Errorf("%s:%d: unsupported flag %q ignored", path, lineNo, string(ch)))
					}
				}
			}
			continue
		}

		expr, err := regexp.Compile(flagPrefix(caseInsensitive, dotAll) + line)
		if err != nil {
			diags = append(diags, &CompileError{File: path, Line: lineNo, Pattern: line, Err: err})
			continue
		}
		if expr.NumSubexp() == 0 {
			diags = append(diags, &NoCapturingGroupError{File: path, Line: lineNo, Pattern: line})
			continue
		}
		group.Patterns = append(group.Patterns, Pattern{
			Expr:       expr,
			LabelGroup: 1,
			Source:     path,
			Line:       lineNo,
		})
	}
	if err := scanner.Err(); err != nil {
		return Group{}, nil, fmt.Errorf("read pattern file %s: %w", path, err)
	}
	return group, diags, nil
}

func flagPrefix(caseInsensitive, dotAll bool) string {
	flags := "m"
	if caseInsensitive {
		flags += "i"
	}
	if dotAll {
		flags += "s"
	}
	return "(?" + flags + ")"
}

// readOrder loads the optional _order.txt rank list. Stems that do not
// correspond to a loaded group are tolerated; they may reference files
// that were removed.
func readOrder(path string) map[string]int {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	order := make(map[string]int)
	rank := 0
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		stem := strings.TrimSuffix(line, filepath.Ext(line))
		if _, seen := order[stem]; !seen {
			order[stem] = rank
			rank++
		}
	}
	return order
}

func sortGroups(groups []Group, order map[string]int) {
	sort.SliceStable(groups, func(i, j int) bool {
		ri, iListed := order[groups[i].Name]
		rj, jListed := order[groups[j].Name]
		switch {
		case iListed && jListed:
			return ri < rj
		case iListed:
			return true
		case jListed:
			return false
		default:
			return strings.ToLower(groups[i].Name) < strings.ToLower(groups[j].Name)
		}
	})
}
