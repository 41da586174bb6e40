// Package scan inspects freshly edited files for leftovers that should not
// ship: debug statements, untracked TODOs and hardcoded secrets. Findings are
// advisory only.
package scan

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxReported caps the number of issues printed by Report.
const MaxReported = 10

// Issue is a single finding.
type Issue struct {
	Line    int
	Message string
}

type check struct {
	re   *regexp.Regexp
	desc string
}

var debugChecks = []check{
	// JavaScript / TypeScript
	{regexp.MustCompile(`\bconsole\.(?:log|debug|info|warn|error|trace|dir)\s*\(`), "console.log statement"},
	{regexp.MustCompile(`\bdebugger\b`), "debugger statement"},
	{regexp.MustCompile(`\balert\s*\(`), "alert() call"},
	// PHP
	{regexp.MustCompile(`\bdd\s*\(`), "dd() call"},
	{regexp.MustCompile(`\bdump\s*\(`), "dump() call"},
	{regexp.MustCompile(`\bvar_dump\s*\(`), "var_dump() call"},
	{regexp.MustCompile(`\bprint_r\s*\(`), "print_r() call"},
	{regexp.MustCompile(`\bray\s*\(`), "ray() call"},
	// Python; print must not be a method or part of a longer name.
	{regexp.MustCompile(`(?:^|[^.\w])print\s*\(`), "print() statement"},
	{regexp.MustCompile(`\bbreakpoint\s*\(`), "breakpoint() call"},
	{regexp.MustCompile(`\bpdb\.set_trace\s*\(`), "pdb.set_trace() call"},
	{regexp.MustCompile(`\bipdb\.set_trace\s*\(`), "ipdb.set_trace() call"},
	// Dart / Flutter
	{regexp.MustCompile(`\bdebugPrint\s*\(`), "debugPrint() call"},
}

var secretChecks = []check{
	{regexp.MustCompile(`(?i)(?:api[_-]?key|api[_-]?secret|auth[_-]?token|access[_-]?token|secret[_-]?key|private[_-]?key)\s*[=:]\s*["'][^"']{8,}`), "potential hardcoded secret"},
	{regexp.MustCompile(`(?i)(?:password|passwd|pwd)\s*[=:]\s*["'][^"']{4,}`), "potential hardcoded password"},
	{regexp.MustCompile(`(?:sk|pk)[-_](?:live|test)[-_][a-zA-Z0-9]{20,}`), "potential API key (Stripe-like pattern)"},
	{regexp.MustCompile(`ghp_[a-zA-Z0-9]{36}`), "potential GitHub personal access token"},
	{regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA )?PRIVATE KEY-----`), "private key in source code"},
}

var todoMarker = regexp.MustCompile(`\b(?:TODO|FIXME|HACK|XXX)\b`)

var checkableExtensions = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".mjs": true, ".cjs": true,
	".py": true, ".pyw": true,
	".php":  true,
	".dart": true,
	".rb":   true,
	".go":   true,
	".rs":   true,
	".java": true, ".kt": true, ".kts": true,
	".vue": true, ".svelte": true,
	".css": true, ".scss": true, ".less": true,
	".html": true, ".htm": true,
	".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".sh": true, ".bash": true, ".zsh": true,
	".md": true,
}

// ShouldCheck reports whether files with this name are scanned.
func ShouldCheck(path string) bool {
	return checkableExtensions[strings.ToLower(filepath.Ext(path))]
}

// Scan returns the issues found in content, in line order.
func Scan(content string) []Issue {
	var issues []Issue

	for i, line := range strings.Split(content, "\n") {
		n := i + 1
		stripped := strings.TrimSpace(line)

		// Comment lines are only checked for secrets, and every secret
		// pattern is reported.
		if isComment(stripped) {
			for _, c := range secretChecks {
				if c.re.MatchString(line) {
					issues = append(issues, Issue{n, "WARNING: " + c.desc})
				}
			}
			continue
		}

		if c, ok := firstMatch(debugChecks, line); ok {
			issues = append(issues, Issue{n, "Debug: " + c.desc})
		}
		if hasUntrackedTodo(line) {
			issues = append(issues, Issue{n, "TODO/FIXME without ticket reference"})
		}
		if c, ok := firstMatch(secretChecks, line); ok {
			issues = append(issues, Issue{n, "SECURITY: " + c.desc})
		}
	}

	return issues
}

// File scans the file at path. Missing files and unchecked extensions
// yield no issues.
func File(path string) ([]Issue, error) {
	if path == "" || !ShouldCheck(path) {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Scan(string(data)), nil
}

// Report writes the issues for the file at path, at most MaxReported of
// them. Nothing is written when issues is empty.
func Report(w io.Writer, path string, issues []Issue) {
	if len(issues) == 0 {
		return
	}

	fmt.Fprintf(w, "[hookguard] Post-edit scan of %s:\n", filepath.Base(path))
	for i, issue := range issues {
		if i == MaxReported {
			fmt.Fprintf(w, "  ... and %d more issues\n", len(issues)-MaxReported)
			break
		}
		fmt.Fprintf(w, "  line %d: %s\n", issue.Line, issue.Message)
	}
}

func isComment(stripped string) bool {
	return strings.HasPrefix(stripped, "//") ||
		strings.HasPrefix(stripped, "#") ||
		strings.HasPrefix(stripped, "*")
}

func firstMatch(checks []check, line string) (check, bool) {
	for _, c := range checks {
		if c.re.MatchString(line) {
			return c, true
		}
	}
	return check{}, false
}

// hasUntrackedTodo finds a marker not followed by a ticket reference such as
// "TODO(#12)", "FIXME #12" or "TODO [ABC-1]".
func hasUntrackedTodo(line string) bool {
	for _, loc := range todoMarker.FindAllStringIndex(line, -1) {
		rest := strings.TrimLeft(line[loc[1]:], " \t\r\f\v")
		if rest == "" || !strings.ContainsRune("(#[", rune(rest[0])) {
			return true
		}
	}
	return false
}
