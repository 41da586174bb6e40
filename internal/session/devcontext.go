package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	gitTimeout    = 5 * time.Second
	issuesTimeout = 10 * time.Second
	// contextFileLimit caps how many characters of each context file are
	// included.
	contextFileLimit = 1000
)

// ContextFiles are read, in order, when loading development context.
var ContextFiles = []string{
	filepath.Join(".claude", "CONTEXT.md"),
	filepath.Join(".claude", "TODO.md"),
	"TODO.md",
	filepath.Join(".github", "ISSUE_TEMPLATE.md"),
}

// CommandRunner runs an external program in dir and returns its stdout.
type CommandRunner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.Output()
}

// DevContext gathers the development context injected at session start.
type DevContext struct {
	Root string
	Run  CommandRunner
	Now  func() time.Time
}

func NewDevContext(root string) *DevContext {
	return &DevContext{Root: root, Run: ExecRunner, Now: time.Now}
}

// Load renders the context for a session started from source.
func (d *DevContext) Load(ctx context.Context, source string) string {
	parts := []string{
		"Session started at: " + d.Now().Format("2006-01-02 15:04:05"),
		"Session source: " + source,
	}

	if branch, changes, ok := d.GitStatus(ctx); ok {
		parts = append(parts, "Git branch: "+branch)
		if changes > 0 {
			parts = append(parts, fmt.Sprintf("Uncommitted changes: %d files", changes))
		}
	}

	for _, name := range ContextFiles {
		data, err := os.ReadFile(filepath.Join(d.Root, name))
		if err != nil {
			continue
		}
		content := strings.TrimSpace(string(data))
		if content == "" {
			continue
		}
		parts = append(parts, "\n--- Content from "+filepath.ToSlash(name)+" ---", truncateRunes(content, contextFileLimit))
	}

	if issues := d.RecentIssues(ctx); issues != "" {
		parts = append(parts, "\n--- Recent GitHub Issues ---", issues)
	}

	return strings.Join(parts, "\n")
}

// GitStatus returns the current branch and the number of uncommitted
// changes. ok is false when git cannot be run at all; outside a repository
// the branch is "unknown".
func (d *DevContext) GitStatus(ctx context.Context) (branch string, changes int, ok bool) {
	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	branch = "unknown"
	out, err := d.Run(ctx, d.Root, "git", "rev-parse", "--abbrev-ref", "HEAD")
	switch {
	case err == nil:
		branch = strings.TrimSpace(string(out))
	case !isExitError(err) || ctx.Err() != nil:
		return "", 0, false
	}

	out, err = d.Run(ctx, d.Root, "git", "status", "--porcelain")
	switch {
	case err == nil:
		if status := strings.TrimSpace(string(out)); status != "" {
			changes = len(strings.Split(status, "\n"))
		}
	case !isExitError(err) || ctx.Err() != nil:
		return "", 0, false
	}

	return branch, changes, true
}

// RecentIssues lists up to five open GitHub issues when the gh CLI is
// available.
func (d *DevContext) RecentIssues(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, issuesTimeout)
	defer cancel()

	out, err := d.Run(ctx, d.Root, "gh", "issue", "list", "--limit", "5", "--state", "open")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
