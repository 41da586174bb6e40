package session

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeRunner map[string]struct {
	out string
	err error
}

func (f fakeRunner) run(_ context.Context, _ string, name string, args ...string) ([]byte, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	res, ok := f[key]
	if !ok {
		return nil, exec.ErrNotFound
	}
	return []byte(res.out), res.err
}

func newTestDevContext(t *testing.T, runner fakeRunner) *DevContext {
	t.Helper()
	return &DevContext{
		Root: t.TempDir(),
		Run:  runner.run,
		Now:  func() time.Time { return time.Date(2026, 10, 19, 8, 15, 0, 0, time.UTC) },
	}
}

func TestDevContext_Load(t *testing.T) {
	d := newTestDevContext(t, fakeRunner{
		"git rev-parse --abbrev-ref HEAD":      {out: "feature/login\n"},
		"git status --porcelain":               {out: " M main.go\n?? new.go\n"},
		"gh issue list --limit 5 --state open": {out: "12\tOPEN\tLogin broken\n"},
	})

	todo := filepath.Join(d.Root, "TODO.md")
	if err := os.WriteFile(todo, []byte("- ship it\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got := d.Load(context.Background(), "startup")
	want := strings.Join([]string{
		"Session started at: 2026-10-19 08:15:00",
		"Session source: startup",
		"Git branch: feature/login",
		"Uncommitted changes: 2 files",
		"\n--- Content from TODO.md ---",
		"- ship it",
		"\n--- Recent GitHub Issues ---",
		"12\tOPEN\tLogin broken",
	}, "\n")
	if got != want {
		t.Errorf("Load =\n%q\nwant\n%q", got, want)
	}
}

func TestDevContext_NoGit(t *testing.T) {
	d := newTestDevContext(t, fakeRunner{})

	got := d.Load(context.Background(), "resume")
	if strings.Contains(got, "Git branch") || strings.Contains(got, "GitHub") {
		t.Errorf("unexpected git or issue info:\n%s", got)
	}
}

func TestDevContext_OutsideRepository(t *testing.T) {
	d := newTestDevContext(t, fakeRunner{
		"git rev-parse --abbrev-ref HEAD": {err: &exec.ExitError{}},
		"git status --porcelain":          {err: &exec.ExitError{}},
	})

	branch, changes, ok := d.GitStatus(context.Background())
	if !ok || branch != "unknown" || changes != 0 {
		t.Errorf("GitStatus = %q, %d, %v", branch, changes, ok)
	}
}

func TestDevContext_TruncatesContextFiles(t *testing.T) {
	d := newTestDevContext(t, fakeRunner{})

	path := filepath.Join(d.Root, ".claude", "CONTEXT.md")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.Repeat("é", 1500)), 0644); err != nil {
		t.Fatal(err)
	}

	got := d.Load(context.Background(), "startup")
	if !strings.Contains(got, "--- Content from .claude/CONTEXT.md ---") {
		t.Fatalf("context file missing:\n%s", got)
	}
	if n := strings.Count(got, "é"); n != contextFileLimit {
		t.Errorf("included %d characters, want %d", n, contextFileLimit)
	}
}

func TestIsExitError(t *testing.T) {
	if isExitError(errors.New("boom")) {
		t.Error("plain errors are not exit errors")
	}
	if !isExitError(&exec.ExitError{}) {
		t.Error("ExitError not detected")
	}
}
