package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emiliopalmerini/hookguard/internal/audit"
)

func sessionStartInput(cwd string) map[string]any {
	return map[string]any{
		"session_id":      "sess-ss",
		"transcript_path": "/tmp/transcript.jsonl",
		"cwd":             cwd,
		"permission_mode": "default",
		"hook_event_name": "SessionStart",
		"source":          "startup",
	}
}

func TestHandleSessionStart_NoContext(t *testing.T) {
	dir := projectDir(t)

	res := runHookWithInput(t, sessionStartInput(dir))

	assertEqual(t, "exit code", 0, res.code)
	assertEqual(t, "stdout", "", res.stdout)
	if n := len(readLog(t, dir, audit.LogSessionStart, audit.FormatJSONL)); n != 1 {
		t.Errorf("expected 1 log entry, got %d", n)
	}
}

func TestHandleSessionStart_InjectsLearningsAndContext(t *testing.T) {
	dir := projectDir(t)
	writeConfig(t, dir, "session_start:\n  load_context: true\n  load_learnings: true\n")
	writeFile(t, filepath.Join(dir, ".claude", "CONTEXT.md"), "Laravel 11 app, PHP 8.3")
	writeFile(t, filepath.Join(dir, ".claude", "data", "learnings.json"), `[
  {"date":"2026-10-01T09:00:00Z","project":"`+filepath.Base(dir)+`","category":"Testing","rule":"Run pest before committing","times_applied":2},
  {"date":"2026-10-02T09:00:00Z","project":"elsewhere","category":"Git","rule":"Squash fixups","times_applied":9}
]`)

	res := runHookWithInput(t, sessionStartInput(dir))
	assertEqual(t, "exit code", 0, res.code)

	var resp HookResponse
	if err := json.Unmarshal([]byte(res.stdout), &resp); err != nil {
		t.Fatalf("stdout is not a hook response: %v\n%s", err, res.stdout)
	}
	if resp.HookSpecificOutput == nil {
		t.Fatal("missing hookSpecificOutput")
	}
	assertEqual(t, "hookEventName", "SessionStart", resp.HookSpecificOutput.HookEventName)

	ctx := resp.HookSpecificOutput.AdditionalContext
	for _, want := range []string{
		"Session source: startup",
		"--- Content from .claude/CONTEXT.md ---",
		"Laravel 11 app, PHP 8.3",
		"[hookguard] 1 learnings loaded for this project:",
		"[Testing] Run pest before committing (applied 2x)",
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("context missing %q:\n%s", want, ctx)
		}
	}
	if strings.Contains(ctx, "Squash fixups") {
		t.Error("learnings of other projects should be filtered out")
	}
}
