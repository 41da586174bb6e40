package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emiliopalmerini/hookguard/internal/adapters/turso"
	"github.com/emiliopalmerini/hookguard/internal/audit"
)

func assertEqual[T comparable](t *testing.T, name string, expected, actual T) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", name, expected, actual)
	}
}

// cliResult is the outcome of one hookguard invocation.
type cliResult struct {
	stdout string
	stderr string
	code   int
}

// runCLI runs hookguard with args, feeding stdin, and returns what a
// process would have produced.
func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	cmd.SetContext(context.Background())

	code := exitCode(cmd.Execute(), &stderr)
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

// runHookWithInput marshals input and pipes it into "hookguard hook".
func runHookWithInput(t *testing.T, input any, args ...string) cliResult {
	t.Helper()

	data, err := json.Marshal(input)
	if err != nil {
		t.Fatalf("Failed to marshal input: %v", err)
	}
	return runCLI(t, string(data), append([]string{"hook"}, args...)...)
}

// projectDir creates an isolated project, makes it the working directory
// and points every external location at temporary directories.
func projectDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	t.Setenv("HOOKGUARD_AUDIT_DATABASE", "off")
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("TMPDIR", t.TempDir())
	t.Setenv("MEILI_URL", "")
	t.Setenv("MEILI_KEY", "")
	return dir
}

// writeConfig writes the project config file.
func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, ".claude", "hookguard.yaml"), content)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// testDB opens a migrated decision store and installs it as the hook
// decision store for the duration of the test.
func testDB(t *testing.T) *turso.DB {
	t.Helper()

	db, err := turso.Open(context.Background(), filepath.Join(t.TempDir(), "audit.db"), "")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	testDBOverride = db.DB
	t.Cleanup(func() {
		testDBOverride = nil
		_ = db.Close()
	})
	return db
}

// readLog returns the entries of an event log under dir.
func readLog(t *testing.T, dir, name string, format audit.Format) []map[string]any {
	t.Helper()

	raw, err := audit.ReadEntries(audit.NewLog(filepath.Join(dir, "logs"), name, format).Path())
	if err != nil {
		t.Fatalf("Failed to read %s log: %v", name, err)
	}
	entries := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		var m map[string]any
		if err := json.Unmarshal(r, &m); err != nil {
			t.Fatalf("log entry is not an object: %v", err)
		}
		entries = append(entries, m)
	}
	return entries
}

func preToolUse(tool string, toolInput map[string]string) map[string]any {
	return map[string]any{
		"session_id":      "sess-1",
		"transcript_path": "/tmp/transcript.jsonl",
		"cwd":             "/project",
		"permission_mode": "default",
		"hook_event_name": "PreToolUse",
		"tool_name":       tool,
		"tool_input":      toolInput,
		"tool_use_id":     "toolu_01",
	}
}
