package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/emiliopalmerini/hookguard/internal/audit"
	"github.com/emiliopalmerini/hookguard/internal/domain"
	"github.com/emiliopalmerini/hookguard/internal/guard"
)

func writeProjectFile(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, ProjectFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogDir != "logs" {
		t.Errorf("LogDir = %q, want logs", cfg.LogDir)
	}
	if cfg.Format() != audit.FormatJSONL {
		t.Errorf("Format = %q, want jsonl", cfg.Format())
	}
	if cfg.FailClosed() {
		t.Error("default fail mode should be open")
	}
	if !cfg.Prompt.Log {
		t.Error("prompt logging should be on by default")
	}
	if cfg.Audit.Meili.Index != "hookguard-decisions" {
		t.Errorf("Meili index = %q", cfg.Audit.Meili.Index)
	}
	if cfg.Source != "" {
		t.Errorf("Source = %q, want empty without a file", cfg.Source)
	}
}

func TestLoad_ProjectFile(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, `
log_dir: audit-logs
log_format: array
fail_mode: closed
guard:
  extra_commands:
    - pattern: '\bterraform\s+destroy\b'
      reason: terraform destroy tears down infrastructure
  extra_paths:
    - pattern: '^secrets/'
prompt:
  detect_drift: true
  blocked: ["rm -rf"]
stop:
  learn_capture: true
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogDir != "audit-logs" || cfg.Format() != audit.FormatArray || !cfg.FailClosed() {
		t.Errorf("top-level keys not applied: %+v", cfg)
	}
	if !cfg.Prompt.Log {
		t.Error("keys absent from the file must keep their defaults")
	}
	if !cfg.Prompt.DetectDrift || len(cfg.Prompt.Blocked) != 1 || !cfg.Stop.LearnCapture {
		t.Errorf("nested keys not applied: %+v %+v", cfg.Prompt, cfg.Stop)
	}
	if cfg.Source == "" {
		t.Error("Source should name the file read")
	}

	opts, err := cfg.GuardOptions()
	if err != nil {
		t.Fatalf("GuardOptions: %v", err)
	}
	g := guard.New(opts...)

	d := g.Evaluate(guard.Request{ToolName: domain.ToolBash, Input: domain.ToolInput{Command: "terraform destroy"}})
	if d.Allowed || d.Reason != "terraform destroy tears down infrastructure" {
		t.Errorf("extra command not wired: %+v", d)
	}
	d = g.Evaluate(guard.Request{ToolName: domain.ToolWrite, Input: domain.ToolInput{FilePath: "secrets/x"}})
	if d.Allowed {
		t.Error("extra path not wired")
	}
	d = g.Evaluate(guard.Request{ToolName: domain.ToolRead, Input: domain.ToolInput{FilePath: ".env.example"}})
	if !d.Allowed {
		t.Error("default env allow suffixes should survive the file")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "log_dir: from-file\nfail_mode: closed\n")

	t.Setenv("HOOKGUARD_LOG_DIR", "from-env")
	t.Setenv("HOOKGUARD_FAIL_MODE", "open")
	t.Setenv("HOOKGUARD_AUDIT_DATABASE", "off")
	t.Setenv("HOOKGUARD_SESSION_START_LOAD_CONTEXT", "true")
	t.Setenv("HOOKGUARD_OTEL_ENABLED", "true")
	t.Setenv("HOOKGUARD_OTEL_ENDPOINT", "collector:4317")
	t.Setenv("MEILI_URL", "http://meili:7700")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.LogDir != "from-env" {
		t.Errorf("LogDir = %q, want from-env", cfg.LogDir)
	}
	if cfg.FailClosed() {
		t.Error("env fail mode should win over the file")
	}
	if !cfg.SessionStart.LoadContext {
		t.Error("nested env key not applied")
	}
	if !cfg.Otel.Active() {
		t.Errorf("otel config not applied: %+v", cfg.Otel)
	}
	if cfg.Audit.Meili.URL != "http://meili:7700" {
		t.Errorf("Meili URL = %q", cfg.Audit.Meili.URL)
	}

	db, err := cfg.AuditDatabase()
	if err != nil || db != "" {
		t.Errorf("AuditDatabase() = %q, %v; want disabled", db, err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad format", "log_format: xml\n"},
		{"bad fail mode", "fail_mode: sometimes\n"},
		{"bad pattern", "guard:\n  extra_paths:\n    - pattern: '(unclosed'\n"},
		{"empty log dir", "log_dir: ''\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeProjectFile(t, dir, tt.content)
			if _, err := Load(dir); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "guard: [unterminated\n")
	if _, err := Load(dir); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestAuditDatabase(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")

	tests := []struct {
		in   string
		want string
	}{
		{"", filepath.Join("/data", "hookguard", "audit.db")},
		{"off", ""},
		{"/tmp/custom.db", "/tmp/custom.db"},
		{"libsql://db.example.com", "libsql://db.example.com"},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.Audit.Database = tt.in
		got, err := cfg.AuditDatabase()
		if err != nil {
			t.Fatalf("AuditDatabase(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("AuditDatabase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
