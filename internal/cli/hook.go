package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/hookguard/internal/audit"
	"github.com/emiliopalmerini/hookguard/internal/domain"
	"github.com/emiliopalmerini/hookguard/internal/infrastructure/config"
)

// HookResponse is the JSON written to stdout for hooks that add context.
// Claude Code reads it after a zero exit status.
type HookResponse struct {
	HookSpecificOutput *HookSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

type HookSpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext,omitempty"`
}

func newHookCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hook",
		Short: "Handle Claude Code hook events",
		Long: `Reads hook event JSON from stdin and dispatches to the appropriate handler.

This is a unified entry point for all Claude Code hook events. Configure
your hooks to use "hookguard hook" for every event type:

  {
    "hooks": {
      "PreToolUse":       [{"hooks": [{"type": "command", "command": "hookguard hook"}]}],
      "PostToolUse":      [{"hooks": [{"type": "command", "command": "hookguard hook"}]}],
      "UserPromptSubmit": [{"hooks": [{"type": "command", "command": "hookguard hook"}]}],
      "SessionStart":     [{"hooks": [{"type": "command", "command": "hookguard hook"}]}],
      "Stop":             [{"hooks": [{"type": "command", "command": "hookguard hook"}]}]
    }
  }

A blocked action exits with status 2 and explains why on stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHook(cmd, opts)
		},
	}
}

func newPreToolUseCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pre-tool-use",
		Short: "Guard a single tool call",
		Long: `Reads a PreToolUse payload from stdin and blocks it (exit status 2) when it
matches the denylist. hook_event_name is not required.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := newHookEnv(cmd, opts)
			input, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return h.fail(fmt.Errorf("failed to read stdin: %w", err))
			}
			event, err := domain.ParsePreToolUse(input)
			if err != nil {
				return h.fail(err)
			}
			return h.preToolUse(event, input)
		},
	}
}

// hookEnv is the state shared by the hook handlers of one invocation.
type hookEnv struct {
	ctx    context.Context
	cfg    *config.Config
	root   string
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

// newHookEnv loads the configuration. An invalid configuration is reported
// as a warning and the defaults are used, so the built-in rules still apply.
func newHookEnv(cmd *cobra.Command, opts *globalOptions) *hookEnv {
	h := &hookEnv{
		ctx:    cmd.Context(),
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		now:    time.Now,
	}
	if h.ctx == nil {
		h.ctx = context.Background()
	}

	cfg, root, err := loadConfig(cmd, opts)
	h.root = root
	if err != nil {
		h.cfg = config.Default()
		envDebug, _ := strconv.ParseBool(os.Getenv(config.EnvPrefix + "_DEBUG"))
		h.cfg.Debug = opts.debug || envDebug
		h.warnf("using default configuration: %v", err)
		return h
	}
	h.cfg = cfg
	return h
}

func runHook(cmd *cobra.Command, opts *globalOptions) error {
	h := newHookEnv(cmd, opts)

	input, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return h.fail(fmt.Errorf("failed to read stdin: %w", err))
	}

	event, err := domain.ParseHookEvent(input)
	if errors.Is(err, domain.ErrUnknownEvent) {
		h.warnf("%v", err)
		return nil
	}
	if err != nil {
		return h.fail(err)
	}

	switch e := event.(type) {
	case *domain.PreToolUseInput:
		return h.preToolUse(e, input)
	case *domain.PostToolUseInput:
		h.postToolUse(e)
	case *domain.UserPromptSubmitInput:
		return h.userPromptSubmit(e, input)
	case *domain.SessionStartInput:
		return h.sessionStart(e, input)
	case *domain.StopInput:
		h.stop(e, input)
	default:
		h.warnf("unhandled hook event type: %T", event)
	}
	return nil
}

// warnf reports a non-fatal problem. Hook stderr is shown to the model, so
// warnings are only written in debug mode.
func (h *hookEnv) warnf(format string, args ...any) {
	if h.cfg == nil || !h.cfg.Debug {
		return
	}
	fmt.Fprintf(h.stderr, "warning: "+format+"\n", args...)
}

// fail handles input that could not be evaluated. Fail-open mode lets the
// action proceed; fail-closed mode blocks it.
func (h *hookEnv) fail(err error) error {
	if h.cfg.FailClosed() {
		fmt.Fprintf(h.stderr, "BLOCKED by hookguard: could not evaluate the request (%v)\n", err)
		return blocked()
	}
	h.warnf("%v", err)
	return nil
}

func (h *hookEnv) logDir() string {
	return logDir(h.cfg, h.root)
}

// appendLog records payload in the named event log. Failures are warnings.
func (h *hookEnv) appendLog(name string, payload []byte, ts time.Time) {
	log := audit.NewLog(h.logDir(), name, h.cfg.Format())
	if err := log.Append(payload, ts); err != nil {
		h.warnf("failed to write %s log: %v", name, err)
	}
}

// project names the project a hook runs in, from the payload cwd when set.
func (h *hookEnv) project(cwd string) string {
	if cwd == "" {
		cwd = h.root
	}
	return filepath.Base(cwd)
}

// outputJSON writes a HookResponse as JSON to stdout.
func (h *hookEnv) outputJSON(resp *HookResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	fmt.Fprintln(h.stdout, string(data))
	return nil
}
