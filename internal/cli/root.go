package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// ExitError ends the process with Code. Err, when set, is printed to
// stderr first.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// blocked is returned when a hook denies the action. The advisory has
// already been written.
func blocked() error {
	return &ExitError{Code: 2}
}

// globalOptions holds the persistent flags. Flags override every other
// config source.
type globalOptions struct {
	logDir    string
	logFormat string
	failMode  string
	debug     bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "hookguard",
		Short: "Guard and workflow hooks for Claude Code",
		Long: `hookguard is a Claude Code hook command.

It blocks dangerous tool calls (secret access, destructive shell commands,
edits to critical files), keeps an audit trail of what the agent did and
adds optional workflow helpers: post-edit scans, correction and drift
detection, session context and learnings capture.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.logDir, "log-dir", "", "directory for event logs (default logs)")
	flags.StringVar(&opts.logFormat, "log-format", "", "event log format: jsonl or array")
	flags.StringVar(&opts.failMode, "fail-mode", "", "behavior when input cannot be evaluated: open or closed")
	flags.BoolVar(&opts.debug, "debug", false, "print warnings on stderr in hook mode")

	cmd.AddCommand(
		newHookCmd(opts),
		newPreToolUseCmd(opts),
		newCheckCmd(opts),
		newLogsCmd(opts),
		newAuditCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// Execute runs the CLI and exits with the resulting status.
func Execute() {
	err := newRootCmd().Execute()
	os.Exit(exitCode(err, os.Stderr))
}

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(stderr, exitErr.Err)
		}
		return exitErr.Code
	}

	fmt.Fprintln(stderr, err)
	return 1
}
