package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/hookguard/internal/domain"
	"github.com/emiliopalmerini/hookguard/internal/guard"
	"github.com/emiliopalmerini/hookguard/internal/pkg/tui/theme"
)

func newCheckCmd(opts *globalOptions) *cobra.Command {
	var (
		tool    string
		command string
		file    string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Dry-run the guard against a tool call",
		Long: `Evaluates a tool call with the effective configuration without running it.
Exits with status 2 when the call would be blocked.

  hookguard check --command "rm -rf storage"
  hookguard check --tool Read --file .env`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			req, err := checkRequest(tool, command, file)
			if err != nil {
				return err
			}

			guardOpts, err := cfg.GuardOptions()
			if err != nil {
				return err
			}
			d := guard.New(guardOpts...).Evaluate(req)

			styles := theme.Default()
			out := cmd.OutOrStdout()

			subject := req.Input.Command
			if subject == "" {
				subject = req.Input.FilePath
			}
			fmt.Fprintf(out, "%s  %s %s\n", styles.Decision(verdict(d)), styles.Muted.Render(req.ToolName), subject)

			if d.Allowed {
				return nil
			}
			fmt.Fprintf(out, "  rule:   %s\n", styles.Highlighted.Render(string(d.Rule)))
			fmt.Fprintf(out, "  reason: %s\n", d.Reason)
			return blocked()
		},
	}

	cmd.Flags().StringVar(&tool, "tool", "", "tool name (default Bash with --command, Write with --file)")
	cmd.Flags().StringVar(&command, "command", "", "shell command to evaluate")
	cmd.Flags().StringVar(&file, "file", "", "file path to evaluate")
	return cmd
}

func checkRequest(tool, command, file string) (guard.Request, error) {
	if command == "" && file == "" {
		return guard.Request{}, errors.New("one of --command or --file is required")
	}
	if tool == "" {
		tool = domain.ToolWrite
		if command != "" {
			tool = domain.ToolBash
		}
	}
	return guard.Request{
		ToolName: tool,
		Input:    domain.ToolInput{Command: command, FilePath: file},
	}, nil
}

func verdict(d guard.Decision) string {
	if d.Allowed {
		return domain.DecisionAllow
	}
	return domain.DecisionDeny
}
