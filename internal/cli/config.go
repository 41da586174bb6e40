package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/emiliopalmerini/hookguard/internal/infrastructure/config"
)

const redacted = "redacted"

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		Long:  `View the effective configuration after merging defaults, the project file, environment and flags.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(redactSecrets(cfg))
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			out := cmd.OutOrStdout()
			if cfg.Source != "" {
				fmt.Fprintf(out, "# loaded from %s\n", cfg.Source)
			} else {
				fmt.Fprintf(out, "# no %s found, using defaults\n", config.ProjectFile)
			}
			_, err = out.Write(data)
			return err
		},
	})
	return cmd
}

func redactSecrets(cfg *config.Config) *config.Config {
	c := *cfg
	if c.Audit.AuthToken != "" {
		c.Audit.AuthToken = redacted
	}
	if c.Audit.Meili.Key != "" {
		c.Audit.Meili.Key = redacted
	}
	return &c
}
