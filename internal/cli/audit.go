package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/hookguard/internal/adapters/meili"
	"github.com/emiliopalmerini/hookguard/internal/adapters/turso"
	"github.com/emiliopalmerini/hookguard/internal/domain"
	"github.com/emiliopalmerini/hookguard/internal/infrastructure/config"
	"github.com/emiliopalmerini/hookguard/internal/migrate"
	"github.com/emiliopalmerini/hookguard/internal/pkg/tui/theme"
	"github.com/emiliopalmerini/hookguard/internal/ports"
)

var errStoreDisabled = errors.New("the decision store is disabled (audit.database is off)")

func newAuditCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the guard decision store",
	}
	cmd.AddCommand(
		newAuditListCmd(opts),
		newAuditStatsCmd(opts),
		newAuditMigrateCmd(opts),
		newAuditMeiliSetupCmd(opts),
	)
	return cmd
}

// withDecisionStore opens the store for an operator command. Unlike the hook
// path, a missing store is an error here.
func withDecisionStore(cmd *cobra.Command, opts *globalOptions, fn func(context.Context, ports.DecisionRepository) error) error {
	cfg, _, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repo, closeDB, err := openDecisionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()
	if repo == nil {
		return errStoreDisabled
	}
	return fn(ctx, repo)
}

func newAuditListCmd(opts *globalOptions) *cobra.Command {
	var (
		limit  int
		denied bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent guard decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDecisionStore(cmd, opts, func(ctx context.Context, repo ports.DecisionRepository) error {
				records, err := repo.List(ctx, limit, denied)
				if err != nil {
					return fmt.Errorf("failed to list decisions: %w", err)
				}
				printDecisions(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of decisions to show (0 for all)")
	cmd.Flags().BoolVar(&denied, "denied", false, "only show denied calls")
	return cmd
}

func printDecisions(w io.Writer, records []*domain.DecisionRecord) {
	styles := theme.Default()
	if len(records) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("No decisions recorded."))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tDECISION\tRULE\tTOOL\tSUBJECT")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime),
			r.Decision,
			dashIfEmpty(r.Rule),
			r.ToolName,
			truncate(r.Subject, 60),
		)
	}
	_ = tw.Flush()
}

func newAuditStatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize guard decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDecisionStore(cmd, opts, func(ctx context.Context, repo ports.DecisionRepository) error {
				stats, err := repo.Stats(ctx)
				if err != nil {
					return fmt.Errorf("failed to get stats: %w", err)
				}
				printStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
}

func printStats(w io.Writer, stats *domain.DecisionStats) {
	styles := theme.Default()

	fmt.Fprintln(w, styles.Title.Render("Guard decisions"))
	fmt.Fprintf(w, "  Total:   %d\n", stats.Total)
	fmt.Fprintf(w, "  Allowed: %s\n", styles.Success.Render(strconv.FormatInt(stats.Allowed, 10)))
	fmt.Fprintf(w, "  Denied:  %s\n", styles.Error.Render(strconv.FormatInt(stats.Denied, 10)))

	if len(stats.ByRule) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.Subtitle.Render("Denials by rule"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, rc := range stats.ByRule {
		fmt.Fprintf(tw, "  %s\t%d\n", rc.Rule, rc.Count)
	}
	_ = tw.Flush()
}

func newAuditMigrateCmd(opts *globalOptions) *cobra.Command {
	var downTo int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply decision store migrations",
		Long: `Applies pending schema migrations. With --down-to, rolls the schema back to
the given version instead (0 drops every table).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			location, err := cfg.AuditDatabase()
			if err != nil {
				return err
			}
			if location == "" {
				return errStoreDisabled
			}

			db, err := turso.Connect(location, cfg.Audit.AuthToken)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out := cmd.OutOrStdout()

			if cmd.Flags().Changed("down-to") {
				return migrate.MigrateDownTo(ctx, db.DB, out, downTo)
			}

			applied, err := migrate.RunAll(ctx, db.DB)
			if err != nil {
				return err
			}
			version, _, err := migrate.GetCurrentVersion(ctx, db.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Applied %d migrations, schema at version %d\n", applied, version)
			return nil
		},
	}

	cmd.Flags().IntVar(&downTo, "down-to", 0, "roll back to this schema version")
	return cmd
}

func newAuditMeiliSetupCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "meili-setup",
		Short: "Create and configure the MeiliSearch decisions index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return setupMeili(cmd, cfg)
		},
	}
}

func setupMeili(cmd *cobra.Command, cfg *config.Config) error {
	m := cfg.Audit.Meili
	if m.URL == "" {
		return errors.New("MeiliSearch is not configured (set MEILI_URL or audit.meili.url)")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := meili.NewDecisionIndex(m.URL, m.Key, m.Index).Setup(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Index %s is ready at %s\n", m.Index, m.URL)
	return nil
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
