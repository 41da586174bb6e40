package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/hookguard/internal/adapters/meili"
	"github.com/emiliopalmerini/hookguard/internal/adapters/otel"
	"github.com/emiliopalmerini/hookguard/internal/adapters/turso"
	"github.com/emiliopalmerini/hookguard/internal/domain"
	"github.com/emiliopalmerini/hookguard/internal/infrastructure/config"
	"github.com/emiliopalmerini/hookguard/internal/ports"
)

// testDBOverride replaces the decision store in tests.
var testDBOverride *sql.DB

// sinkTimeout bounds the time a hook spends on decision sinks.
const sinkTimeout = 3 * time.Second

// loadConfig resolves the configuration for the working directory and
// applies the persistent flags on top.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, string, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, root, err
	}

	if err := applyFlags(cmd, opts, cfg); err != nil {
		return nil, root, err
	}
	return cfg, root, nil
}

func applyFlags(cmd *cobra.Command, opts *globalOptions, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("log-dir") {
		cfg.LogDir = opts.logDir
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if flags.Changed("fail-mode") {
		cfg.FailMode = opts.failMode
	}
	if flags.Changed("debug") {
		cfg.Debug = opts.debug
	}
	return cfg.Validate()
}

// logDir resolves the configured log directory against root.
func logDir(cfg *config.Config, root string) string {
	if filepath.IsAbs(cfg.LogDir) {
		return cfg.LogDir
	}
	return filepath.Join(root, cfg.LogDir)
}

// openDecisionStore opens the configured decision store. It returns a nil
// repository when the store is disabled.
func openDecisionStore(ctx context.Context, cfg *config.Config) (ports.DecisionRepository, func(), error) {
	if testDBOverride != nil {
		return turso.NewDecisionRepository(testDBOverride), func() {}, nil
	}

	location, err := cfg.AuditDatabase()
	if err != nil {
		return nil, nil, err
	}
	if location == "" {
		return nil, func() {}, nil
	}

	db, err := turso.Open(ctx, location, cfg.Audit.AuthToken)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return turso.NewDecisionRepository(db.DB), func() { _ = db.Close() }, nil
}

// AppContext holds the decision sinks used by the guard.
type AppContext struct {
	Decisions ports.DecisionRepository
	Index     ports.DecisionIndex
	Metrics   ports.MetricsExporter

	closeDB func()
	warnf   func(format string, args ...any)
}

// NewAppContext opens every configured sink. A sink that cannot be opened
// is reported through warnf and left out.
func NewAppContext(ctx context.Context, cfg *config.Config, warnf func(format string, args ...any)) *AppContext {
	app := &AppContext{
		Metrics: otel.NewNoOpExporter(),
		closeDB: func() {},
		warnf:   warnf,
	}

	repo, closeDB, err := openDecisionStore(ctx, cfg)
	if err != nil {
		warnf("decision store unavailable: %v", err)
	} else if repo != nil {
		app.Decisions = repo
		app.closeDB = closeDB
	}

	if cfg.Audit.Meili.URL != "" {
		app.Index = meili.NewDecisionIndex(cfg.Audit.Meili.URL, cfg.Audit.Meili.Key, cfg.Audit.Meili.Index)
	}

	exporter, err := otel.NewExporter(ctx, cfg.Otel)
	switch {
	case err == nil:
		app.Metrics = exporter
	case !errors.Is(err, otel.ErrDisabled):
		warnf("metrics exporter unavailable: %v", err)
	}

	return app
}

// RecordDecision sends rec to every sink. Failures are only reported.
func (a *AppContext) RecordDecision(ctx context.Context, rec *domain.DecisionRecord) {
	// Every sink keys the record by the same ID.
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if a.Decisions != nil {
		if err := a.Decisions.Record(ctx, rec); err != nil {
			a.warnf("failed to record decision: %v", err)
		}
	}
	if a.Index != nil {
		if err := a.Index.Index(ctx, rec); err != nil {
			a.warnf("failed to index decision: %v", err)
		}
	}
	if err := a.Metrics.RecordDecision(ctx, rec); err != nil {
		a.warnf("failed to record decision metric: %v", err)
	}
}

// Close flushes the metrics exporter and closes the decision store.
func (a *AppContext) Close(ctx context.Context) error {
	a.closeDB()
	return a.Metrics.Close(ctx)
}
