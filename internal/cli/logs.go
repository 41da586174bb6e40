package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/hookguard/internal/audit"
)

func newLogsCmd(opts *globalOptions) *cobra.Command {
	var (
		event  string
		limit  int
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print event log entries",
		Long: `Prints the most recent entries of an event log, one JSON object per line.
With --follow, new entries are printed as hooks append them (JSONL logs only).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, root, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}

			format := cfg.Format()
			if follow && format != audit.FormatJSONL {
				return errors.New("--follow requires the jsonl log format")
			}

			path := audit.NewLog(logDir(cfg, root), event, format).Path()
			entries, err := audit.ReadEntries(path)
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			out := cmd.OutOrStdout()
			if err := printEntries(out, entries); err != nil {
				return err
			}
			if !follow {
				return nil
			}

			var offset int64
			if info, err := os.Stat(path); err == nil {
				offset = info.Size()
			}
			return followLog(cmd.Context(), path, offset, out)
		},
	}

	cmd.Flags().StringVar(&event, "event", audit.LogPreToolUse, "event log to read (pre_tool_use, user_prompt_submit, session_start, stop)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to print (0 for all)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing new entries")
	return cmd
}

func printEntries(w io.Writer, entries []json.RawMessage) error {
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, string(e)); err != nil {
			return err
		}
	}
	return nil
}

// followLog prints entries appended to path after offset until ctx is done.
// The directory is watched so a log created later is picked up too.
func followLog(ctx context.Context, path string, offset int64, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	// Catch anything written between the initial read and the watch.
	if offset, err = printFrom(w, path, offset); err != nil {
		return err
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if offset, err = printFrom(w, path, offset); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
}

func printFrom(w io.Writer, path string, offset int64) (int64, error) {
	entries, next, err := audit.ReadFrom(path, offset)
	if err != nil {
		return offset, err
	}
	return next, printEntries(w, entries)
}
