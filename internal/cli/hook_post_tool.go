package cli

import (
	"path/filepath"

	"github.com/emiliopalmerini/hookguard/internal/domain"
	"github.com/emiliopalmerini/hookguard/internal/scan"
	"github.com/emiliopalmerini/hookguard/internal/session"
)

// postToolUse scans files written by the agent and reports leftovers on
// stderr. It never blocks.
func (h *hookEnv) postToolUse(event *domain.PostToolUseInput) {
	if !domain.IsWriteTool(event.ToolName) {
		return
	}

	if h.cfg.Prompt.DetectDrift && event.SessionID != "" {
		if _, err := session.NewStore(h.root).Update(event.SessionID, func(s *session.State) {
			s.EditCount++
		}); err != nil {
			h.warnf("failed to update session state: %v", err)
		}
	}

	input, err := domain.DecodeToolInput(event.ToolInput)
	if err != nil {
		h.warnf("%v", err)
		return
	}

	path := input.Path()
	if path == "" {
		return
	}
	if !filepath.IsAbs(path) {
		base := event.Cwd
		if base == "" {
			base = h.root
		}
		path = filepath.Join(base, path)
	}

	issues, err := scan.File(path)
	if err != nil {
		h.warnf("%v", err)
		return
	}
	scan.Report(h.stderr, path, issues)
}
