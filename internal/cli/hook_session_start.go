package cli

import (
	"strings"

	"github.com/emiliopalmerini/hookguard/internal/audit"
	"github.com/emiliopalmerini/hookguard/internal/domain"
	"github.com/emiliopalmerini/hookguard/internal/session"
)

// maxLearnings is the number of learnings injected at session start.
const maxLearnings = 10

func (h *hookEnv) sessionStart(event *domain.SessionStartInput, raw []byte) error {
	h.appendLog(audit.LogSessionStart, raw, h.now())

	var parts []string

	if h.cfg.SessionStart.LoadContext {
		dc := session.NewDevContext(h.root)
		dc.Now = h.now
		parts = append(parts, dc.Load(h.ctx, event.Source))
	}

	if h.cfg.SessionStart.LoadLearnings {
		learnings, err := session.NewLearningStore(h.root).Top(h.project(event.Cwd), maxLearnings)
		if err != nil {
			h.warnf("failed to load learnings: %v", err)
		} else if text := session.FormatLearnings(learnings); text != "" {
			parts = append(parts, text)
		}
	}

	// Nothing to add → no output needed
	if len(parts) == 0 {
		return nil
	}

	return h.outputJSON(&HookResponse{
		HookSpecificOutput: &HookSpecificOutput{
			HookEventName:     domain.EventSessionStart,
			AdditionalContext: strings.Join(parts, "\n\n"),
		},
	})
}
