package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/emiliopalmerini/hookguard/internal/audit"
	"github.com/emiliopalmerini/hookguard/internal/domain"
	"github.com/emiliopalmerini/hookguard/internal/parser"
	"github.com/emiliopalmerini/hookguard/internal/session"
)

// learnScanLines is how many trailing transcript lines are searched for
// learn tags.
const learnScanLines = 50

func (h *hookEnv) stop(event *domain.StopInput, raw []byte) {
	now := h.now()
	h.appendLog(audit.LogStop, raw, now)

	// Prevent infinite loop: if this stop hook triggered another stop, only log it
	if event.StopHookActive {
		return
	}

	if h.cfg.Stop.Chat {
		dst := filepath.Join(h.logDir(), session.ChatFile)
		if err := session.ExportChat(event.TranscriptPath, dst); err != nil {
			h.warnf("failed to export chat: %v", err)
		}
	}

	if h.cfg.Stop.LearnCapture && event.TranscriptPath != "" {
		h.captureLearnings(event, now)
	}

	if h.cfg.Stop.SessionCheck && event.SessionID != "" {
		state, err := session.NewStore(h.root).Update(event.SessionID, func(s *session.State) {
			s.ResponseCount++
		})
		if err != nil {
			h.warnf("failed to update session state: %v", err)
		} else if session.ShouldRemind(state.ResponseCount) {
			fmt.Fprintf(h.stderr, "[hookguard] %d responses this session. Consider wrapping up and capturing learnings.\n", state.ResponseCount)
		}
	}
}

func (h *hookEnv) captureLearnings(event *domain.StopInput, now time.Time) {
	text, err := parser.AssistantText(event.TranscriptPath, learnScanLines)
	if err != nil {
		h.warnf("failed to read transcript: %v", err)
		return
	}

	tags := session.ParseLearnTags(text)
	if len(tags) == 0 {
		return
	}

	added, err := session.NewLearningStore(h.root).Capture(tags, h.project(event.Cwd), now)
	if err != nil {
		h.warnf("failed to capture learnings: %v", err)
		return
	}
	if added > 0 {
		fmt.Fprintf(h.stderr, "[hookguard] Captured %d new learnings.\n", added)
	}
}
