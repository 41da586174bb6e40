package cli

import (
	"fmt"
	"strings"

	"github.com/emiliopalmerini/hookguard/internal/audit"
	"github.com/emiliopalmerini/hookguard/internal/domain"
	"github.com/emiliopalmerini/hookguard/internal/session"
	"github.com/emiliopalmerini/hookguard/internal/util"
)

// userPromptSubmit logs the prompt, rejects blocked phrases and runs the
// optional correction and drift checks.
func (h *hookEnv) userPromptSubmit(event *domain.UserPromptSubmitInput, raw []byte) error {
	cfg := h.cfg.Prompt

	if cfg.Log {
		h.appendLog(audit.LogUserPromptSubmit, raw, h.now())
	}

	if phrase, ok := blockedPhrase(event.Prompt, cfg.Blocked); ok {
		fmt.Fprintf(h.stderr, "Prompt blocked: contains blocked phrase %q\n", phrase)
		return blocked()
	}

	if event.SessionID == "" || !(cfg.StoreLastPrompt || cfg.DetectCorrections || cfg.DetectDrift) {
		return nil
	}

	correction := cfg.DetectCorrections && session.IsCorrection(event.Prompt)

	state, err := session.NewStore(h.root).Update(event.SessionID, func(s *session.State) {
		if cfg.StoreLastPrompt {
			s.Prompts = append(s.Prompts, event.Prompt)
		}
		if correction {
			s.CorrectionsCount++
		}
	})
	if err != nil {
		h.warnf("failed to update session state: %v", err)
		return nil
	}

	if correction {
		fmt.Fprintf(h.stderr, "[hookguard] Correction detected (%d this session). Consider recording it as a [LEARN] rule.\n", state.CorrectionsCount)
	}

	if cfg.DetectDrift {
		drift, err := session.NewDriftTracker(util.GetStateTempDir()).Observe(event.SessionID, event.Prompt, state.EditCount)
		if err != nil {
			h.warnf("drift check failed: %v", err)
		} else if drift != nil {
			fmt.Fprintf(h.stderr, "[hookguard] Possible drift: this prompt matches %.0f%% of the session's original goal (%s).\n",
				drift.Relevance, strings.Join(drift.Keywords, ", "))
		}
	}

	return nil
}

// blockedPhrase returns the first configured phrase found in prompt,
// ignoring case.
func blockedPhrase(prompt string, phrases []string) (string, bool) {
	lower := strings.ToLower(prompt)
	for _, p := range phrases {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return p, true
		}
	}
	return "", false
}
