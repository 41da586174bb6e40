package cli

import (
	"context"
	"time"

	"github.com/emiliopalmerini/hookguard/internal/audit"
	"github.com/emiliopalmerini/hookguard/internal/domain"
	"github.com/emiliopalmerini/hookguard/internal/guard"
)

// preToolUse evaluates the tool call. Allowed calls are appended to the
// pre-tool-use log; denied calls get an advisory and exit status 2. Every
// decision goes to the configured sinks.
func (h *hookEnv) preToolUse(event *domain.PreToolUseInput, raw []byte) error {
	input, err := domain.DecodeToolInput(event.ToolInput)
	if err != nil {
		return h.fail(err)
	}

	opts, err := h.cfg.GuardOptions()
	if err != nil {
		return h.fail(err)
	}

	decision := guard.New(opts...).Evaluate(guard.Request{
		ToolName: event.ToolName,
		Input:    input,
	})
	now := h.now()

	h.recordDecision(event, decision, now)

	if !decision.Allowed {
		guard.WriteAdvisory(h.stderr, event.ToolName, decision)
		return blocked()
	}

	h.appendLog(audit.LogPreToolUse, raw, now)
	return nil
}

func (h *hookEnv) recordDecision(event *domain.PreToolUseInput, d guard.Decision, now time.Time) {
	ctx, cancel := context.WithTimeout(h.ctx, sinkTimeout)
	defer cancel()

	app := NewAppContext(ctx, h.cfg, h.warnf)
	defer func() {
		if err := app.Close(ctx); err != nil {
			h.warnf("failed to flush metrics: %v", err)
		}
	}()

	app.RecordDecision(ctx, decisionRecord(event, d, now))
}

func decisionRecord(event *domain.PreToolUseInput, d guard.Decision, now time.Time) *domain.DecisionRecord {
	rec := &domain.DecisionRecord{
		SessionID: event.SessionID,
		ToolName:  event.ToolName,
		ToolUseID: event.ToolUseID,
		Decision:  domain.DecisionAllow,
		Cwd:       event.Cwd,
		CreatedAt: now,
	}
	if !d.Allowed {
		rec.Decision = domain.DecisionDeny
		rec.Rule = string(d.Rule)
		rec.Reason = d.Reason
		rec.Subject = d.Subject
	}
	return rec
}
