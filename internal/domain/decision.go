package domain

import "time"

// Decision values persisted for guard outcomes.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// DecisionRecord is one guard outcome as stored by the audit sinks.
type DecisionRecord struct {
	ID        string
	SessionID string
	ToolName  string
	ToolUseID string
	Decision  string
	Rule      string
	Reason    string
	Subject   string
	Cwd       string
	CreatedAt time.Time
}

// Denied reports whether the tool call was blocked.
func (d *DecisionRecord) Denied() bool {
	return d.Decision == DecisionDeny
}

// DecisionStats summarizes the decision store.
type DecisionStats struct {
	Total   int64
	Allowed int64
	Denied  int64
	ByRule  []RuleCount
}

// RuleCount is the number of denials attributed to one rule.
type RuleCount struct {
	Rule  string
	Count int64
}
