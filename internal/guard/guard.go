// Package guard decides whether a Claude Code tool call may run.
//
// The guard is a denylist: a fixed set of rules, evaluated in order, each of
// which can deny a tool call. A call that matches no rule is allowed.
//
//   - env-file-access: reading, writing or copying .env secrets
//   - destructive-command: shell commands that wipe databases or delete
//     project directories
//   - critical-file-edit: edits to files the agent must never change
//
// Evaluation is pure; logging and exit statuses belong to the caller.
package guard

import (
	"strings"

	"github.com/emiliopalmerini/hookguard/internal/domain"
)

// Rule identifies the rule that denied a tool call.
type Rule string

const (
	RuleEnvFileAccess      Rule = "env-file-access"
	RuleDestructiveCommand Rule = "destructive-command"
	RuleCriticalFileEdit   Rule = "critical-file-edit"
)

// DefaultEnvAllowSuffixes are .env paths that are safe to touch.
var DefaultEnvAllowSuffixes = []string{".env.example"}

// Request is a single tool invocation to evaluate.
type Request struct {
	ToolName string
	Input    domain.ToolInput
}

// Decision is the outcome of evaluating a Request.
type Decision struct {
	Allowed bool
	Rule    Rule
	Reason  string
	// Subject is the path or command that triggered the rule.
	Subject string
}

// Guard evaluates tool calls against the denylist.
type Guard struct {
	envAllowSuffixes []string
	commands         []Pattern
	paths            []Pattern
}

// Option configures a Guard.
type Option func(*Guard)

// WithEnvAllowSuffixes replaces the list of .env suffixes that are never
// treated as secrets.
func WithEnvAllowSuffixes(suffixes ...string) Option {
	return func(g *Guard) {
		g.envAllowSuffixes = suffixes
	}
}

// WithExtraCommands adds shell command patterns to the destructive denylist.
func WithExtraCommands(patterns ...Pattern) Option {
	return func(g *Guard) {
		g.commands = append(g.commands, patterns...)
	}
}

// WithExtraPaths adds path patterns to the critical file list.
func WithExtraPaths(patterns ...Pattern) Option {
	return func(g *Guard) {
		g.paths = append(g.paths, patterns...)
	}
}

// New creates a Guard with the built-in rules.
func New(opts ...Option) *Guard {
	g := &Guard{
		envAllowSuffixes: DefaultEnvAllowSuffixes,
		commands:         append([]Pattern(nil), destructiveCommands...),
		paths:            append([]Pattern(nil), criticalPaths...),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate applies the rules in order. The first matching rule denies.
func (g *Guard) Evaluate(req Request) Decision {
	if d, denied := g.checkEnvAccess(req); denied {
		return d
	}
	if d, denied := g.checkDestructiveCommand(req); denied {
		return d
	}
	if d, denied := g.checkCriticalEdit(req); denied {
		return d
	}
	return Decision{Allowed: true}
}

func (g *Guard) checkEnvAccess(req Request) (Decision, bool) {
	switch {
	case domain.IsFileTool(req.ToolName):
		path := req.Input.Path()
		if strings.Contains(path, ".env") && !g.envAllowed(path) {
			return deny(RuleEnvFileAccess, "access to .env files containing secrets is prohibited", path), true
		}
	case domain.IsShellTool(req.ToolName):
		if g.commandTouchesEnv(req.Input.Command) {
			return deny(RuleEnvFileAccess, "shell access to .env files containing secrets is prohibited", req.Input.Command), true
		}
	}
	return Decision{}, false
}

func (g *Guard) checkDestructiveCommand(req Request) (Decision, bool) {
	if !domain.IsShellTool(req.ToolName) {
		return Decision{}, false
	}
	for _, p := range g.commands {
		if p.re.MatchString(req.Input.Command) {
			return deny(RuleDestructiveCommand, p.reason, req.Input.Command), true
		}
	}
	return Decision{}, false
}

func (g *Guard) checkCriticalEdit(req Request) (Decision, bool) {
	if !domain.IsWriteTool(req.ToolName) {
		return Decision{}, false
	}
	path := normalizePath(req.Input.Path())
	if path == "" {
		return Decision{}, false
	}
	for _, p := range g.paths {
		if p.re.MatchString(path) {
			return deny(RuleCriticalFileEdit, p.reason, req.Input.Path()), true
		}
	}
	return Decision{}, false
}

func (g *Guard) envAllowed(path string) bool {
	for _, suffix := range g.envAllowSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func deny(rule Rule, reason, subject string) Decision {
	return Decision{
		Allowed: false,
		Rule:    rule,
		Reason:  reason,
		Subject: subject,
	}
}

// normalizePath makes Windows paths comparable with the slash patterns.
func normalizePath(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}
