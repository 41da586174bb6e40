package guard

import (
	"fmt"
	"io"
)

var ruleHints = map[Rule]string{
	RuleEnvFileAccess:      "Secrets stay out of the agent's context. Use .env.example as a template instead.",
	RuleDestructiveCommand: "This command can irreversibly delete data. If it is really intended, run it manually outside the agent.",
	RuleCriticalFileEdit:   "This file is protected from automated edits. Ask the user to change it by hand.",
}

// WriteAdvisory writes the message shown to the agent when a tool call is
// blocked.
func WriteAdvisory(w io.Writer, toolName string, d Decision) {
	fmt.Fprintf(w, "BLOCKED by hookguard: %s\n", d.Reason)
	fmt.Fprintf(w, "  rule:    %s\n", d.Rule)
	fmt.Fprintf(w, "  tool:    %s\n", toolName)
	if d.Subject != "" {
		fmt.Fprintf(w, "  subject: %s\n", d.Subject)
	}
	if hint, ok := ruleHints[d.Rule]; ok {
		fmt.Fprintln(w, hint)
	}
}
