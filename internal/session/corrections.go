package session

import (
	"regexp"
	"strings"
)

var correctionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:wrong|incorrect|mistake|messed up)\b`),
	regexp.MustCompile(`\b(?:undo|revert|rollback|go back)\b`),
	regexp.MustCompile(`\b(?:wait|stop|hold on|no no)\b`),
	regexp.MustCompile(`\b(?:actually|instead|rather|not what i)\b`),
	regexp.MustCompile(`\b(?:that's not|that was not|that isn't)\b`),
	regexp.MustCompile(`\b(?:fix that|fix this|redo|try again)\b`),
}

// IsCorrection reports whether a prompt reads like the user correcting the
// agent.
func IsCorrection(prompt string) bool {
	lower := strings.ToLower(prompt)
	for _, p := range correctionPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}
