package theme

import (
	"strings"
	"testing"

	"github.com/emiliopalmerini/hookguard/internal/domain"
)

func TestDecision(t *testing.T) {
	s := Default()
	if got := s.Decision(domain.DecisionDeny); !strings.Contains(got, "DENY") {
		t.Errorf("Decision(deny) = %q", got)
	}
	if got := s.Decision(domain.DecisionAllow); !strings.Contains(got, "ALLOW") {
		t.Errorf("Decision(allow) = %q", got)
	}
	if Default() != s {
		t.Error("Default should return the same instance")
	}
}
