// Package theme holds the terminal styles of the hookguard report commands.
package theme

import (
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/emiliopalmerini/hookguard/internal/domain"
)

// Styles contains the shared report styles.
type Styles struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Muted       lipgloss.Style
	Bold        lipgloss.Style
	Highlighted lipgloss.Style

	// Status indicators
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
}

var (
	defaultStyles *Styles
	once          sync.Once
)

// Default returns the singleton default Styles instance
func Default() *Styles {
	once.Do(func() {
		defaultStyles = newStyles()
	})
	return defaultStyles
}

func newStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(White),

		Subtitle: lipgloss.NewStyle().
			Foreground(Purple).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(DimGray),

		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(White),

		Highlighted: lipgloss.NewStyle().
			Foreground(BrightPurple).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(Success),

		Warning: lipgloss.NewStyle().
			Foreground(Warning),

		Error: lipgloss.NewStyle().
			Foreground(Error),

		Info: lipgloss.NewStyle().
			Foreground(Info),
	}
}

// Decision renders a guard decision label.
func (s *Styles) Decision(decision string) string {
	if decision == domain.DecisionDeny {
		return s.Error.Render("DENY")
	}
	return s.Success.Render("ALLOW")
}
