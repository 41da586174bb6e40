package theme

import "github.com/charmbracelet/lipgloss"

// Palette used by the report commands.
var (
	Purple       = lipgloss.Color("#A855F7")
	BrightPurple = lipgloss.Color("#C084FC")

	White   = lipgloss.Color("#FFFFFF")
	DimGray = lipgloss.Color("#6B7280")

	Success = lipgloss.Color("#22C55E")
	Warning = lipgloss.Color("#F59E0B")
	Error   = lipgloss.Color("#EF4444")
	Info    = lipgloss.Color("#3B82F6")
)
