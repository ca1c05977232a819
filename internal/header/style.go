package header

import "github.com/charmbracelet/lipgloss"

var (
	pinnedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "161", Dark: "212"})
	unpinnedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "243"})
)

// Badge is the toggle label for the given pin state.
func Badge(pinned bool) string {
	if pinned {
		return pinnedStyle.Render("● pinned")
	}
	return unpinnedStyle.Render("○ pin")
}
