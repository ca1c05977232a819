// Package render draws the active canvas for terminals.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/dailycanvas/internal/canvasservice"
	"github.com/starford/dailycanvas/internal/header"
	"github.com/starford/dailycanvas/internal/pinstore"
)

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(ac("27", "62"))
	mutedStyle    = lipgloss.NewStyle().Foreground(ac("240", "243"))
	selectedStyle = lipgloss.NewStyle().Foreground(ac("235", "255")).Background(ac("#e9e9e9", "#262626"))
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ac("250", "243")).
			Padding(0, 1)
)

// maxSummary bounds the rendered width of an item summary.
const maxSummary = 48

// Canvas renders c with one row per item. Pin badges are shown only on
// the latest rotation, the same rule the item headers follow.
func Canvas(c *canvasservice.CanvasDetail) string {
	var b strings.Builder
	title := titleStyle.Render(c.Path)
	if c.Latest {
		title += " " + mutedStyle.Render("(latest)")
	}
	b.WriteString(title)
	b.WriteString("\n")

	if len(c.Items) == 0 {
		b.WriteString(mutedStyle.Render("no items"))
	}
	rows := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		row := fmt.Sprintf("%-16s %-5s %s", it.ID, it.Kind, summary(it))
		if c.Latest {
			row = header.Badge(it.Pinned) + "  " + row
		}
		if it.Selected {
			row = selectedStyle.Render(row)
		}
		rows = append(rows, row)
	}
	b.WriteString(strings.Join(rows, "\n"))
	if c.Edges > 0 {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d edges", c.Edges)))
	}
	return boxStyle.Render(b.String())
}

// Settings renders the persisted settings as a short key/value block.
func Settings(st pinstore.Settings) string {
	latest := "none"
	if st.LatestRotationKey != nil {
		latest = *st.LatestRotationKey
	}
	pinned := "none"
	if len(st.PinnedItemIDs) > 0 {
		pinned = strings.Join(st.PinnedItemIDs, ", ")
	}
	lines := []string{
		mutedStyle.Render("folder  ") + st.DailyResourceFolder,
		mutedStyle.Render("latest  ") + latest,
		mutedStyle.Render("pinned  ") + pinned,
	}
	return strings.Join(lines, "\n")
}

func summary(it canvasservice.ItemDetail) string {
	s := it.Text
	switch {
	case it.File != "":
		s = it.File
	case it.URL != "":
		s = it.URL
	case it.Label != "":
		s = it.Label
	}
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxSummary {
		s = string(r[:maxSummary-1]) + "…"
	}
	return s
}
