package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/riskboard/internal/tui/theme"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name (-1 if not in name)
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o', KeyPos: 0},
	{Name: "Projects", Key: 'p', KeyPos: 0},
	{Name: "Directorates", Key: 'd', KeyPos: 0},
	{Name: "Settings", Key: 'x', KeyPos: -1},
}

const tabSeparator = "  "

// renderTab renders one tab label, highlighting its shortcut when inactive.
func renderTab(tab Tab, active bool) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceHover).Bold(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	dimKeyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	if active {
		return activeStyle.Render(tab.Name)
	}
	if tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name) {
		return inactiveStyle.Render(tab.Name[:tab.KeyPos]) +
			dimKeyStyle.Render("[") + keyStyle.Render(tab.Name[tab.KeyPos:tab.KeyPos+1]) + dimKeyStyle.Render("]") +
			inactiveStyle.Render(tab.Name[tab.KeyPos+1:])
	}
	return inactiveStyle.Render(tab.Name) +
		dimKeyStyle.Render("[") + keyStyle.Render(string(tab.Key)) + dimKeyStyle.Render("]")
}

// RenderTabBar renders the tab bar with the given active index on one row.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active
	fill := lipgloss.NewStyle().Background(t.Surface)

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		parts[i] = renderTab(tab, i == activeIdx)
	}
	row := fill.Render(" ") + strings.Join(parts, fill.Render(tabSeparator))
	if pad := width - lipgloss.Width(row); pad > 0 {
		row += fill.Render(strings.Repeat(" ", pad))
	}
	return row
}

// TabVisualWidth returns the rendered width of tab i, bracket hints included.
func TabVisualWidth(i int, active bool) int {
	tab := Tabs[i]
	w := len(tab.Name)
	if !active {
		w += 2
		if tab.KeyPos < 0 {
			w++
		}
	}
	return w
}

// TabAt maps an x position on the tab bar to a tab index, or -1.
func TabAt(x, activeIdx int) int {
	pos := 1
	for i := range Tabs {
		w := TabVisualWidth(i, i == activeIdx)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + len(tabSeparator)
	}
	return -1
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
