package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/riskboard/internal/tui/theme"
)

// StatusInfo is what the bottom bar reports besides the key hints.
type StatusInfo struct {
	DataAge     string
	Refreshing  bool
	AutoRefresh bool
	HighRisk    int
	Filter      string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, info StatusInfo) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	alert := lipgloss.NewStyle().Foreground(t.Critical).Background(t.Surface).Bold(true)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	left := base.Render(" [?]help  [r]efresh  [q]uit")
	if info.Filter != "" {
		left += base.Render("  ") + accent.Render("filter: "+info.Filter)
	}

	var right []string
	if info.HighRisk > 0 {
		right = append(right, alert.Render(fmt.Sprintf("%d high risk", info.HighRisk)))
	}
	switch {
	case info.Refreshing:
		right = append(right, accent.Render("refreshing..."))
	case info.DataAge != "":
		right = append(right, base.Render("data: "+info.DataAge))
	}
	if info.AutoRefresh {
		right = append(right, accent.Render("auto"))
	}
	rightStr := strings.Join(right, base.Render("  ")) + base.Render(" ")

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(rightStr))
	return left + base.Render(strings.Repeat(" ", padding)) + rightStr
}
