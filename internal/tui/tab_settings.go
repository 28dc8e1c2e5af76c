package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/riskboard/internal/cli"
	"github.com/theirongolddev/riskboard/internal/config"
	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/tui/components"
	"github.com/theirongolddev/riskboard/internal/tui/theme"
)

// settingsState tracks the settings tab state.
type settingsState struct {
	saved   bool  // flash "saved" message
	saveErr error // non-nil if last save failed
}

// updateSettingsKey handles settings shortcuts; handled is false for keys it ignores.
func (a App) updateSettingsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "e", "enter":
		a.openSetupForm()
		return a, a.setupForm.Init(), true
	case "t":
		names := theme.Names()
		next := names[0]
		for i, n := range names {
			if n == a.cfg.Appearance.Theme && i+1 < len(names) {
				next = names[i+1]
			}
		}
		a.cfg.Appearance.Theme = next
		theme.SetActive(next)
		a.spinner.Style = a.spinner.Style.Foreground(theme.Active.Accent).Background(theme.Active.Surface)
	case "c":
		if a.cfg.General.Currency == config.CurrencyRsMn {
			a.cfg.General.Currency = config.CurrencyPKR
		} else {
			a.cfg.General.Currency = config.CurrencyRsMn
		}
	default:
		return a, nil, false
	}
	a.settings.saveErr = a.saveConfig()
	a.settings.saved = a.settings.saveErr == nil
	return a, nil, true
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := a.cfg

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	okStyle := lipgloss.NewStyle().Foreground(t.Healthy).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Elevated).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	kv := func(k, v string) string {
		return labelStyle.Render(fmt.Sprintf("%-18s ", k+":")) + valueStyle.Render(v)
	}

	var prefs strings.Builder
	prefs.WriteString(kv("Currency", cfg.General.Currency+"  (e.g. "+cli.FormatCurrency(1_250_000, cfg.General.Currency)+")") + "\n")
	prefs.WriteString(kv("Theme", cfg.Appearance.Theme) + "\n")
	prefs.WriteString(kv("Overhead", fmt.Sprintf("%g%% of CA value", cfg.Budget.OverheadPercent)) + "\n")
	prefs.WriteString(kv("Auto refresh", fmt.Sprintf("%t every %s", a.autoRefresh, a.refreshInterval)) + "\n")

	switch {
	case a.settings.saveErr != nil:
		prefs.WriteString("\n" + warnStyle.Render("Save failed: "+a.settings.saveErr.Error()) + "\n")
	case a.settings.saved:
		prefs.WriteString("\n" + okStyle.Render("Saved!") + "\n")
	}
	prefs.WriteString("\n" + dimStyle.Render("[e] edit all  [t] next theme  [c] toggle currency  [R] auto refresh"))

	// Threshold bands
	th := a.ev.Thresholds()
	bands := []struct {
		name string
		b    model.Band
	}{
		{"Lag", th.Lag},
		{"Scope creep", th.ScopeCreep},
		{"Slippage", th.Slippage},
		{"Receivable", th.Receivable},
	}
	var bandBody strings.Builder
	bandBody.WriteString(headStyle.Render(fmt.Sprintf("%-14s%10s%10s%10s", "", "Low ≤", "Moderate ≤", "High ≤")) + "\n")
	for _, nb := range bands {
		bandBody.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", nb.name)) +
			valueStyle.Render(fmt.Sprintf("%9.1f%%%9.1f%%%9.1f%%", nb.b.Low, nb.b.Moderate, nb.b.High)) + "\n")
	}
	bandBody.WriteString(dimStyle.Render("Values above High are classified as Danger."))

	// General info
	path := a.configPath
	if path == "" {
		path = config.ConfigPath()
	}
	var info strings.Builder
	info.WriteString(kv("Config file", path) + "\n")
	info.WriteString(kv("Database", cfg.DBPath()) + "\n")
	if a.result != nil {
		info.WriteString(kv("Projects loaded", cli.FormatNumber(int64(len(a.result.Projects)))) + "\n")
		info.WriteString(kv("Memo hits", fmt.Sprintf("%d (re-evaluated %d)", a.result.CacheHits, a.result.Reevaluated)) + "\n")
	}
	info.WriteString(kv("Load time", fmt.Sprintf("%.2fs", a.loadTime.Seconds())))
	for _, w := range cfg.Warnings() {
		info.WriteString("\n" + warnStyle.Render("! "+w))
	}

	if a.isCompactLayout() {
		return components.ContentCard("Preferences", prefs.String(), cw) + "\n" +
			components.ContentCard("Risk Thresholds", bandBody.String(), cw) + "\n" +
			components.ContentCard("General", info.String(), cw)
	}

	halves := components.LayoutRow(cw, 2)
	top := components.CardRow([]string{
		components.ContentCard("Preferences", prefs.String(), halves[0]),
		components.ContentCard("Risk Thresholds", bandBody.String(), halves[1]),
	})
	return top + "\n" + components.ContentCard("General", info.String(), cw)
}
