package tui

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/riskboard/internal/config"
	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/pipeline"
	"github.com/theirongolddev/riskboard/internal/source"
	"github.com/theirongolddev/riskboard/internal/store"
	"github.com/theirongolddev/riskboard/internal/tui/components"
)

func loadedApp(t *testing.T) App {
	t.Helper()
	res := source.SampleProjects()
	require.NoError(t, res.Err)
	mem := store.NewMemory(res.Projects...)

	cfg := config.DefaultConfig()
	ev := pipeline.NewEvaluator(cfg.Thresholds)
	a := NewApp(Options{
		Store:      mem,
		Evaluator:  ev,
		Config:     cfg,
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
	})

	loaded, err := pipeline.Load(context.Background(), mem, ev, nil)
	require.NoError(t, err)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 140, Height: 45})
	m, _ = m.(App).Update(DataLoadedMsg{Result: loaded})
	return m.(App)
}

func press(t *testing.T, a App, keys ...tea.KeyMsg) App {
	t.Helper()
	for _, k := range keys {
		m, _ := a.Update(k)
		a = m.(App)
	}
	return a
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 1 // leading space
		for i := range components.Tabs {
			w := components.TabVisualWidth(i, i == active)
			assert.Equal(t, i, a.tabAtX(pos+w/2), "active=%d tab=%d", active, i)
			pos += w + 2
		}
	}
}

func TestLoadedAppRanksProjects(t *testing.T) {
	a := loadedApp(t)

	assert.False(t, a.needSetup)
	assert.Equal(t, 10, a.stats.Total)
	assert.Equal(t, 9, a.stats.HighRisk)
	require.Len(t, a.ranked, 10)
	for i := 1; i < len(a.ranked); i++ {
		assert.GreaterOrEqual(t, a.ranked[i-1].Score, a.ranked[i].Score)
	}
	for _, pr := range a.ranked {
		assert.Equal(t, pr.ProjectID != "PROJ-005", pr.Risk.IsHighRisk, pr.ProjectID)
	}
}

func TestDirectorateFilterCycle(t *testing.T) {
	a := loadedApp(t)
	assert.Equal(t, []string{"Baluchistan", "Centre", "KPK", "North", "Sindh"}, a.directorateChoices())

	a = press(t, a, runeKey('f'))
	assert.Equal(t, "Baluchistan", a.directorate)
	assert.Len(t, a.ranked, 2)
	assert.Equal(t, "Baluchistan", a.filterLabel())

	a = press(t, a, runeKey('f'))
	assert.Equal(t, "Centre", a.directorate)
	assert.Len(t, a.ranked, 3)

	a = press(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, a.directorate)
	assert.Len(t, a.ranked, 10)
}

func TestTabKeysAndProjectNavigation(t *testing.T) {
	a := loadedApp(t)

	a = press(t, a, runeKey('p'))
	assert.Equal(t, tabProjects, a.activeTab)

	a = press(t, a, runeKey('j'), runeKey('j'), tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, a.proj.cursor)

	a = press(t, a, runeKey('G'))
	assert.Equal(t, 9, a.proj.cursor)
	a = press(t, a, runeKey('j'))
	assert.Equal(t, 9, a.proj.cursor)

	a = press(t, a, runeKey('J'), runeKey('J'))
	assert.Equal(t, 2, a.proj.detailScroll)
	a = press(t, a, runeKey('g'))
	assert.Zero(t, a.proj.cursor)
	assert.Zero(t, a.proj.detailScroll)

	a = press(t, a, runeKey('d'))
	assert.Equal(t, tabDirectorates, a.activeTab)
	a = press(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, tabProjects, a.activeTab)
	assert.Equal(t, a.dirs[0].Directorate, a.directorate)

	a = press(t, a, runeKey('x'))
	assert.Equal(t, tabSettings, a.activeTab)
	a = press(t, a, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, tabDirectorates, a.activeTab)
}

func TestMouseWheelAndTabClick(t *testing.T) {
	a := loadedApp(t)
	a.activeTab = tabProjects

	m, _ := a.Update(tea.MouseMsg{Button: tea.MouseButtonWheelDown})
	a = m.(App)
	assert.Equal(t, 1, a.proj.cursor)

	x := 1 + components.TabVisualWidth(0, false) + 2 + components.TabVisualWidth(1, true) + 2 + 1
	m, _ = a.Update(tea.MouseMsg{X: x, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	a = m.(App)
	assert.Equal(t, tabDirectorates, a.activeTab)
}

func TestSettingsToggleCurrencySaves(t *testing.T) {
	a := loadedApp(t)
	a = press(t, a, runeKey('x'), runeKey('c'))

	assert.Equal(t, config.CurrencyRsMn, a.cfg.General.Currency)
	require.NoError(t, a.settings.saveErr)
	assert.True(t, a.settings.saved)

	saved, err := config.LoadFrom(a.configPath)
	require.NoError(t, err)
	assert.Equal(t, config.CurrencyRsMn, saved.General.Currency)
}

func TestViewsRender(t *testing.T) {
	a := loadedApp(t)
	for _, key := range []rune{'o', 'p', 'd', 'x'} {
		a = press(t, a, runeKey(key))
		view := a.View()
		assert.NotEmpty(t, view)
		assert.Contains(t, view, "Settings", "tab %q", key)
	}

	a = press(t, a, runeKey('p'))
	assert.Contains(t, a.View(), a.ranked[0].ProjectID)
	a = press(t, a, runeKey('?'))
	assert.Contains(t, a.View(), "Keyboard Shortcuts")
}

func TestSettingsTabRendersGeneralInfo(t *testing.T) {
	a := loadedApp(t)
	out := stripANSI(a.renderSettingsTab(120))

	assert.Contains(t, out, "Memo hits")
	assert.Contains(t, out, "Projects loaded")
	assert.Contains(t, out, "config.toml")
	assert.Contains(t, out, "Values above High are classified as Danger.")
}

func TestViewTooNarrow(t *testing.T) {
	a := loadedApp(t)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.Contains(t, m.(App).View(), "Terminal too narrow")
}

func TestParseBand(t *testing.T) {
	b, err := parseBand("5, 10, 15")
	require.NoError(t, err)
	assert.Equal(t, model.Band{Low: 5, Moderate: 10, High: 15}, b)

	b, err = parseBand("2.5% 7.5% 12")
	require.NoError(t, err)
	assert.Equal(t, model.Band{Low: 2.5, Moderate: 7.5, High: 12}, b)

	for _, bad := range []string{"", "5, 10", "5, x, 15", "15, 10, 5", "-1, 2, 3"} {
		_, err := parseBand(bad)
		assert.Error(t, err, bad)
	}
}

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	vals := SetupValuesFrom(cfg)
	assert.Equal(t, "5, 10, 15", vals.Lag)

	vals.Lag = "10, 20, 30"
	vals.Currency = config.CurrencyRsMn
	vals.Overhead = "12.5%"
	require.NoError(t, vals.Apply(&cfg))
	assert.Equal(t, model.Band{Low: 10, Moderate: 20, High: 30}, cfg.Thresholds.Lag)
	assert.Equal(t, config.CurrencyRsMn, cfg.General.Currency)
	assert.InDelta(t, 12.5, cfg.Budget.OverheadPercent, 1e-9)

	vals.Slippage = "3, 2, 1"
	before := cfg
	require.Error(t, vals.Apply(&cfg))
	assert.Equal(t, before, cfg)
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
