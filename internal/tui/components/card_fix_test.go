package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/tui/theme"
)

func init() {
	// ANSI codes are only emitted with a colour profile.
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	require.Less(t, shortLines, tallLines)

	lines := strings.Split(CardRow([]string{tallCard, shortCard}), "\n")
	require.Len(t, lines, tallLines)

	for i := shortLines; i < len(lines); i++ {
		assert.Contains(t, lines[i], "\x1b[", "padding line %d has no styling", i)
	}
}

func TestCardRowWidthConsistency(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "A", 30)
	tallCard := ContentCard("Tall", "A\nB\nC\nD\nE\nF", 20)

	lines := strings.Split(CardRow([]string{tallCard, shortCard}), "\n")
	require.Len(t, lines, lipgloss.Height(tallCard))
	for i, line := range lines {
		assert.Equal(t, 50, lipgloss.Width(line), "line %d", i)
	}
}

func TestLayoutRow(t *testing.T) {
	assert.Equal(t, []int{4, 3, 3}, LayoutRow(10, 3))
	assert.Nil(t, LayoutRow(10, 0))
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Projects", Value: "10"},
		{Label: "High risk", Value: "9", Delta: "+1", Color: theme.Active.Critical},
		{Label: "Profit", Value: "Rs 12.00 Mn"},
	}, 61)
	for _, line := range strings.Split(row, "\n") {
		assert.Equal(t, 61, lipgloss.Width(line))
	}
}

func TestThresholdBar(t *testing.T) {
	band := model.Band{Low: 5, Moderate: 10, High: 20}
	bar := ThresholdBar("Lag", 12.5, band, model.RiskHigh, 6, 20)
	assert.Contains(t, bar, "12.50%")
	assert.Contains(t, bar, "High Risk")

	empty := ThresholdBar("Lag", -4, band, model.RiskLow, 6, 20)
	assert.Contains(t, empty, "-4.00%")
}

func TestTabNavigation(t *testing.T) {
	assert.Equal(t, 0, TabIdxByKey('o'))
	assert.Equal(t, 3, TabIdxByKey('x'))
	assert.Equal(t, -1, TabIdxByKey('z'))

	// " Overview  [P]rojects"
	assert.Equal(t, 0, TabAt(1, 0))
	assert.Equal(t, -1, TabAt(9, 0))
	assert.Equal(t, 1, TabAt(11, 0))
	assert.Equal(t, "Settings[x]", stripANSI(renderTab(Tabs[3], false)))
	assert.Equal(t, len("Settings[x]"), TabVisualWidth(3, false))
}

func TestStatusBarWidth(t *testing.T) {
	bar := RenderStatusBar(80, StatusInfo{DataAge: "5s", HighRisk: 3, AutoRefresh: true})
	assert.Equal(t, 80, lipgloss.Width(bar))
	assert.Contains(t, bar, "3 high risk")
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && r == 'm':
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
