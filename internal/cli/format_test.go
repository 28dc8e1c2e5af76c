package cli

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/theirongolddev/riskboard/internal/config"
	"github.com/theirongolddev/riskboard/internal/model"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		v        float64
		currency string
		want     string
	}{
		{1_234_567.4, config.CurrencyPKR, "PKR 1,234,567"},
		{999, config.CurrencyPKR, "PKR 999"},
		{0, config.CurrencyPKR, "PKR 0"},
		{-1_500, config.CurrencyPKR, "-PKR 1,500"},
		{2_650_000_000, config.CurrencyRsMn, "Rs 2,650.00 Mn"},
		{1_250_000, config.CurrencyRsMn, "Rs 1.25 Mn"},
		{5_000, config.CurrencyRsMn, "Rs 0.01 Mn"},
		{1_000, "EUR", "PKR 1,000"},
		{math.NaN(), config.CurrencyPKR, "PKR 0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(tt.v, tt.currency), "%v %s", tt.v, tt.currency)
	}
}

func TestFormatCompact(t *testing.T) {
	assert.Equal(t, "1.5M", FormatCompact(1_500_000))
	assert.Equal(t, "2.0B", FormatCompact(2_000_000_000))
	assert.Equal(t, "12.5K", FormatCompact(12_500))
	assert.Equal(t, "-3.0M", FormatCompact(-3_000_000))
	assert.Equal(t, "999", FormatCompact(999))
}

func TestFormatNumberAndPercent(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "-1,000", FormatNumber(-1000))
	assert.Equal(t, "12", FormatNumber(12))
	assert.Equal(t, "10.20%", FormatPercent(10.2))
	assert.Equal(t, "-50.00%", FormatPercent(-50))
}

func TestFormatDelta(t *testing.T) {
	assert.Equal(t, "+PKR 500", FormatDelta(1500, 1000, config.CurrencyPKR))
	assert.Equal(t, "-Rs 1.00 Mn", FormatDelta(0, 1_000_000, config.CurrencyRsMn))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "-", FormatDate(time.Time{}))
	d := time.Date(2024, 3, 5, 12, 0, 0, 0, time.Local)
	assert.Equal(t, "05/03/2024", FormatDate(d))
}

func TestRiskLabel(t *testing.T) {
	assert.Equal(t, "Critical Risk", RiskLabel(model.RiskDanger))
	assert.Equal(t, "At Risk", RiskLabel(model.RiskRisk))
	assert.Equal(t, "Excellent", RiskLabel(model.RiskExcellent))
	assert.Equal(t, "Over Budget", RiskLabel(model.RiskOverBudget))
}

func TestRenderTableAlignsStyledCells(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Project", "Slippage"},
		Rows: [][]string{
			{"PROJ-001", RenderRisk(model.RiskHigh)},
			{"---"},
			{"PROJ-002", "Low Risk"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 7)
	for _, l := range lines {
		assert.Equal(t, lipgloss.Width(lines[0]), lipgloss.Width(l), l)
	}
	assert.Contains(t, out, "High Risk")
	assert.Empty(t, RenderTable(Table{}))
}

func TestRenderProgressBar(t *testing.T) {
	assert.Contains(t, RenderProgressBar(50, 10), " 50.0%")
	assert.Contains(t, RenderProgressBar(150, 10), "100.0%")
	assert.Contains(t, RenderProgressBar(-5, 10), "  0.0%")
	assert.Empty(t, RenderProgressBar(50, 0))
}

func TestRenderSparkline(t *testing.T) {
	assert.Equal(t, "▁▄█", RenderSparkline([]float64{0, 50, 100}))
	assert.Equal(t, "▁▁", RenderSparkline([]float64{0, 0}))
	assert.Empty(t, RenderSparkline(nil))
}
