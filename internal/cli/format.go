// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/riskboard/internal/config"
	"github.com/theirongolddev/riskboard/internal/model"
)

var (
	pkrFormatter      = money.NewFormatter(0, ".", ",", "PKR", "$ 1")
	millionsFormatter = money.NewFormatter(2, ".", ",", "Rs", "$ 1 Mn")
	million           = decimal.NewFromInt(1_000_000)
)

// FormatCurrency formats a rupee amount in the given display currency.
// Unknown currencies fall back to whole rupees.
func FormatCurrency(v float64, currency string) string {
	if currency == config.CurrencyRsMn {
		return FormatMillions(v)
	}
	return FormatPKR(v)
}

// FormatPKR formats whole rupees, e.g. 1234567.4 -> "PKR 1,234,567".
func FormatPKR(v float64) string {
	return pkrFormatter.Format(toDecimal(v).Round(0).IntPart())
}

// FormatMillions formats rupees in millions, e.g. 2650000000 -> "Rs 2,650.00 Mn".
func FormatMillions(v float64) string {
	mn := toDecimal(v).Div(million).Round(2).Shift(2)
	return millionsFormatter.Format(mn.IntPart())
}

// FormatCompact formats an amount with a short suffix for cards and charts.
// e.g., 1_250_000 -> "1.2M", 2_650_000_000 -> "2.6B"
func FormatCompact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", v/1_000)
	default:
		return strconv.FormatFloat(math.Round(v), 'f', -1, 64)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a percentage value with two decimals, e.g. 10.2 -> "10.20%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// FormatDelta formats the signed change between two amounts.
func FormatDelta(current, previous float64, currency string) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatCurrency(delta, currency)
	}
	return "-" + FormatCurrency(-delta, currency)
}

// FormatDate formats a ledger date as dd/mm/yyyy. Zero dates render as "-".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02/01/2006")
}

// RiskLabel returns the display text for a risk tier.
func RiskLabel(level model.RiskLevel) string {
	switch level {
	case model.RiskLow:
		return "Low Risk"
	case model.RiskModerate:
		return "Moderate Risk"
	case model.RiskHigh:
		return "High Risk"
	case model.RiskDanger:
		return "Critical Risk"
	case model.RiskRisk:
		return "At Risk"
	default:
		return string(level)
	}
}

func toDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
