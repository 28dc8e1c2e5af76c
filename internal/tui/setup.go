package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/riskboard/internal/config"
	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/tui/theme"
)

// SetupValues backs the setup form. Bands are edited as "low, moderate, high".
type SetupValues struct {
	Currency   string
	Theme      string
	Lag        string
	ScopeCreep string
	Slippage   string
	Receivable string
	Overhead   string
}

// SetupValuesFrom seeds the form from an existing config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	th := cfg.Thresholds
	return SetupValues{
		Currency:   cfg.General.Currency,
		Theme:      cfg.Appearance.Theme,
		Lag:        formatBand(th.Lag),
		ScopeCreep: formatBand(th.ScopeCreep),
		Slippage:   formatBand(th.Slippage),
		Receivable: formatBand(th.Receivable),
		Overhead:   strconv.FormatFloat(cfg.Budget.OverheadPercent, 'f', -1, 64),
	}
}

// Apply validates the values and writes them into cfg.
func (v SetupValues) Apply(cfg *config.Config) error {
	var th model.KpiThresholds
	var err error
	if th.Lag, err = parseBand(v.Lag); err != nil {
		return fmt.Errorf("lag: %w", err)
	}
	if th.ScopeCreep, err = parseBand(v.ScopeCreep); err != nil {
		return fmt.Errorf("scope creep: %w", err)
	}
	if th.Slippage, err = parseBand(v.Slippage); err != nil {
		return fmt.Errorf("slippage: %w", err)
	}
	if th.Receivable, err = parseBand(v.Receivable); err != nil {
		return fmt.Errorf("receivable: %w", err)
	}
	overhead, err := parseOverhead(v.Overhead)
	if err != nil {
		return err
	}

	cfg.Thresholds = th
	cfg.Budget.OverheadPercent = overhead
	if v.Currency != "" {
		cfg.General.Currency = v.Currency
	}
	if v.Theme != "" {
		cfg.Appearance.Theme = v.Theme
	}
	return nil
}

// NewSetupForm builds the settings wizard. projectCount is shown in the
// intro note; pass a negative value to omit it.
func NewSetupForm(projectCount int, vals *SetupValues) *huh.Form {
	intro := "Display and risk threshold preferences."
	if projectCount >= 0 {
		intro = fmt.Sprintf("%d projects loaded. %s", projectCount, intro)
	}

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("riskboard setup").
				Description(intro),
			huh.NewSelect[string]().
				Title("Currency format").
				Options(
					huh.NewOption("PKR 1,250,000", config.CurrencyPKR),
					huh.NewOption("Rs 1.25 Mn", config.CurrencyRsMn),
				).
				Value(&vals.Currency),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
		huh.NewGroup(
			huh.NewNote().
				Title("Risk thresholds").
				Description("Three ascending percentages: low, moderate, high."),
			bandInput("Lag", &vals.Lag),
			bandInput("Scope creep", &vals.ScopeCreep),
			bandInput("Slippage", &vals.Slippage),
			bandInput("Receivable", &vals.Receivable),
			huh.NewInput().
				Title("Overhead percent").
				Placeholder("10").
				Value(&vals.Overhead).
				Validate(func(s string) error {
					_, err := parseOverhead(s)
					return err
				}),
		),
	).WithTheme(huh.ThemeBase16()).WithShowHelp(false)
}

func bandInput(title string, value *string) *huh.Input {
	return huh.NewInput().
		Title(title).
		Placeholder("5, 10, 15").
		Value(value).
		Validate(func(s string) error {
			_, err := parseBand(s)
			return err
		})
}

func formatBand(b model.Band) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return f(b.Low) + ", " + f(b.Moderate) + ", " + f(b.High)
}

// parseBand reads "low, moderate, high". Bounds must be non-negative and ascending.
func parseBand(s string) (model.Band, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	if len(parts) != 3 {
		return model.Band{}, errors.New("enter three numbers, e.g. 5, 10, 15")
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil {
			return model.Band{}, fmt.Errorf("%q is not a number", p)
		}
		if v < 0 {
			return model.Band{}, errors.New("bounds must not be negative")
		}
		vals[i] = v
	}
	b := model.Band{Low: vals[0], Moderate: vals[1], High: vals[2]}
	if !b.Ordered() {
		return model.Band{}, errors.New("bounds must be ascending")
	}
	return b, nil
}

func parseOverhead(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 100 {
		return 0, errors.New("overhead must be between 0 and 100")
	}
	return v, nil
}
