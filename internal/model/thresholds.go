package model

import "fmt"

// Band is three ascending, inclusive upper bounds (in percent) that split a
// metric into four tiers.
type Band struct {
	Low      float64 `toml:"low" json:"low"`
	Moderate float64 `toml:"moderate" json:"moderate"`
	High     float64 `toml:"high" json:"high"`
}

// Ordered reports whether Low <= Moderate <= High.
func (b Band) Ordered() bool {
	return b.Low <= b.Moderate && b.Moderate <= b.High
}

// KpiThresholds holds the user-adjustable band per classified dimension.
type KpiThresholds struct {
	Lag        Band `toml:"lag" json:"lag"`
	ScopeCreep Band `toml:"scope_creep" json:"scopeCreep"`
	Slippage   Band `toml:"slippage" json:"slippage"`
	Receivable Band `toml:"receivable" json:"receivable"`
}

// DefaultThresholds returns the stock bands.
func DefaultThresholds() KpiThresholds {
	return KpiThresholds{
		Lag:        Band{Low: 5, Moderate: 10, High: 15},
		ScopeCreep: Band{Low: 10, Moderate: 15, High: 25},
		Slippage:   Band{Low: 5, Moderate: 10, High: 15},
		Receivable: Band{Low: 5, Moderate: 10, High: 15},
	}
}

// Validate returns an error naming the first band whose bounds are out of
// order. Classification still works with such bands; callers use this to warn.
func (t KpiThresholds) Validate() error {
	bands := []struct {
		name string
		b    Band
	}{
		{"lag", t.Lag},
		{"scope creep", t.ScopeCreep},
		{"slippage", t.Slippage},
		{"receivable", t.Receivable},
	}
	for _, nb := range bands {
		if !nb.b.Ordered() {
			return fmt.Errorf("%s thresholds not ascending: %g / %g / %g",
				nb.name, nb.b.Low, nb.b.Moderate, nb.b.High)
		}
	}
	return nil
}
