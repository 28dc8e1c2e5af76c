package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/riskboard/internal/cli"
	"github.com/theirongolddev/riskboard/internal/model"
)

var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Show the risk threshold bands",
	RunE:  runThresholdsShow,
}

var thresholdsSetCmd = &cobra.Command{
	Use:   "set <lag|scope-creep|slippage|receivable> <low> <moderate> <high>",
	Short: "Change one metric's threshold band",
	Args:  cobra.ExactArgs(4),
	RunE:  runThresholdsSet,
}

var thresholdsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default threshold bands",
	RunE:  runThresholdsReset,
}

func init() {
	thresholdsCmd.AddCommand(thresholdsSetCmd, thresholdsResetCmd)
	rootCmd.AddCommand(thresholdsCmd)
}

func bandFor(th *model.KpiThresholds, metric string) (*model.Band, error) {
	switch strings.ToLower(strings.NewReplacer("_", "-", " ", "-").Replace(metric)) {
	case "lag":
		return &th.Lag, nil
	case "scope-creep", "scopecreep", "scope":
		return &th.ScopeCreep, nil
	case "slippage":
		return &th.Slippage, nil
	case "receivable", "receivables":
		return &th.Receivable, nil
	}
	return nil, fmt.Errorf("unknown metric %q", metric)
}

func runThresholdsShow(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	th := cfg.Thresholds
	row := func(name string, b model.Band) []string {
		return []string{name, cli.FormatPercent(b.Low), cli.FormatPercent(b.Moderate), cli.FormatPercent(b.High)}
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("RISK THRESHOLDS"))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Low ≤", "Moderate ≤", "High ≤"},
		Rows: [][]string{
			row("Lag", th.Lag),
			row("Scope creep", th.ScopeCreep),
			row("Slippage", th.Slippage),
			row("Receivable", th.Receivable),
		},
	}))
	fmt.Println("  Values above High are classified as Danger.")
	return nil
}

func runThresholdsSet(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	band, err := bandFor(&cfg.Thresholds, args[0])
	if err != nil {
		return err
	}

	var vals [3]float64
	for i, raw := range args[1:] {
		v, err := parseAmountArg("threshold", raw)
		if err != nil {
			return err
		}
		vals[i] = float64(v)
	}
	*band = model.Band{Low: vals[0], Moderate: vals[1], High: vals[2]}
	if err := cfg.Thresholds.Validate(); err != nil {
		return err
	}

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("  %s band set to %g / %g / %g\n", args[0], vals[0], vals[1], vals[2])
	return nil
}

func runThresholdsReset(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Thresholds = model.DefaultThresholds()
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Println("  Thresholds restored to defaults.")
	return nil
}
