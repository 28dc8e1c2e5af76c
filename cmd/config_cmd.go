package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/riskboard/internal/config"
	"github.com/theirongolddev/riskboard/internal/model"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := configPath()
	fmt.Printf("  Config file: %s\n", path)
	if flagConfig != "" || config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory: %s\n", cfg.DataDir())
	fmt.Printf("    Database:       %s\n", dbPath(cfg))
	fmt.Printf("    Currency:       %s\n", cfg.General.Currency)
	fmt.Println()

	fmt.Println("  [Thresholds]  low / moderate / high (%)")
	band := func(name string, b model.Band) {
		fmt.Printf("    %-12s %g / %g / %g\n", name+":", b.Low, b.Moderate, b.High)
	}
	band("Lag", cfg.Thresholds.Lag)
	band("Scope creep", cfg.Thresholds.ScopeCreep)
	band("Slippage", cfg.Thresholds.Slippage)
	band("Receivable", cfg.Thresholds.Receivable)
	fmt.Println()

	fmt.Println("  [Budget]")
	fmt.Printf("    Overhead: %g%% of CA value\n", cfg.Budget.OverheadPercent)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:  %s\n", cfg.Log.Level)
	fmt.Printf("    Pretty: %v\n", cfg.Log.Pretty)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSec)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh: %v every %ds\n", cfg.TUI.AutoRefresh, cfg.TUI.RefreshIntervalSec)
	if len(cfg.Expenditure.Aliases) > 0 {
		fmt.Println()
		fmt.Println("  [Expenditure aliases]")
		for alias, head := range cfg.Expenditure.Aliases {
			fmt.Printf("    %s -> %s\n", alias, head)
		}
	}
	fmt.Println()

	fmt.Println("  Run `riskboard setup` to reconfigure.")
	return nil
}
