package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/riskboard/internal/pipeline"
	"github.com/theirongolddev/riskboard/internal/tui"
	"github.com/theirongolddev/riskboard/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor so background fills always emit ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	app := tui.NewApp(tui.Options{
		Store:       st,
		Evaluator:   pipeline.NewEvaluator(cfg.Thresholds),
		Config:      cfg,
		ConfigPath:  flagConfig,
		Directorate: flagDirectorate,
		Status:      flagStatus,
		Category:    flagCategory,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
