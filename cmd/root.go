// Package cmd implements the riskboard CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/riskboard/internal/cli"
	"github.com/theirongolddev/riskboard/internal/config"
	"github.com/theirongolddev/riskboard/internal/logging"
	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/pipeline"
	"github.com/theirongolddev/riskboard/internal/store"
)

var (
	flagDirectorate string
	flagStatus      string
	flagCategory    string
	flagDB          string
	flagDataDir     string
	flagConfig      string
	flagCurrency    string
	flagLogLevel    string
	flagQuiet       bool
)

var rootCmd = &cobra.Command{
	Use:   "riskboard",
	Short: "Project KPI & risk assessment",
	Long:  "Track project progress ledgers and flag high-risk projects across a portfolio.",
	RunE:  runSummary,

	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDirectorate, "directorate", "", "Filter to directorate (case-insensitive, All for none)")
	pf.StringVar(&flagStatus, "status", "", "Filter to project status")
	pf.StringVar(&flagCategory, "category", "", "Filter to project category")
	pf.StringVar(&flagDB, "db", "", "Project database path (default <data-dir>/riskboard.db)")
	pf.StringVar(&flagDataDir, "data-dir", "", "Data directory (default ~/.local/share/riskboard)")
	pf.StringVar(&flagConfig, "config", "", "Config file (default ~/.config/riskboard/config.toml)")
	pf.StringVar(&flagCurrency, "currency", "", "Currency format: PKR or RsMn")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if flagConfig != "" {
		cfg, err = config.LoadFrom(flagConfig)
		config.ApplyEnv(&cfg)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}

	if flagDataDir != "" {
		cfg.General.DataDir = flagDataDir
	}
	if flagCurrency != "" {
		cfg.General.Currency = flagCurrency
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	for _, w := range cfg.Warnings() {
		fmt.Fprintf(os.Stderr, "  warning: %s\n", w)
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		cfg.Thresholds = model.DefaultThresholds()
	}
	return cfg, nil
}

// saveConfig writes cfg to --config when given, else the default path.
func saveConfig(cfg config.Config) error {
	if flagConfig != "" {
		return config.SaveTo(flagConfig, cfg)
	}
	return config.Save(cfg)
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.ConfigPath()
}

func dbPath(cfg config.Config) string {
	if flagDB != "" {
		return flagDB
	}
	return cfg.DBPath()
}

// openStore opens the SQLite project store, creating its directory.
func openStore(cfg config.Config) (*store.SQLite, error) {
	path := dbPath(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return store.Open(path)
}

func newLogger(cfg config.Config) zerolog.Logger {
	level := cfg.Log.Level
	if flagQuiet && flagLogLevel == "" {
		level = "warn"
	}
	return logging.New(logging.Config{Level: level, Pretty: cfg.Log.Pretty})
}

// portfolioData is one evaluated, filtered view of the store.
type portfolioData struct {
	cfg      config.Config
	result   *pipeline.LoadResult
	projects []model.Project     // filtered
	ranked   []model.ProjectRisk // filtered, highest score first
}

// loadData is the shared evaluation path used by the reporting commands.
func loadData(ctx context.Context) (*portfolioData, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	progressFn := func(current, total int) {
		if flagQuiet {
			return
		}
		if current%50 == 0 || current == total {
			fmt.Fprintf(os.Stderr, "\r  Evaluating [%d/%d]", current, total)
		}
	}

	ev := pipeline.NewEvaluator(cfg.Thresholds)
	result, err := pipeline.Load(ctx, st, ev, progressFn)
	if err != nil {
		return nil, err
	}
	if !flagQuiet && len(result.Projects) > 0 {
		fmt.Fprintf(os.Stderr, "\r  Evaluated %s projects          \n", cli.FormatNumber(int64(len(result.Projects))))
	}

	data := &portfolioData{cfg: cfg, result: result}
	data.projects = pipeline.Filter(result.Projects, flagDirectorate, flagStatus, flagCategory)
	keep := make(map[string]struct{}, len(data.projects))
	for _, p := range data.projects {
		keep[p.ID] = struct{}{}
	}
	for _, pr := range result.Evaluated {
		if _, ok := keep[pr.ProjectID]; ok {
			data.ranked = append(data.ranked, pr)
		}
	}
	sort.SliceStable(data.ranked, func(i, j int) bool {
		if data.ranked[i].Score != data.ranked[j].Score {
			return data.ranked[i].Score > data.ranked[j].Score
		}
		return data.ranked[i].ProjectID < data.ranked[j].ProjectID
	})
	return data, nil
}

func (d *portfolioData) money(v float64) string {
	return cli.FormatCurrency(v, d.cfg.General.Currency)
}

func filterSuffix() string {
	var s string
	for _, f := range []string{flagDirectorate, flagStatus, flagCategory} {
		if f != "" {
			s += "  " + f
		}
	}
	return s
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
