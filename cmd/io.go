package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/riskboard/internal/cli"
	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/pipeline"
	"github.com/theirongolddev/riskboard/internal/source"
	"github.com/theirongolddev/riskboard/internal/store"
)

var (
	flagRecompute       bool
	flagReplace         bool
	flagAdoptThresholds bool
	flagNoThresholds    bool
)

var importCmd = &cobra.Command{
	Use:   "import <file-or-dir>",
	Short: "Import projects from JSON or JSONL files",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export projects to a JSON file (- for stdout)",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demonstration portfolio",
	RunE:  runSeed,
}

func init() {
	importCmd.Flags().BoolVar(&flagRecompute, "recompute", false, "Rebuild ledger calculations from the month figures")
	importCmd.Flags().BoolVar(&flagReplace, "replace", false, "Update projects that already exist")
	importCmd.Flags().BoolVar(&flagAdoptThresholds, "adopt-thresholds", false, "Save thresholds carried by the file to the config")
	exportCmd.Flags().BoolVar(&flagNoThresholds, "no-thresholds", false, "Omit the active thresholds from the export")
	seedCmd.Flags().BoolVar(&flagReplace, "replace", false, "Overwrite sample projects that already exist")

	rootCmd.AddCommand(importCmd, exportCmd, seedCmd)
}

type importStats struct {
	added, updated, skipped int
}

// storeProjects appends each project, replacing or skipping ones that exist.
func storeProjects(ctx context.Context, st store.Store, projects []model.Project, replace bool) (importStats, error) {
	var s importStats
	for _, p := range projects {
		err := st.Append(ctx, p)
		switch {
		case err == nil:
			s.added++
		case errors.Is(err, store.ErrExists) && replace:
			if err := st.Replace(ctx, p); err != nil {
				return s, err
			}
			s.updated++
		case errors.Is(err, store.ErrExists):
			s.skipped++
		default:
			return s, err
		}
	}
	return s, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	files, err := source.ScanDir(args[0])
	if err != nil {
		return fmt.Errorf("scanning %s: %w", args[0], err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no .json or .jsonl files under %s", args[0])
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	log := newLogger(cfg)

	var (
		total      importStats
		parseErrs  int
		thresholds *model.KpiThresholds
	)
	for _, path := range files {
		res := source.ParseFile(path, source.Options{Recompute: flagRecompute})
		if res.Err != nil {
			log.Warn().Err(res.Err).Str("file", path).Msg("skipping unreadable file")
			fmt.Fprintf(os.Stderr, "  warning: %s: %v\n", path, res.Err)
			continue
		}
		for _, w := range res.Warnings {
			log.Debug().Str("file", path).Msg(w)
		}
		parseErrs += res.ParseErrors
		if res.Thresholds != nil {
			thresholds = res.Thresholds
		}

		s, err := storeProjects(cmd.Context(), st, res.Projects, flagReplace)
		total.added += s.added
		total.updated += s.updated
		total.skipped += s.skipped
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
		log.Info().Str("file", path).Int("projects", len(res.Projects)).Int("warnings", len(res.Warnings)).Msg("imported")
	}

	fmt.Printf("  Imported %d files: %d added, %d updated, %d skipped", len(files), total.added, total.updated, total.skipped)
	if parseErrs > 0 {
		fmt.Printf(", %d unreadable records", parseErrs)
	}
	fmt.Println()
	if total.skipped > 0 && !flagReplace {
		fmt.Println("  Existing projects were left alone; pass --replace to update them.")
	}

	if thresholds != nil && flagAdoptThresholds {
		if err := thresholds.Validate(); err != nil {
			return fmt.Errorf("file thresholds: %w", err)
		}
		cfg.Thresholds = *thresholds
		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("  Thresholds saved to %s\n", configPath())
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	projects, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	projects = pipeline.Filter(projects, flagDirectorate, flagStatus, flagCategory)

	var th *model.KpiThresholds
	if !flagNoThresholds {
		th = &cfg.Thresholds
	}

	if args[0] == "-" {
		return source.Export(os.Stdout, projects, th, cfg.General.Currency)
	}
	if err := source.ExportFile(args[0], projects, th, cfg.General.Currency); err != nil {
		return err
	}
	fmt.Printf("  Exported %s projects to %s\n", cli.FormatNumber(int64(len(projects))), args[0])
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	res := source.SampleProjects()
	if res.Err != nil {
		return res.Err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := storeProjects(cmd.Context(), st, res.Projects, flagReplace)
	if err != nil {
		return err
	}
	fmt.Printf("  Sample portfolio: %d added, %d updated, %d already present\n", s.added, s.updated, s.skipped)
	fmt.Printf("  Database: %s\n", dbPath(cfg))
	return nil
}
