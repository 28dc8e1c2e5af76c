package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/riskboard/internal/cli"
	"github.com/theirongolddev/riskboard/internal/pipeline"
)

var (
	flagReportRaw   bool
	flagReportTop   int
	flagReportWidth int
	flagReportStyle string
	flagReportOut   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Executive risk report in markdown",
	RunE:  runReport,
}

func init() {
	f := reportCmd.Flags()
	f.BoolVar(&flagReportRaw, "raw", false, "Print markdown source instead of rendering it")
	f.IntVar(&flagReportTop, "top", 5, "High-risk projects to detail (0 for all)")
	f.IntVar(&flagReportWidth, "width", 100, "Wrap width for rendered output")
	f.StringVar(&flagReportStyle, "style", "auto", "Render style: auto, dark, light, notty")
	f.StringVarP(&flagReportOut, "output", "o", "", "Write markdown to a file")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, _ []string) error {
	data, err := loadData(cmd.Context())
	if err != nil {
		return err
	}
	th := data.cfg.Thresholds

	md := cli.BuildReport(cli.Report{
		Title:        "Portfolio Risk Report" + filterSuffix(),
		Generated:    time.Now(),
		Currency:     data.cfg.General.Currency,
		Stats:        pipeline.AggregatePortfolio(data.projects, th),
		Ranked:       data.ranked,
		Directorates: pipeline.AggregateByDirectorate(data.projects, th),
		Distribution: pipeline.Distribution(data.projects, th),
		Top:          flagReportTop,
	})

	if flagReportOut != "" {
		if err := os.WriteFile(flagReportOut, []byte(md), 0o600); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("  Report written to %s\n", flagReportOut)
		return nil
	}
	if flagReportRaw {
		fmt.Print(md)
		return nil
	}

	out, err := cli.RenderMarkdown(md, flagReportWidth, flagReportStyle)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
