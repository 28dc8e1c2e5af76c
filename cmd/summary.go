package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/riskboard/internal/cli"
	"github.com/theirongolddev/riskboard/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Portfolio totals, status mix and directorate breakdown",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	data, err := loadData(cmd.Context())
	if err != nil {
		return err
	}

	if len(data.result.Projects) == 0 {
		fmt.Println("\n  No projects found.")
		fmt.Println("  Add one with `riskboard project add`, or load the demo set with `riskboard seed`.")
		return nil
	}
	if len(data.projects) == 0 {
		fmt.Println("\n  No projects match the selected filters.")
		return nil
	}

	th := data.cfg.Thresholds
	stats := pipeline.AggregatePortfolio(data.projects, th)
	dist := pipeline.Distribution(data.projects, th)

	fmt.Println()
	fmt.Println(cli.RenderTitle("PORTFOLIO" + filterSuffix()))
	fmt.Println()

	rows := [][]string{
		{"Projects", cli.FormatNumber(int64(stats.Total))},
		{"In Progress", cli.FormatNumber(int64(stats.InProgress))},
		{"Completed", cli.FormatNumber(int64(stats.Completed))},
		{"Planning", cli.FormatNumber(int64(stats.Planning))},
		{"Suspended", cli.FormatNumber(int64(stats.Suspended))},
		{"Transferred", cli.FormatNumber(int64(stats.Transferred))},
		{"---"},
		{"CA Value", data.money(stats.TotalCAValue)},
		{"Revenue", data.money(stats.TotalRevenue)},
		{"Expenditure", data.money(stats.TotalExpenditure)},
		{"Profit", data.money(stats.TotalProfit)},
		{"---"},
		{"High Risk", fmt.Sprintf("%d of %d", stats.HighRisk, stats.Total)},
	}
	if dist.Projects > 0 {
		rows = append(rows,
			[]string{"Lag (mean/max)", fmt.Sprintf("%s / %s", cli.FormatPercent(dist.Lag.Mean), cli.FormatPercent(dist.Lag.Max))},
			[]string{"Slippage (mean/max)", fmt.Sprintf("%s / %s", cli.FormatPercent(dist.Slippage.Mean), cli.FormatPercent(dist.Slippage.Max))},
			[]string{"Receivable (mean/max)", fmt.Sprintf("%s / %s", cli.FormatPercent(dist.Receivable.Mean), cli.FormatPercent(dist.Receivable.Max))},
		)
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	dirs := pipeline.AggregateByDirectorate(data.projects, th)
	if len(dirs) > 1 {
		dirRows := make([][]string, 0, len(dirs))
		for _, d := range dirs {
			dirRows = append(dirRows, []string{
				d.Directorate,
				cli.FormatNumber(int64(d.Projects)),
				cli.FormatNumber(int64(d.HighRisk)),
				data.money(d.TotalRevenue),
				cli.FormatPercent(d.SharePercent),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Directorates",
			Headers: []string{"Directorate", "Projects", "High Risk", "Revenue", "Share"},
			Rows:    dirRows,
		}))
	}

	return nil
}
