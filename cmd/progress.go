package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/riskboard/internal/cli"
	"github.com/theirongolddev/riskboard/internal/config"
	"github.com/theirongolddev/riskboard/internal/ledger"
	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/pipeline"
)

var (
	flagWorkDone     string
	flagEscalation   string
	flagVetted       string
	flagReceived     string
	flagPrevWorkDone string
	flagPrevEsc      string
	flagPrevVetted   string
	flagPrevReceived string
	flagFromLedger   bool
	flagExpenditures []string
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Record and inspect monthly progress",
}

var progressAddCmd = &cobra.Command{
	Use:   "add <project-id>",
	Short: "Append a monthly progress entry to a project's ledger",
	Long: `Append a monthly progress entry. Cumulative figures are derived from the
previous month's balance, which is read from the ledger unless --from-ledger=false
and the --prev-* flags are given.

Expenditures are given as --exp "Head=amount" and may use short head names
such as material, hiring or admin.`,
	Args: cobra.ExactArgs(1),
	RunE: runProgressAdd,
}

var progressHistoryCmd = &cobra.Command{
	Use:   "history <project-id>",
	Short: "Show a project's progress ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgressHistory,
}

func init() {
	f := progressAddCmd.Flags()
	f.StringVar(&flagWorkDone, "work-done", "0", "Work done this month")
	f.StringVar(&flagEscalation, "escalation", "0", "Escalation percent this month")
	f.StringVar(&flagVetted, "vetted", "0", "Revenue vetted this month")
	f.StringVar(&flagReceived, "received", "0", "Amount received this month")
	f.BoolVar(&flagFromLedger, "from-ledger", true, "Take the previous month's balance from the ledger")
	f.StringVar(&flagPrevWorkDone, "prev-work-done", "0", "Previous cumulative work done")
	f.StringVar(&flagPrevEsc, "prev-escalation", "0", "Previous escalation percent")
	f.StringVar(&flagPrevVetted, "prev-vetted", "0", "Previous cumulative vetted revenue")
	f.StringVar(&flagPrevReceived, "prev-received", "0", "Previous cumulative amount received")
	f.StringArrayVar(&flagExpenditures, "exp", nil, `Expenditure as "Head=amount" (repeatable)`)

	progressCmd.AddCommand(progressAddCmd, progressHistoryCmd)
	rootCmd.AddCommand(progressCmd)
}

// parseExpenditures turns repeated Head=amount flags into a head map.
// Repeated heads are summed.
func parseExpenditures(cfg config.Config, raw []string) (map[string]model.Amount, error) {
	out := make(map[string]model.Amount, len(raw))
	for _, kv := range raw {
		head, amount, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(head) == "" {
			return nil, fmt.Errorf("expenditure %q: want Head=amount", kv)
		}
		v, err := parseAmountArg(head, amount)
		if err != nil {
			return nil, err
		}
		if v < 0 {
			return nil, fmt.Errorf("expenditure %q must not be negative", head)
		}
		out[config.NormalizeHead(cfg, head)] += v
	}
	return out, nil
}

var prevFlagNames = []string{"prev-work-done", "prev-escalation", "prev-vetted", "prev-received"}

// prevFlagsSet returns the --prev-* flags the user supplied.
func prevFlagsSet(changed func(name string) bool) []string {
	var set []string
	for _, name := range prevFlagNames {
		if changed(name) {
			set = append(set, name)
		}
	}
	return set
}

func parseMonthFlags(names, raws []string) ([]model.Amount, error) {
	vals := make([]model.Amount, len(raws))
	for i, raw := range raws {
		v, err := parseAmountArg(names[i], raw)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func runProgressAdd(cmd *cobra.Command, args []string) error {
	if set := prevFlagsSet(cmd.Flags().Changed); flagFromLedger && len(set) > 0 {
		return fmt.Errorf("--%s given but the previous month comes from the ledger; pass --from-ledger=false",
			strings.Join(set, ", --"))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cur, err := parseMonthFlags(
		[]string{"work-done", "escalation", "vetted", "received"},
		[]string{flagWorkDone, flagEscalation, flagVetted, flagReceived})
	if err != nil {
		return err
	}
	current := model.CurrentMonth{
		WorkDone:             cur[0],
		EscalationPercentage: cur[1],
		VettedRevenue:        cur[2],
		AmountReceived:       cur[3],
	}

	var given model.PreviousMonth
	if !flagFromLedger {
		prev, err := parseMonthFlags(
			prevFlagNames,
			[]string{flagPrevWorkDone, flagPrevEsc, flagPrevVetted, flagPrevReceived})
		if err != nil {
			return err
		}
		given = model.PreviousMonth{
			ActualWorkDone:       prev[0],
			EscalationPercentage: prev[1],
			VettedRevenue:        prev[2],
			AmountReceived:       prev[3],
		}
	}

	exp, err := parseExpenditures(cfg, flagExpenditures)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	log := newLogger(cfg)

	entry, err := st.AppendProgress(cmd.Context(), args[0], func(p model.Project) (model.ProgressEntry, error) {
		prev := given
		if flagFromLedger {
			prev = ledger.PreviousFromLedger(p)
		} else if err := ledger.Verify(p, prev); err != nil {
			if !errors.Is(err, ledger.ErrPreviousMismatch) {
				return model.ProgressEntry{}, err
			}
			log.Warn().Err(err).Str("project", p.ID).Msg("previous month disagrees with ledger")
			fmt.Fprintf(os.Stderr, "  warning: %v\n", err)
		}
		return ledger.Build(prev, current, exp), nil
	})
	if err != nil {
		return err
	}

	c := entry.Calculations
	currency := cfg.General.Currency
	log.Info().Str("project", args[0]).Str("entry", entry.ID).Msg("progress recorded")

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Recorded " + args[0] + "  " + cli.FormatDate(entry.Date),
		Headers: []string{"Up to date", "Amount"},
		Rows: [][]string{
			{"Actual work done", cli.FormatCurrency(float64(c.UptoDateActualWorkDone), currency)},
			{"Escalation", cli.FormatCurrency(float64(c.UptoDateEscalation), currency)},
			{"Actual revenue", cli.FormatCurrency(float64(c.UptoDateActualRevenue), currency)},
			{"Vetted revenue", cli.FormatCurrency(float64(c.UptoDateVettedRevenue), currency)},
			{"Amount received", cli.FormatCurrency(float64(c.UptoDateAmountReceived), currency)},
			{"Slippage", cli.FormatCurrency(float64(c.UptoDateSlippage), currency)},
			{"Receivable", cli.FormatCurrency(float64(c.UptoDateReceivable), currency)},
			{"Expenditure", cli.FormatCurrency(model.SumAmounts(entry.Expenditures), currency)},
		},
	}))
	return nil
}

func runProgressHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("LEDGER  %s  %s", p.ID, truncate(p.Name, 40))))
	fmt.Println()

	history := pipeline.LedgerHistory(p)
	if len(history) == 0 {
		fmt.Println("  No progress recorded yet.")
		return nil
	}

	money := func(v float64) string { return cli.FormatCurrency(v, cfg.General.Currency) }
	rows := make([][]string, 0, len(history))
	var prevRevenue float64
	for i, pt := range history {
		delta := ""
		if i > 0 {
			delta = cli.FormatDelta(pt.ActualRevenue, prevRevenue, cfg.General.Currency)
		}
		prevRevenue = pt.ActualRevenue
		rows = append(rows, []string{
			cli.FormatDate(pt.Date),
			money(pt.ActualRevenue),
			delta,
			money(pt.VettedRevenue),
			money(pt.AmountReceived),
			money(pt.Expenditure),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Actual Revenue", "Change", "Vetted", "Received", "Spent"},
		Rows:    rows,
	}))
	return nil
}
