package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/riskboard/internal/model"
)

var (
	flagProjID          string
	flagProjName        string
	flagProjDirectorate string
	flagProjCategory    string
	flagProjCAValue     string
	flagProjProfit      string
	flagProjStatus      string
	flagProjStart       string
	flagProjCompletion  string
	flagProjClient      string
	flagProjLocation    string
	flagProjConsultant  string

	flagBudgetSubcontractor string
	flagBudgetMaterial      string
	flagBudgetEngineer      string
	flagBudgetHR            string
	flagBudgetAdmin         string
	flagBudgetEscalation    string
	flagBudgetMethod        string
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects, targets and budgets",
}

var projectAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new project",
	RunE:  runProjectAdd,
}

var projectRemoveCmd = &cobra.Command{
	Use:   "remove <project-id>",
	Short: "Delete a project and its ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectRemove,
}

var projectShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Print a project record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectShow,
}

var projectStatusCmd = &cobra.Command{
	Use:   "status <project-id> <status>",
	Short: "Change a project's lifecycle status",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectStatus,
}

var targetAddCmd = &cobra.Command{
	Use:   "target <project-id> <YYYY-MM> <value>",
	Short: "Add or update a monthly revenue target",
	Args:  cobra.ExactArgs(3),
	RunE:  runTargetAdd,
}

var budgetSetCmd = &cobra.Command{
	Use:   "budget <project-id>",
	Short: "Set a project's cost budget",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetSet,
}

func init() {
	af := projectAddCmd.Flags()
	af.StringVar(&flagProjID, "id", "", "Project ID (default generated)")
	af.StringVar(&flagProjName, "name", "", "Project name")
	af.StringVar(&flagProjDirectorate, "dir", "", "Owning directorate")
	af.StringVar(&flagProjCategory, "cat", "", "Project category")
	af.StringVar(&flagProjCAValue, "ca-value", "", "Contract agreement value")
	af.StringVar(&flagProjProfit, "profitability", "0", "Planned profitability percent")
	af.StringVar(&flagProjStatus, "project-status", string(model.StatusPlanning), "Initial status")
	af.StringVar(&flagProjStart, "start", "", "Start date (YYYY-MM-DD)")
	af.StringVar(&flagProjCompletion, "completion", "", "Completion date (YYYY-MM-DD)")
	af.StringVar(&flagProjClient, "client", "", "Client")
	af.StringVar(&flagProjLocation, "location", "", "Location")
	af.StringVar(&flagProjConsultant, "consultant", "", "Consultant")
	_ = projectAddCmd.MarkFlagRequired("name")
	_ = projectAddCmd.MarkFlagRequired("dir")
	_ = projectAddCmd.MarkFlagRequired("ca-value")

	bf := budgetSetCmd.Flags()
	bf.StringVar(&flagBudgetSubcontractor, "subcontractor", "", "Subcontractor cost")
	bf.StringVar(&flagBudgetMaterial, "material", "", "Material cost")
	bf.StringVar(&flagBudgetEngineer, "engineer", "", "Engineer facility cost")
	bf.StringVar(&flagBudgetHR, "hr", "", "HR cost")
	bf.StringVar(&flagBudgetAdmin, "admin", "", "General administration cost")
	bf.StringVar(&flagBudgetEscalation, "escalation", "", "Tentative escalation percent of CA value")
	bf.StringVar(&flagBudgetMethod, "overhead", "", "Overhead method: percentage or detailed")

	projectCmd.AddCommand(projectAddCmd, projectRemoveCmd, projectShowCmd, projectStatusCmd, targetAddCmd, budgetSetCmd)
	rootCmd.AddCommand(projectCmd)
}

// parseAmountArg is the strict counterpart of model.ParseAmount for
// command-line input: garbage is an error rather than zero.
func parseAmountArg(name, raw string) (model.Amount, error) {
	s := strings.NewReplacer(",", "", "_", "", " ", "").Replace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", name, raw)
	}
	return model.Amount(f), nil
}

func validDate(name, s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return fmt.Errorf("%s: %q is not YYYY-MM-DD", name, s)
	}
	return nil
}

func runProjectAdd(cmd *cobra.Command, _ []string) error {
	caValue, err := parseAmountArg("ca-value", flagProjCAValue)
	if err != nil {
		return err
	}
	if caValue < 0 {
		return fmt.Errorf("ca-value must not be negative")
	}
	profit, err := parseAmountArg("profitability", flagProjProfit)
	if err != nil {
		return err
	}
	status, ok := model.ParseStatus(flagProjStatus)
	if !ok {
		return fmt.Errorf("unknown status %q", flagProjStatus)
	}
	if err := validDate("start", flagProjStart); err != nil {
		return err
	}
	if err := validDate("completion", flagProjCompletion); err != nil {
		return err
	}

	id := strings.TrimSpace(flagProjID)
	if id == "" {
		id = "PROJ-" + strings.ToUpper(uuid.New().String()[:8])
	}

	p := model.Project{
		ID:                   id,
		Name:                 strings.TrimSpace(flagProjName),
		Directorate:          strings.TrimSpace(flagProjDirectorate),
		Category:             strings.TrimSpace(flagProjCategory),
		Location:             flagProjLocation,
		Client:               flagProjClient,
		Consultant:           flagProjConsultant,
		CAValue:              caValue,
		PlannedProfitability: profit,
		Status:               status,
		StartDate:            flagProjStart,
		CompletionDate:       flagProjCompletion,
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Append(cmd.Context(), p); err != nil {
		return err
	}
	log := newLogger(cfg)
	log.Info().Str("project", p.ID).Str("directorate", p.Directorate).Msg("project added")
	fmt.Printf("  Added %s  %s\n", p.ID, p.Name)
	return nil
}

func runProjectRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Remove(cmd.Context(), args[0]); err != nil {
		return err
	}
	log := newLogger(cfg)
	log.Info().Str("project", args[0]).Msg("project removed")
	fmt.Printf("  Removed %s\n", args[0])
	return nil
}

func runProjectShow(cmd *cobra.Command, args []string) error {
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
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// updateProject applies fn to a stored project and writes it back.
func updateProject(cmd *cobra.Command, id string, fn func(p *model.Project) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	if err := fn(&p); err != nil {
		return err
	}
	if err := st.Replace(cmd.Context(), p); err != nil {
		return err
	}
	log := newLogger(cfg)
	log.Debug().Str("project", id).Str("command", cmd.Name()).Msg("project updated")
	return nil
}

func runProjectStatus(cmd *cobra.Command, args []string) error {
	status, ok := model.ParseStatus(args[1])
	if !ok {
		return fmt.Errorf("unknown status %q (want one of %v)", args[1], model.Statuses)
	}
	err := updateProject(cmd, args[0], func(p *model.Project) error {
		p.Status = status
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("  %s is now %s\n", args[0], status)
	return nil
}

func runTargetAdd(cmd *cobra.Command, args []string) error {
	month := strings.TrimSpace(args[1])
	if _, err := time.Parse("2006-01", month); err != nil {
		return fmt.Errorf("month %q is not YYYY-MM", month)
	}
	value, err := parseAmountArg("value", args[2])
	if err != nil {
		return err
	}

	err = updateProject(cmd, args[0], func(p *model.Project) error {
		for i := range p.Targets {
			if p.Targets[i].Month == month {
				p.Targets[i].Value = value
				return nil
			}
		}
		p.Targets = append(p.Targets, model.Target{Month: month, Value: value})
		sort.Slice(p.Targets, func(i, j int) bool { return p.Targets[i].Month < p.Targets[j].Month })
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("  Target %s for %s set to %s\n", month, args[0], strconv.FormatFloat(float64(value), 'f', -1, 64))
	return nil
}

func runBudgetSet(cmd *cobra.Command, args []string) error {
	fields := []struct {
		name string
		raw  string
		dst  func(b *model.Budget) *model.Amount
	}{
		{"subcontractor", flagBudgetSubcontractor, func(b *model.Budget) *model.Amount { return &b.SubcontractorCost }},
		{"material", flagBudgetMaterial, func(b *model.Budget) *model.Amount { return &b.MaterialCost }},
		{"engineer", flagBudgetEngineer, func(b *model.Budget) *model.Amount { return &b.EngineerFacilityCost }},
		{"hr", flagBudgetHR, func(b *model.Budget) *model.Amount { return &b.HRCost }},
		{"admin", flagBudgetAdmin, func(b *model.Budget) *model.Amount { return &b.GeneralAdmCost }},
		{"escalation", flagBudgetEscalation, func(b *model.Budget) *model.Amount { return &b.TentativeEscalation }},
	}

	var method model.OverheadMethod
	switch strings.ToLower(strings.TrimSpace(flagBudgetMethod)) {
	case "":
	case string(model.OverheadPercentage):
		method = model.OverheadPercentage
	case string(model.OverheadDetailed):
		method = model.OverheadDetailed
	default:
		return fmt.Errorf("overhead method %q: want percentage or detailed", flagBudgetMethod)
	}

	err := updateProject(cmd, args[0], func(p *model.Project) error {
		b := model.Budget{OverheadMethod: model.OverheadPercentage}
		if p.Budget != nil {
			b = *p.Budget
		}
		for _, f := range fields {
			if f.raw == "" {
				continue
			}
			v, err := parseAmountArg(f.name, f.raw)
			if err != nil {
				return err
			}
			if v < 0 {
				return fmt.Errorf("%s must not be negative", f.name)
			}
			*f.dst(&b) = v
		}
		if method != "" {
			b.OverheadMethod = method
		}
		p.Budget = &b
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("  Budget updated for %s\n", args[0])
	return nil
}
