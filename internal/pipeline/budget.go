package pipeline

import "github.com/theirongolddev/riskboard/internal/model"

// DefaultOverheadPercent is the overhead share of CA value used when a
// budget is planned in percentage mode.
const DefaultOverheadPercent = 10.0

// BudgetTotals derives planning figures from the project's budget using the
// default overhead percentage.
func BudgetTotals(p model.Project) model.BudgetTotals {
	return BudgetTotalsWithOverhead(p, DefaultOverheadPercent)
}

// BudgetTotalsWithOverhead is BudgetTotals with an explicit overhead
// percentage for percentage-mode budgets. A nil budget still reports the
// CA value as planned revenue.
func BudgetTotalsWithOverhead(p model.Project, overheadPercent float64) model.BudgetTotals {
	ca := float64(p.CAValue)
	b := p.Budget
	if b == nil {
		return model.BudgetTotals{TotalPlannedRevenue: ca}
	}

	var t model.BudgetTotals
	t.TentativeEscalationAmount = ca * float64(b.TentativeEscalation) / 100
	t.TotalPlannedRevenue = ca + t.TentativeEscalationAmount
	t.TotalDirectCost = float64(b.SubcontractorCost + b.MaterialCost + b.EngineerFacilityCost)

	if b.Method() == model.OverheadDetailed {
		t.TotalOverheadCost = float64(b.HRCost + b.GeneralAdmCost)
	} else {
		t.TotalOverheadCost = ca * overheadPercent / 100
	}

	t.TotalPlannedCost = t.TotalDirectCost + t.TotalOverheadCost
	t.PlannedGrossProfit = t.TotalPlannedRevenue - t.TotalDirectCost
	t.PlannedNetProfit = t.PlannedGrossProfit - t.TotalOverheadCost
	return t
}

// CompareBudget sets planned cost against expenditure recorded in the ledger.
func CompareBudget(totals model.BudgetTotals, kpis model.KPISet) model.BudgetVariance {
	v := model.BudgetVariance{
		PlannedCost: totals.TotalPlannedCost,
		ActualCost:  sumExpenditures(kpis.Expenditures),
	}
	v.Variance = v.PlannedCost - v.ActualCost
	v.UsedPercent = percentOf(v.ActualCost, v.PlannedCost)
	return v
}
