// Package pipeline turns project ledgers into KPIs, risk tiers and portfolio aggregates.
package pipeline

import "github.com/theirongolddev/riskboard/internal/model"

// ExtractKPIs reads the headline figures from the project's last ledger
// entry. An empty ledger yields zeros and an empty expenditures map.
func ExtractKPIs(p model.Project) model.KPISet {
	kpis := model.KPISet{Expenditures: make(map[string]float64)}

	last, ok := p.LastEntry()
	if !ok {
		return kpis
	}

	c := last.Calculations
	kpis.ActualRevenue = float64(c.UptoDateActualRevenue)
	kpis.VettedRevenue = float64(c.UptoDateVettedRevenue)
	kpis.AmountReceived = float64(c.UptoDateAmountReceived)
	kpis.Slippage = float64(c.UptoDateSlippage)
	kpis.Receivable = float64(c.UptoDateReceivable)
	for k, v := range last.Expenditures {
		kpis.Expenditures[k] = float64(v)
	}
	return kpis
}

// ProgressPercentage is actual revenue as a share of the CA value; it is 0
// until some revenue has been earned.
func ProgressPercentage(p model.Project, kpis model.KPISet) float64 {
	if p.CAValue <= 0 || kpis.ActualRevenue <= 0 {
		return 0
	}
	return kpis.ActualRevenue / float64(p.CAValue) * 100
}

// LedgerHistory returns the cumulative figures of every entry, oldest first.
func LedgerHistory(p model.Project) []model.LedgerPoint {
	points := make([]model.LedgerPoint, 0, len(p.Progress))
	for _, e := range p.Progress {
		c := e.Calculations
		points = append(points, model.LedgerPoint{
			Date:           e.Date,
			ActualRevenue:  float64(c.UptoDateActualRevenue),
			VettedRevenue:  float64(c.UptoDateVettedRevenue),
			AmountReceived: float64(c.UptoDateAmountReceived),
			Expenditure:    model.SumAmounts(e.Expenditures),
		})
	}
	return points
}

// PlannedRevenue sums every monthly target.
func PlannedRevenue(p model.Project) float64 {
	var total float64
	for _, t := range p.Targets {
		total += float64(t.Value)
	}
	return total
}

func sumExpenditures(m map[string]float64) float64 {
	var total float64
	for _, v := range m {
		total += v
	}
	return total
}
