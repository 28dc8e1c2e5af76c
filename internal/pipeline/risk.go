package pipeline

import "github.com/theirongolddev/riskboard/internal/model"

// ClassifyRisk computes derived metrics for p and assigns each a tier.
// Ratios with a non-positive denominator are reported as 0%.
func ClassifyRisk(p model.Project, kpis model.KPISet, th model.KpiThresholds) model.RiskResult {
	var r model.RiskResult

	r.PlannedRevenue = PlannedRevenue(p)
	r.ActualRevenue = kpis.ActualRevenue

	r.Lag = r.PlannedRevenue - r.ActualRevenue
	r.LagPercentage = percentOf(r.Lag, r.PlannedRevenue)

	ca := float64(p.CAValue)
	r.ScopeCreep = float64(p.RevisedCAValue) - ca
	r.ScopeCreepPercentage = percentOf(r.ScopeCreep, ca)

	r.TotalExpenditure = sumExpenditures(kpis.Expenditures)
	r.CostVariance = r.ActualRevenue - r.TotalExpenditure
	r.Profitability = percentOf(r.ActualRevenue-r.TotalExpenditure, r.TotalExpenditure)

	r.Slippage = kpis.Slippage
	r.SlippagePercentage = percentOf(r.Slippage, r.ActualRevenue)

	r.Receivable = kpis.Receivable
	r.ReceivablePercentage = percentOf(r.Receivable, kpis.AmountReceived)

	r.LagRisk = tier(r.LagPercentage, th.Lag, lowTiers)
	r.ScopeCreepRisk = tier(r.ScopeCreepPercentage, th.ScopeCreep, lowTiers)
	r.SlippageRisk = tier(r.SlippagePercentage, th.Slippage, satisfactoryTiers)
	r.ReceivableRisk = tier(r.ReceivablePercentage, th.Receivable, satisfactoryTiers)

	if r.CostVariance >= 0 {
		r.CostVarianceRisk = model.RiskUnderBudget
	} else {
		r.CostVarianceRisk = model.RiskOverBudget
	}
	r.ProfitabilityRisk = profitabilityTier(r.Profitability, float64(p.PlannedProfitability))

	r.IsHighRisk = isSevere(r.LagRisk) ||
		isSevere(r.ScopeCreepRisk) ||
		r.ProfitabilityRisk == model.RiskRisk || r.ProfitabilityRisk == model.RiskDanger ||
		isSevere(r.SlippageRisk) ||
		isSevere(r.ReceivableRisk)

	return r
}

// Evaluate runs the KPI extractor and risk classifier for one project.
func Evaluate(p model.Project, th model.KpiThresholds) (model.KPISet, model.RiskResult) {
	kpis := ExtractKPIs(p)
	return kpis, ClassifyRisk(p, kpis, th)
}

var (
	lowTiers          = [4]model.RiskLevel{model.RiskLow, model.RiskModerate, model.RiskHigh, model.RiskDanger}
	satisfactoryTiers = [4]model.RiskLevel{model.RiskSatisfactory, model.RiskLow, model.RiskHigh, model.RiskDanger}
	profitTiers       = [4]model.RiskLevel{model.RiskExcellent, model.RiskSatisfactory, model.RiskRisk, model.RiskDanger}
)

// tier picks the first band whose inclusive upper bound holds v.
func tier(v float64, b model.Band, labels [4]model.RiskLevel) model.RiskLevel {
	switch {
	case v <= b.Low:
		return labels[0]
	case v <= b.Moderate:
		return labels[1]
	case v <= b.High:
		return labels[2]
	default:
		return labels[3]
	}
}

// profitabilityTier compares achieved against planned profitability.
// The comparison is against fractions of the plan, so a negative plan
// inverts the ladder; that is accepted as-is.
func profitabilityTier(actual, planned float64) model.RiskLevel {
	switch {
	case actual >= planned:
		return model.RiskExcellent
	case actual >= planned*0.92:
		return model.RiskSatisfactory
	case actual >= planned*0.85:
		return model.RiskRisk
	default:
		return model.RiskDanger
	}
}

func isSevere(l model.RiskLevel) bool {
	return l == model.RiskHigh || l == model.RiskDanger
}

func percentOf(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}

func ladderRank(l model.RiskLevel, labels [4]model.RiskLevel) int {
	for i, lbl := range labels {
		if l == lbl {
			return i
		}
	}
	return 0
}

// RiskScore is an ordinal severity score: the sum of per-dimension tier
// ranks (0 safest, 3 Danger) plus 1 when over budget.
func RiskScore(r model.RiskResult) float64 {
	score := ladderRank(r.LagRisk, lowTiers) +
		ladderRank(r.ScopeCreepRisk, lowTiers) +
		ladderRank(r.SlippageRisk, satisfactoryTiers) +
		ladderRank(r.ReceivableRisk, satisfactoryTiers) +
		ladderRank(r.ProfitabilityRisk, profitTiers)
	if r.CostVarianceRisk == model.RiskOverBudget {
		score++
	}
	return float64(score)
}
