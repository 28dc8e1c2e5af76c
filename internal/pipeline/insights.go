package pipeline

import "github.com/theirongolddev/riskboard/internal/model"

// Recommendation texts, in the order they are emitted.
const (
	RecAccelerate   = "Accelerate work progress to meet planned targets"
	RecCostReview   = "Review and optimize cost structure to reduce overruns"
	RecCostSaving   = "Implement cost-saving measures and review pricing strategy"
	RecVetting      = "Improve documentation and follow-up with client for vetting"
	RecCollection   = "Strengthen accounts receivable collection process"
	RecPerformingOK = "Project is performing well. Maintain current operations."
)

// Recommendations lists suggested actions for a classified project.
// A project with nothing flagged gets a single all-clear line.
func Recommendations(r model.RiskResult) []string {
	var recs []string
	if isSevere(r.LagRisk) {
		recs = append(recs, RecAccelerate)
	}
	if r.CostVariance < 0 {
		recs = append(recs, RecCostReview)
	}
	if r.ProfitabilityRisk == model.RiskRisk || r.ProfitabilityRisk == model.RiskDanger {
		recs = append(recs, RecCostSaving)
	}
	if isSevere(r.SlippageRisk) {
		recs = append(recs, RecVetting)
	}
	if isSevere(r.ReceivableRisk) {
		recs = append(recs, RecCollection)
	}
	if len(recs) == 0 {
		return []string{RecPerformingOK}
	}
	return recs
}
