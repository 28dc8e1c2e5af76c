package model

// OverheadMethod selects how planned overhead is computed.
type OverheadMethod string

const (
	OverheadPercentage OverheadMethod = "percentage"
	OverheadDetailed   OverheadMethod = "detailed"
)

// Budget holds a project's planned cost breakdown.
type Budget struct {
	SubcontractorCost    Amount         `json:"subcontractorCost"`
	MaterialCost         Amount         `json:"materialCost"`
	EngineerFacilityCost Amount         `json:"engineerFacilityCost"`
	HRCost               Amount         `json:"hrCost"`
	GeneralAdmCost       Amount         `json:"generalAdmCost"`
	TentativeEscalation  Amount         `json:"tentativeEscalation"` // percent of CA value
	OverheadMethod       OverheadMethod `json:"overheadCalculationMethod"`
}

// BudgetTotals are the planning figures derived from a Budget.
type BudgetTotals struct {
	TentativeEscalationAmount float64 `json:"tentativeEscalationAmount"`
	TotalPlannedRevenue       float64 `json:"totalPlannedRevenue"`
	TotalDirectCost           float64 `json:"totalDirectCost"`
	TotalOverheadCost         float64 `json:"totalOverheadCost"`
	TotalPlannedCost          float64 `json:"totalPlannedCost"`
	PlannedGrossProfit        float64 `json:"plannedGrossProfit"`
	PlannedNetProfit          float64 `json:"plannedNetProfit"`
}

// BudgetVariance compares planned cost against what has been spent.
type BudgetVariance struct {
	PlannedCost float64 `json:"plannedCost"`
	ActualCost  float64 `json:"actualCost"`
	Variance    float64 `json:"variance"` // planned - actual; negative means overspent
	UsedPercent float64 `json:"usedPercent"`
}

// Method returns the overhead method; anything but detailed is percentage.
func (b Budget) Method() OverheadMethod {
	if b.OverheadMethod == OverheadDetailed {
		return OverheadDetailed
	}
	return OverheadPercentage
}
