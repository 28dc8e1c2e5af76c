package model

import "time"

// RiskLevel is a tier label produced by the risk classifier.
type RiskLevel string

const (
	RiskLow          RiskLevel = "Low"
	RiskModerate     RiskLevel = "Moderate"
	RiskHigh         RiskLevel = "High"
	RiskDanger       RiskLevel = "Danger"
	RiskSatisfactory RiskLevel = "Satisfactory"
	RiskExcellent    RiskLevel = "Excellent"
	RiskRisk         RiskLevel = "Risk"
	RiskUnderBudget  RiskLevel = "Under Budget"
	RiskOverBudget   RiskLevel = "Over Budget"
)

// KPISet is the headline figures read from the last ledger entry.
type KPISet struct {
	ActualRevenue  float64            `json:"actualRevenue"`
	VettedRevenue  float64            `json:"vettedRevenue"`
	AmountReceived float64            `json:"amountReceived"`
	Slippage       float64            `json:"slippage"`
	Receivable     float64            `json:"receivable"`
	Expenditures   map[string]float64 `json:"expenditures"`
}

// RiskResult is the full metric and tier breakdown for one project.
type RiskResult struct {
	PlannedRevenue       float64 `json:"plannedRevenue"`
	ActualRevenue        float64 `json:"actualRevenue"`
	Lag                  float64 `json:"lag"`
	LagPercentage        float64 `json:"lagPercentage"`
	ScopeCreep           float64 `json:"scopeCreep"`
	ScopeCreepPercentage float64 `json:"scopeCreepPercentage"`
	TotalExpenditure     float64 `json:"totalExpenditure"`
	CostVariance         float64 `json:"costVariance"`
	Profitability        float64 `json:"profitability"`
	Slippage             float64 `json:"slippage"`
	SlippagePercentage   float64 `json:"slippagePercentage"`
	Receivable           float64 `json:"receivable"`
	ReceivablePercentage float64 `json:"receivablePercentage"`

	LagRisk           RiskLevel `json:"lagRisk"`
	ScopeCreepRisk    RiskLevel `json:"scopeCreepRisk"`
	CostVarianceRisk  RiskLevel `json:"costVarianceRisk"`
	ProfitabilityRisk RiskLevel `json:"profitabilityRisk"`
	SlippageRisk      RiskLevel `json:"slippageRisk"`
	ReceivableRisk    RiskLevel `json:"receivableRisk"`

	IsHighRisk bool `json:"isHighRisk"`
}

// PortfolioStats is the headline aggregate across a set of projects.
type PortfolioStats struct {
	Total       int `json:"total"`
	InProgress  int `json:"inProgress"`
	Completed   int `json:"completed"`
	Planning    int `json:"planning"`
	Suspended   int `json:"suspended"`
	Transferred int `json:"transferred"`

	TotalCAValue     float64 `json:"totalCAValue"`
	TotalRevenue     float64 `json:"totalRevenue"`
	TotalExpenditure float64 `json:"totalExpenditure"`
	TotalProfit      float64 `json:"totalProfit"`

	HighRisk int `json:"highRisk"`
}

// ProjectRisk pairs a project with its evaluated metrics.
type ProjectRisk struct {
	ProjectID   string     `json:"projectId"`
	Name        string     `json:"name"`
	Directorate string     `json:"directorate"`
	Status      Status     `json:"status"`
	KPIs        KPISet     `json:"kpis"`
	Risk        RiskResult `json:"risk"`
	Score       float64    `json:"score"`
}

// DirectorateStats holds aggregated metrics for one directorate.
type DirectorateStats struct {
	Directorate      string  `json:"directorate"`
	Projects         int     `json:"projects"`
	HighRisk         int     `json:"highRisk"`
	TotalCAValue     float64 `json:"totalCAValue"`
	TotalRevenue     float64 `json:"totalRevenue"`
	TotalExpenditure float64 `json:"totalExpenditure"`
	SharePercent     float64 `json:"sharePercent"` // of portfolio revenue
}

// MetricSpread is the mean and standard deviation of one percentage metric.
type MetricSpread struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Max    float64 `json:"max"`
}

// PortfolioDistribution summarises how risk percentages spread across projects.
type PortfolioDistribution struct {
	Projects   int          `json:"projects"`
	Lag        MetricSpread `json:"lag"`
	Slippage   MetricSpread `json:"slippage"`
	Receivable MetricSpread `json:"receivable"`
}

// LedgerPoint is one cumulative sample for trend charts.
type LedgerPoint struct {
	Date           time.Time `json:"date"`
	ActualRevenue  float64   `json:"actualRevenue"`
	VettedRevenue  float64   `json:"vettedRevenue"`
	AmountReceived float64   `json:"amountReceived"`
	Expenditure    float64   `json:"expenditure"`
}
