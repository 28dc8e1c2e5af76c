package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/riskboard/internal/config"
	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/pipeline"
)

func sampleReport() Report {
	risky := model.ProjectRisk{
		ProjectID:   "PROJ-001",
		Name:        "Islamabad | Expressway",
		Directorate: "North",
		Score:       9,
		Risk: model.RiskResult{
			LagRisk:            model.RiskLow,
			SlippageRisk:       model.RiskHigh,
			ReceivableRisk:     model.RiskLow,
			ProfitabilityRisk:  model.RiskDanger,
			SlippagePercentage: 10.2,
			Profitability:      10.25,
			IsHighRisk:         true,
		},
	}
	fine := model.ProjectRisk{ProjectID: "PROJ-002", Name: "Ring Road", Directorate: "Sindh"}
	return Report{
		Generated: time.Date(2024, 3, 5, 12, 0, 0, 0, time.Local),
		Currency:  config.CurrencyRsMn,
		Stats: model.PortfolioStats{
			Total: 2, InProgress: 2, TotalCAValue: 5_000_000_000, TotalRevenue: 1_102_500_000, HighRisk: 1,
		},
		Ranked: []model.ProjectRisk{risky, fine},
		Directorates: []model.DirectorateStats{
			{Directorate: "North", Projects: 1, HighRisk: 1, TotalRevenue: 1_102_500_000, SharePercent: 100},
		},
	}
}

func TestBuildReport(t *testing.T) {
	md := BuildReport(sampleReport())

	assert.Contains(t, md, "# Portfolio Risk Report")
	assert.Contains(t, md, "_Generated 05/03/2024_")
	assert.Contains(t, md, "| Contract value | Rs 5,000.00 Mn |")
	assert.Contains(t, md, "| High-risk projects | 1 |")
	assert.Contains(t, md, `PROJ-001 Islamabad \| Expressway`)
	assert.Contains(t, md, "Critical Risk")
	assert.Contains(t, md, "- "+pipeline.RecVetting)
	assert.NotContains(t, md, pipeline.RecAccelerate)
	assert.Contains(t, md, "- "+pipeline.RecCostSaving)
	assert.NotContains(t, md, "PROJ-002")
	assert.Contains(t, md, "| North | 1 | 1 | Rs 1,102.50 Mn | 100.00% |")
	assert.NotContains(t, md, "Spread")
}

func TestBuildReportNoHighRisk(t *testing.T) {
	r := sampleReport()
	r.Ranked = r.Ranked[1:]
	r.Title = "Sindh"
	md := BuildReport(r)
	assert.Contains(t, md, "# Sindh")
	assert.Contains(t, md, "No project is currently flagged as high risk.")
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown(BuildReport(sampleReport()), 100, "notty")
	require.NoError(t, err)
	assert.Contains(t, out, "Portfolio Risk Report")
	assert.Contains(t, out, "North")
}
