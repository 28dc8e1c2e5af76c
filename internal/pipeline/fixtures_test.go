package pipeline

import (
	"time"

	"github.com/theirongolddev/riskboard/internal/ledger"
	"github.com/theirongolddev/riskboard/internal/model"
)

var testClock = time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC)

func expresswayExpenditures() map[string]model.Amount {
	return map[string]model.Amount{
		model.ExpSubcontractor:         600_000_000,
		model.ExpMaterial:              250_000_000,
		model.ExpHiring:                50_000_000,
		model.ExpEngineerFacilities:    30_000_000,
		model.ExpPaysAllowances:        40_000_000,
		model.ExpGeneralAdministration: 20_000_000,
		model.ExpOther:                 10_000_000,
	}
}

// expressway is a project whose single ledger entry matches the
// Islamabad Expressway worked example.
func expressway() model.Project {
	p := model.Project{
		ID:                   "PROJ-001",
		Name:                 "Islamabad Expressway",
		Directorate:          "North",
		Category:             "Roads",
		CAValue:              2_500_000_000,
		RevisedCAValue:       2_650_000_000,
		PlannedProfitability: 15,
		Status:               model.StatusInProgress,
		Targets: []model.Target{
			{Month: "2024-01", Value: 150_000_000},
			{Month: "2024-02", Value: 180_000_000},
			{Month: "2024-03", Value: 200_000_000},
			{Month: "2024-04", Value: 220_000_000},
		},
	}
	e := ledger.BuildAt(
		model.PreviousMonth{ActualWorkDone: 850_000_000, EscalationPercentage: 5, VettedRevenue: 800_000_000, AmountReceived: 750_000_000},
		model.CurrentMonth{WorkDone: 200_000_000, EscalationPercentage: 5, VettedRevenue: 190_000_000, AmountReceived: 180_000_000},
		expresswayExpenditures(),
		testClock,
	)
	return ledger.Append(p, e)
}

// healthy is on plan and within every band.
func healthy(id string, status model.Status) model.Project {
	p := model.Project{
		ID:                   id,
		Name:                 "Healthy " + id,
		Directorate:          "Sindh",
		Category:             "Bridges",
		CAValue:              1_000,
		RevisedCAValue:       1_000,
		PlannedProfitability: 10,
		Status:               status,
		Targets:              []model.Target{{Month: "2024-01", Value: 100}},
	}
	e := ledger.BuildAt(
		model.PreviousMonth{},
		model.CurrentMonth{WorkDone: 110, VettedRevenue: 110, AmountReceived: 110},
		map[string]model.Amount{model.ExpMaterial: 80},
		testClock,
	)
	return ledger.Append(p, e)
}
