package model

import "time"

// PreviousMonth is the opening (cumulative) balance a submission starts from.
type PreviousMonth struct {
	ActualWorkDone       Amount `json:"actualWorkDone"`
	EscalationPercentage Amount `json:"escalationPercentage"`
	VettedRevenue        Amount `json:"vettedRevenue"`
	AmountReceived       Amount `json:"amountReceived"`
}

// CurrentMonth holds the figures reported for the month being submitted.
type CurrentMonth struct {
	WorkDone             Amount `json:"workDone"`
	EscalationPercentage Amount `json:"escalationPercentage"`
	VettedRevenue        Amount `json:"vettedRevenue"`
	AmountReceived       Amount `json:"amountReceived"`
}

// Calculations are the cumulative values derived when an entry is built.
type Calculations struct {
	EscalationDuringMonth  Amount `json:"escalationDuringMonth"`
	UptoDateActualWorkDone Amount `json:"uptoDateActualWorkDone"`
	UptoDateEscalation     Amount `json:"uptoDateEscalation"`
	UptoDateActualRevenue  Amount `json:"uptoDateActualRevenue"`
	UptoDateVettedRevenue  Amount `json:"uptoDateVettedRevenue"`
	UptoDateAmountReceived Amount `json:"uptoDateAmountReceived"`
	UptoDateSlippage       Amount `json:"uptoDateSlippage"`
	UptoDateReceivable     Amount `json:"uptoDateReceivable"`
}

// ProgressEntry is one immutable monthly submission in a project's ledger.
type ProgressEntry struct {
	ID            string            `json:"id"`
	Date          time.Time         `json:"date"`
	PreviousMonth PreviousMonth     `json:"previousMonth"`
	CurrentMonth  CurrentMonth      `json:"currentMonth"`
	Calculations  Calculations      `json:"calculations"`
	Expenditures  map[string]Amount `json:"expenditures"`
}

// Clone copies the entry including its expenditures map.
func (e ProgressEntry) Clone() ProgressEntry {
	out := e
	if e.Expenditures != nil {
		out.Expenditures = make(map[string]Amount, len(e.Expenditures))
		for k, v := range e.Expenditures {
			out.Expenditures[k] = v
		}
	}
	return out
}

// Expenditure heads used by the data-entry forms.
const (
	ExpSubcontractor         = "Subcontractor Cost"
	ExpMaterial              = "Material Cost"
	ExpHiring                = "Hiring Cost"
	ExpEngineerFacilities    = "Engineer Facilities"
	ExpPaysAllowances        = "Pays & Allowances"
	ExpGeneralAdministration = "General Administration"
	ExpOther                 = "Other Costs"
)

// ExpenditureHeads lists the standard heads in form order. Entries may
// carry other keys too; every key counts towards total expenditure.
var ExpenditureHeads = []string{
	ExpSubcontractor,
	ExpMaterial,
	ExpHiring,
	ExpEngineerFacilities,
	ExpPaysAllowances,
	ExpGeneralAdministration,
	ExpOther,
}
