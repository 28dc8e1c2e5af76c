// Package ledger builds progress ledger entries from monthly submissions.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/riskboard/internal/model"
)

// ErrPreviousMismatch is returned by Verify when a submitted opening balance
// disagrees with the project's last ledger entry.
var ErrPreviousMismatch = errors.New("previous month does not match ledger")

// Build derives a new ledger entry stamped with the current UTC time.
func Build(prev model.PreviousMonth, cur model.CurrentMonth, exp map[string]model.Amount) model.ProgressEntry {
	return BuildAt(prev, cur, exp, time.Now().UTC())
}

// BuildAt derives a new ledger entry stamped with at. Values are not rounded.
func BuildAt(prev model.PreviousMonth, cur model.CurrentMonth, exp map[string]model.Amount, at time.Time) model.ProgressEntry {
	escDuring := cur.WorkDone * cur.EscalationPercentage / 100
	awd := prev.ActualWorkDone + cur.WorkDone
	esc := prev.ActualWorkDone*prev.EscalationPercentage/100 + escDuring
	actual := awd + esc
	vetted := prev.VettedRevenue + cur.VettedRevenue
	received := prev.AmountReceived + cur.AmountReceived

	expCopy := make(map[string]model.Amount, len(exp))
	for k, v := range exp {
		expCopy[k] = v
	}

	return model.ProgressEntry{
		ID:            uuid.New().String(),
		Date:          at,
		PreviousMonth: prev,
		CurrentMonth:  cur,
		Calculations: model.Calculations{
			EscalationDuringMonth:  escDuring,
			UptoDateActualWorkDone: awd,
			UptoDateEscalation:     esc,
			UptoDateActualRevenue:  actual,
			UptoDateVettedRevenue:  vetted,
			UptoDateAmountReceived: received,
			UptoDateSlippage:       actual - vetted,
			UptoDateReceivable:     vetted - received,
		},
		Expenditures: expCopy,
	}
}

// Append returns a copy of p with e added to the end of its ledger.
func Append(p model.Project, e model.ProgressEntry) model.Project {
	out := p.Clone()
	out.Progress = append(out.Progress, e.Clone())
	return out
}

// PreviousFromLedger derives the opening balance for the next submission
// from the last entry. An empty ledger yields a zero balance.
func PreviousFromLedger(p model.Project) model.PreviousMonth {
	last, ok := p.LastEntry()
	if !ok {
		return model.PreviousMonth{}
	}
	c := last.Calculations
	var escPct model.Amount
	if c.UptoDateActualWorkDone != 0 {
		escPct = c.UptoDateEscalation / c.UptoDateActualWorkDone * 100
	}
	return model.PreviousMonth{
		ActualWorkDone:       c.UptoDateActualWorkDone,
		EscalationPercentage: escPct,
		VettedRevenue:        c.UptoDateVettedRevenue,
		AmountReceived:       c.UptoDateAmountReceived,
	}
}

// Verify compares prev against the balance implied by the ledger. It is
// advisory: a non-nil error wraps ErrPreviousMismatch and names the fields.
func Verify(p model.Project, prev model.PreviousMonth) error {
	if len(p.Progress) == 0 {
		return nil
	}
	want := PreviousFromLedger(p)
	var diffs []string
	check := func(name string, got, exp model.Amount) {
		if !closeEnough(float64(got), float64(exp)) {
			diffs = append(diffs, fmt.Sprintf("%s %.2f (ledger %.2f)", name, float64(got), float64(exp)))
		}
	}
	check("actual work done", prev.ActualWorkDone, want.ActualWorkDone)
	if want.ActualWorkDone != 0 {
		check("escalation percent", prev.EscalationPercentage, want.EscalationPercentage)
	}
	check("vetted revenue", prev.VettedRevenue, want.VettedRevenue)
	check("amount received", prev.AmountReceived, want.AmountReceived)
	if len(diffs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrPreviousMismatch, diffs)
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
