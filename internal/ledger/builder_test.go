package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/riskboard/internal/model"
)

var march = time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

func expresswayInputs() (model.PreviousMonth, model.CurrentMonth) {
	prev := model.PreviousMonth{
		ActualWorkDone:       850_000_000,
		EscalationPercentage: 5,
		VettedRevenue:        800_000_000,
		AmountReceived:       750_000_000,
	}
	cur := model.CurrentMonth{
		WorkDone:             200_000_000,
		EscalationPercentage: 5,
		VettedRevenue:        190_000_000,
		AmountReceived:       180_000_000,
	}
	return prev, cur
}

func TestBuildExpresswayScenario(t *testing.T) {
	prev, cur := expresswayInputs()
	e := BuildAt(prev, cur, map[string]model.Amount{model.ExpMaterial: 250_000_000}, march)

	c := e.Calculations
	assert.InDelta(t, 10_000_000, float64(c.EscalationDuringMonth), 1e-6)
	assert.InDelta(t, 1_050_000_000, float64(c.UptoDateActualWorkDone), 1e-6)
	assert.InDelta(t, 52_500_000, float64(c.UptoDateEscalation), 1e-6)
	assert.InDelta(t, 1_102_500_000, float64(c.UptoDateActualRevenue), 1e-6)
	assert.InDelta(t, 990_000_000, float64(c.UptoDateVettedRevenue), 1e-6)
	assert.InDelta(t, 930_000_000, float64(c.UptoDateAmountReceived), 1e-6)
	assert.InDelta(t, 112_500_000, float64(c.UptoDateSlippage), 1e-6)
	assert.InDelta(t, 60_000_000, float64(c.UptoDateReceivable), 1e-6)

	assert.Equal(t, march, e.Date)
	assert.Equal(t, prev, e.PreviousMonth)
	assert.Equal(t, cur, e.CurrentMonth)
	assert.NotEmpty(t, e.ID)
}

func TestBuildIdentities(t *testing.T) {
	cases := []struct {
		name string
		prev model.PreviousMonth
		cur  model.CurrentMonth
	}{
		{"zero", model.PreviousMonth{}, model.CurrentMonth{}},
		{"first month", model.PreviousMonth{}, model.CurrentMonth{WorkDone: 100, EscalationPercentage: 3, VettedRevenue: 90, AmountReceived: 40}},
		{"negative correction", model.PreviousMonth{ActualWorkDone: 500, EscalationPercentage: 2, VettedRevenue: 450, AmountReceived: 400}, model.CurrentMonth{WorkDone: -20, VettedRevenue: -5}},
		{"over-received", model.PreviousMonth{VettedRevenue: 100, AmountReceived: 90}, model.CurrentMonth{AmountReceived: 50}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := BuildAt(tc.prev, tc.cur, nil, march).Calculations
			assert.InDelta(t, float64(c.UptoDateActualWorkDone+c.UptoDateEscalation), float64(c.UptoDateActualRevenue), 1e-9)
			assert.InDelta(t, float64(c.UptoDateActualRevenue-c.UptoDateVettedRevenue), float64(c.UptoDateSlippage), 1e-9)
			assert.InDelta(t, float64(c.UptoDateVettedRevenue-c.UptoDateAmountReceived), float64(c.UptoDateReceivable), 1e-9)
		})
	}
}

func TestBuildCopiesExpenditures(t *testing.T) {
	exp := map[string]model.Amount{model.ExpMaterial: 10}
	e := BuildAt(model.PreviousMonth{}, model.CurrentMonth{}, exp, march)
	exp[model.ExpMaterial] = 99
	exp[model.ExpOther] = 1

	assert.Equal(t, model.Amount(10), e.Expenditures[model.ExpMaterial])
	assert.Len(t, e.Expenditures, 1)
}

func TestBuildNilExpendituresGivesEmptyMap(t *testing.T) {
	e := Build(model.PreviousMonth{}, model.CurrentMonth{}, nil)
	require.NotNil(t, e.Expenditures)
	assert.Empty(t, e.Expenditures)
	assert.Equal(t, time.UTC, e.Date.Location())
}

func TestBuildFreshIDs(t *testing.T) {
	a := Build(model.PreviousMonth{}, model.CurrentMonth{}, nil)
	b := Build(model.PreviousMonth{}, model.CurrentMonth{}, nil)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestAppendDoesNotMutateOriginal(t *testing.T) {
	p := model.Project{ID: "P", Progress: make([]model.ProgressEntry, 0, 4)}
	e := BuildAt(model.PreviousMonth{}, model.CurrentMonth{WorkDone: 1}, nil, march)

	out := Append(p, e)
	require.Len(t, out.Progress, 1)
	assert.Empty(t, p.Progress)
	// spare capacity in p must not be written through
	assert.Empty(t, p.Progress[:cap(p.Progress)][0].ID)
}

func TestPreviousFromLedger(t *testing.T) {
	assert.Equal(t, model.PreviousMonth{}, PreviousFromLedger(model.Project{}))

	prev, cur := expresswayInputs()
	p := Append(model.Project{ID: "P"}, BuildAt(prev, cur, nil, march))

	got := PreviousFromLedger(p)
	assert.InDelta(t, 1_050_000_000, float64(got.ActualWorkDone), 1e-6)
	assert.InDelta(t, 5, float64(got.EscalationPercentage), 1e-9)
	assert.InDelta(t, 990_000_000, float64(got.VettedRevenue), 1e-6)
	assert.InDelta(t, 930_000_000, float64(got.AmountReceived), 1e-6)
}

func TestVerify(t *testing.T) {
	prev, cur := expresswayInputs()
	p := Append(model.Project{ID: "P"}, BuildAt(prev, cur, nil, march))

	assert.NoError(t, Verify(model.Project{}, prev), "empty ledger accepts anything")
	assert.NoError(t, Verify(p, PreviousFromLedger(p)))

	stale := PreviousFromLedger(p)
	stale.VettedRevenue -= 1000
	err := Verify(p, stale)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPreviousMismatch))
	assert.Contains(t, err.Error(), "vetted revenue")

	wrongEsc := PreviousFromLedger(p)
	wrongEsc.EscalationPercentage = 50
	err = Verify(p, wrongEsc)
	require.ErrorIs(t, err, ErrPreviousMismatch)
	assert.Contains(t, err.Error(), "escalation percent")

	noWork := Append(model.Project{ID: "Q"}, BuildAt(model.PreviousMonth{}, model.CurrentMonth{VettedRevenue: 10}, nil, march))
	opening := PreviousFromLedger(noWork)
	opening.EscalationPercentage = 7
	assert.NoError(t, Verify(noWork, opening), "escalation is moot without work done")
}
