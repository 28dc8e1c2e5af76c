package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/riskboard/internal/ledger"
	"github.com/theirongolddev/riskboard/internal/model"
)

var created = time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)

func newSQLite(t *testing.T) Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "riskboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newMemory(t *testing.T) Store {
	t.Helper()
	return NewMemory()
}

// forEachStore runs fn against every Store implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	impls := map[string]func(*testing.T) Store{
		"sqlite": newSQLite,
		"memory": newMemory,
	}
	for name, mk := range impls {
		t.Run(name, func(t *testing.T) {
			fn(t, mk(t))
		})
	}
}

func sampleProject(id string) model.Project {
	p := model.Project{
		ID:                   id,
		Name:                 "Islamabad Expressway",
		Directorate:          "North",
		Category:             "Roads",
		Location:             "Islamabad",
		Client:               "NHA",
		CAValue:              2_500_000_000,
		RevisedCAValue:       2_650_000_000,
		PlannedProfitability: 15,
		Status:               model.StatusInProgress,
		StartDate:            "2023-07-01",
		Targets: []model.Target{
			{Month: "2024-01", Value: 150_000_000},
			{Month: "2024-02", Value: 180_000_000},
		},
		Budget: &model.Budget{
			SubcontractorCost: 1_200_000_000,
			MaterialCost:      500_000_000,
			OverheadMethod:    model.OverheadDetailed,
		},
		CreatedAt: created,
	}
	e := ledger.BuildAt(
		model.PreviousMonth{ActualWorkDone: 850_000_000, EscalationPercentage: 5, VettedRevenue: 800_000_000, AmountReceived: 750_000_000},
		model.CurrentMonth{WorkDone: 200_000_000, EscalationPercentage: 5, VettedRevenue: 190_000_000, AmountReceived: 180_000_000},
		map[string]model.Amount{model.ExpMaterial: 250_000_000, model.ExpSubcontractor: 600_000_000},
		created.AddDate(0, 2, 0),
	)
	return ledger.Append(p, e)
}

func TestStoreAppendGetRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		want := sampleProject("PROJ-001")
		require.NoError(t, s.Append(ctx, want))

		got, err := s.Get(ctx, "PROJ-001")
		require.NoError(t, err)

		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Directorate, got.Directorate)
		assert.Equal(t, want.CAValue, got.CAValue)
		assert.Equal(t, want.RevisedCAValue, got.RevisedCAValue)
		assert.Equal(t, want.Status, got.Status)
		assert.Equal(t, want.StartDate, got.StartDate)
		assert.Equal(t, want.Targets, got.Targets)
		require.NotNil(t, got.Budget)
		assert.Equal(t, *want.Budget, *got.Budget)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))

		require.Len(t, got.Progress, 1)
		we, ge := want.Progress[0], got.Progress[0]
		assert.Equal(t, we.ID, ge.ID)
		assert.True(t, we.Date.Equal(ge.Date))
		assert.Equal(t, we.PreviousMonth, ge.PreviousMonth)
		assert.Equal(t, we.CurrentMonth, ge.CurrentMonth)
		assert.Equal(t, we.Calculations, ge.Calculations)
		assert.Equal(t, we.Expenditures, ge.Expenditures)
	})
}

func TestStoreAppendDuplicate(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Append(ctx, sampleProject("P")))
		err := s.Append(ctx, sampleProject("P"))
		assert.True(t, errors.Is(err, ErrExists))
	})
}

func TestStoreNotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		_, err := s.Get(ctx, "missing")
		assert.True(t, IsNotFound(err))
		assert.ErrorIs(t, s.Replace(ctx, model.Project{ID: "missing"}), ErrNotFound)
		assert.ErrorIs(t, s.Remove(ctx, "missing"), ErrNotFound)

		_, err = s.AppendProgress(ctx, "missing", func(model.Project) (model.ProgressEntry, error) {
			t.Fatal("build must not run for a missing project")
			return model.ProgressEntry{}, nil
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStoreListOrdered(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, id := range []string{"PROJ-003", "PROJ-001", "PROJ-002"} {
			require.NoError(t, s.Append(ctx, sampleProject(id)))
		}
		// second project without ledger or budget
		require.NoError(t, s.Append(ctx, model.Project{ID: "PROJ-000", Name: "Empty", Status: model.StatusPlanning}))

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 4)
		assert.Equal(t, "PROJ-000", list[0].ID)
		assert.Equal(t, "PROJ-003", list[3].ID)
		assert.Empty(t, list[0].Progress)
		assert.Nil(t, list[0].Budget)
		assert.Len(t, list[1].Progress, 1)
		assert.Len(t, list[2].Progress[0].Expenditures, 2)
	})
}

func TestStoreReplaceKeepsLedger(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p := sampleProject("P")
		require.NoError(t, s.Append(ctx, p))

		edited := p.Clone()
		edited.Status = model.StatusCompleted
		edited.Targets = append(edited.Targets, model.Target{Month: "2024-03", Value: 200_000_000})
		edited.Budget = nil
		edited.Progress = nil // dropping entries locally must not delete them
		require.NoError(t, s.Replace(ctx, edited))

		got, err := s.Get(ctx, "P")
		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, got.Status)
		assert.Len(t, got.Targets, 3)
		assert.Nil(t, got.Budget)
		assert.Len(t, got.Progress, 1)
		assert.True(t, got.CreatedAt.Equal(created))

		// entries new to the store are appended
		next := ledger.Build(ledger.PreviousFromLedger(got), model.CurrentMonth{WorkDone: 1}, nil)
		require.NoError(t, s.Replace(ctx, ledger.Append(got, next)))
		got, err = s.Get(ctx, "P")
		require.NoError(t, err)
		require.Len(t, got.Progress, 2)
		assert.Equal(t, next.ID, got.Progress[1].ID)
	})
}

func TestStoreRemoveCascades(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Append(ctx, sampleProject("P")))
		require.NoError(t, s.Remove(ctx, "P"))

		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)

		// the ID is free again, with no orphaned ledger rows
		require.NoError(t, s.Append(ctx, model.Project{ID: "P", Name: "Reused", Status: model.StatusPlanning}))
		got, err := s.Get(ctx, "P")
		require.NoError(t, err)
		assert.Empty(t, got.Progress)
		assert.Empty(t, got.Targets)
	})
}

func TestStoreAppendProgressBuildError(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Append(ctx, sampleProject("P")))

		boom := errors.New("boom")
		_, err := s.AppendProgress(ctx, "P", func(model.Project) (model.ProgressEntry, error) {
			return model.ProgressEntry{}, boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := s.Get(ctx, "P")
		require.NoError(t, err)
		assert.Len(t, got.Progress, 1)
	})
}

func TestStoreReturnsCopies(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p := sampleProject("P")
		require.NoError(t, s.Append(ctx, p))
		p.Progress[0].Expenditures[model.ExpMaterial] = 0

		got, err := s.Get(ctx, "P")
		require.NoError(t, err)
		got.Targets[0].Value = 1

		again, err := s.Get(ctx, "P")
		require.NoError(t, err)
		assert.Equal(t, model.Amount(250_000_000), again.Progress[0].Expenditures[model.ExpMaterial])
		assert.Equal(t, model.Amount(150_000_000), again.Targets[0].Value)
	})
}

func TestStoreConcurrentAppendProgressIsSerialized(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Append(ctx, model.Project{ID: "P", Name: "Ledger", Status: model.StatusInProgress}))

		const writers = 8
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.AppendProgress(ctx, "P", func(p model.Project) (model.ProgressEntry, error) {
					return ledger.Build(ledger.PreviousFromLedger(p), model.CurrentMonth{WorkDone: 100, VettedRevenue: 90}, nil), nil
				})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := s.Get(ctx, "P")
		require.NoError(t, err)
		require.Len(t, got.Progress, writers)
		for i := 1; i < writers; i++ {
			prev := got.Progress[i-1].Calculations
			cur := got.Progress[i]
			assert.Equal(t, prev.UptoDateActualWorkDone, cur.PreviousMonth.ActualWorkDone, "entry %d", i)
			assert.Equal(t, prev.UptoDateVettedRevenue, cur.PreviousMonth.VettedRevenue, "entry %d", i)
		}
		last := got.Progress[writers-1].Calculations
		assert.InDelta(t, 800, float64(last.UptoDateActualWorkDone), 1e-9)
	})
}
