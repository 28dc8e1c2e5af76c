package source

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/riskboard/internal/ledger"
	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/pipeline"
)

func TestSampleProjects(t *testing.T) {
	res := SampleProjects()
	require.NoError(t, res.Err)
	assert.Zero(t, res.ParseErrors)
	require.Len(t, res.Projects, 10)

	p := res.Projects[0]
	assert.Equal(t, "PROJ-001", p.ID)
	assert.Equal(t, "North", p.Directorate)
	assert.Equal(t, model.StatusInProgress, p.Status)
	require.NotNil(t, p.Budget)
	assert.Equal(t, model.OverheadDetailed, p.Budget.OverheadMethod)
	require.Len(t, p.Progress, 1)
	assert.Equal(t, "PROJ-001-E1", p.Progress[0].ID)
	assert.Equal(t, model.Amount(1_102_500_000), p.Progress[0].Calculations.UptoDateActualRevenue)
	assert.Len(t, p.Progress[0].Expenditures, 7)
}

func TestSampleCalculationsAreConsistent(t *testing.T) {
	res := Parse(bytes.NewReader(sampleJSON), Options{})
	require.NoError(t, res.Err)
	assert.Empty(t, res.Warnings)

	for _, p := range res.Projects {
		for _, e := range p.Progress {
			want := ledger.BuildAt(e.PreviousMonth, e.CurrentMonth, e.Expenditures, e.Date).Calculations
			assert.InDelta(t, float64(want.UptoDateActualRevenue), float64(e.Calculations.UptoDateActualRevenue), 1e-3, p.ID)
			assert.InDelta(t, float64(want.UptoDateSlippage), float64(e.Calculations.UptoDateSlippage), 1e-3, p.ID)
			assert.InDelta(t, float64(want.UptoDateReceivable), float64(e.Calculations.UptoDateReceivable), 1e-3, p.ID)
		}
	}
}

func TestSamplePortfolio(t *testing.T) {
	projects := SampleProjects().Projects
	stats := pipeline.AggregatePortfolio(projects, model.DefaultThresholds())
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 10, stats.InProgress)
	assert.Equal(t, 9, stats.HighRisk)

	for _, pr := range pipeline.EvaluateAll(projects, model.DefaultThresholds(), nil) {
		if pr.ProjectID == "PROJ-005" {
			assert.False(t, pr.Risk.IsHighRisk)
		}
	}
}

func TestParseArray(t *testing.T) {
	in := `[
		{"id":"A","name":"Alpha","caValue":"1,000","status":"in progress"},
		{"id":"B","caValue":null,"status":"archived"},
		"not a project",
		{"name":"no id"}
	]`
	res := Parse(strings.NewReader(in), Options{})
	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.ParseErrors)
	require.Len(t, res.Projects, 2)

	assert.Equal(t, model.Amount(1000), res.Projects[0].CAValue)
	assert.Equal(t, model.StatusInProgress, res.Projects[0].Status)

	assert.Equal(t, "B", res.Projects[1].Name)
	assert.Zero(t, res.Projects[1].CAValue)
	assert.Equal(t, model.StatusPlanning, res.Projects[1].Status)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "archived")
}

func TestParseJSONL(t *testing.T) {
	in := strings.Join([]string{
		`{"id":"A","status":"Completed","progress":[{"currentMonth":{"workDone":10}}]}`,
		``,
		`{broken`,
		`{"id":"A","status":"Planning"}`,
		`{"id":"C","status":"Suspended"}`,
	}, "\n")
	res := Parse(strings.NewReader(in), Options{})
	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.ParseErrors)
	require.Len(t, res.Projects, 2)
	assert.Equal(t, model.StatusCompleted, res.Projects[0].Status)
	assert.NotEmpty(t, res.Projects[0].Progress[0].ID)
	assert.NotNil(t, res.Projects[0].Progress[0].Expenditures)
	assert.Contains(t, strings.Join(res.Warnings, "\n"), "duplicate")
}

func TestParseAssignsStableEntryIDs(t *testing.T) {
	in := `[{"id":"A","progress":[
		{"date":"2024-01-31T00:00:00Z","currentMonth":{"workDone":10}},
		{"date":"2024-02-29T00:00:00Z","currentMonth":{"workDone":20}}
	]},{"id":"B","progress":[{"date":"2024-01-31T00:00:00Z","currentMonth":{"workDone":10}}]}]`

	first := Parse(strings.NewReader(in), Options{})
	second := Parse(strings.NewReader(in), Options{})
	require.Len(t, first.Projects, 2)
	require.Len(t, second.Projects, 2)

	a1, a2 := first.Projects[0].Progress, second.Projects[0].Progress
	assert.Equal(t, a1[0].ID, a2[0].ID)
	assert.Equal(t, a1[1].ID, a2[1].ID)
	assert.NotEqual(t, a1[0].ID, a1[1].ID)
	assert.NotEqual(t, a1[0].ID, first.Projects[1].Progress[0].ID, "same figures in another project")
}

func TestParseRecompute(t *testing.T) {
	in := `[{"id":"A","status":"In Progress","progress":[{"previousMonth":{"actualWorkDone":100},"currentMonth":{"workDone":"50","escalationPercentage":10}}]}]`

	trusted := Parse(strings.NewReader(in), Options{})
	require.Len(t, trusted.Projects, 1)
	assert.Zero(t, trusted.Projects[0].Progress[0].Calculations.UptoDateActualRevenue)

	res := Parse(strings.NewReader(in), Options{Recompute: true})
	require.Len(t, res.Projects, 1)
	c := res.Projects[0].Progress[0].Calculations
	assert.InDelta(t, 155, float64(c.UptoDateActualRevenue), 1e-9)
	assert.Len(t, res.Warnings, 1)
}

func TestParseEmptyAndInvalid(t *testing.T) {
	res := Parse(strings.NewReader("   \n"), Options{})
	assert.NoError(t, res.Err)
	assert.Empty(t, res.Projects)

	res = Parse(strings.NewReader("[1, 2"), Options{})
	assert.Error(t, res.Err)
}

func TestExportRoundTrip(t *testing.T) {
	projects := SampleProjects().Projects[:3]
	th := model.DefaultThresholds()
	th.Lag.High = 20

	path := filepath.Join(t.TempDir(), "out", "portfolio.json")
	require.NoError(t, ExportFile(path, projects, &th, "RsMn"))

	res := ParseFile(path, Options{})
	require.NoError(t, res.Err)
	assert.Equal(t, path, res.Path)
	assert.Equal(t, "RsMn", res.Currency)
	require.NotNil(t, res.Thresholds)
	assert.Equal(t, th, *res.Thresholds)
	require.Len(t, res.Projects, 3)
	for i := range projects {
		assert.Equal(t, projects[i].ID, res.Projects[i].ID)
		assert.Equal(t, projects[i].Progress[0].Calculations, res.Projects[i].Progress[0].Calculations)
		assert.Equal(t, *projects[i].Budget, *res.Projects[i].Budget)
	}
}

func TestParseFileMissing(t *testing.T) {
	res := ParseFile(filepath.Join(t.TempDir(), "nope.json"), Options{})
	assert.Error(t, res.Err)
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "b.JSONL", "notes.txt", filepath.Join(".hidden", "c.json"), filepath.Join("sub", "d.json")} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600))
	}

	files, err := ScanDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "a.json"), files[0])

	single, err := ScanDir(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.json")}, single)
}
