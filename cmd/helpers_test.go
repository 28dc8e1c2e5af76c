package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/riskboard/internal/config"
	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/source"
	"github.com/theirongolddev/riskboard/internal/store"
)

func TestParseAmountArg(t *testing.T) {
	v, err := parseAmountArg("ca-value", "1,250,000")
	require.NoError(t, err)
	assert.Equal(t, model.Amount(1_250_000), v)

	v, err = parseAmountArg("escalation", "7.5%")
	require.NoError(t, err)
	assert.Equal(t, model.Amount(7.5), v)

	_, err = parseAmountArg("ca-value", "lots")
	assert.ErrorContains(t, err, "ca-value")
}

func TestParseExpenditures(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Expenditure.Aliases = map[string]string{"subbie": model.ExpSubcontractor}

	exp, err := parseExpenditures(cfg, []string{"material=100", "Material Cost=50", "subbie=10", "Site Security=5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]model.Amount{
		model.ExpMaterial:      150,
		model.ExpSubcontractor: 10,
		"Site Security":        5,
	}, exp)

	for _, bad := range []string{"material", "=5", "material=-1", "material=abc"} {
		_, err := parseExpenditures(cfg, []string{bad})
		assert.Error(t, err, bad)
	}
}

func TestPrevFlagsSet(t *testing.T) {
	given := map[string]bool{"prev-vetted": true, "work-done": true, "prev-work-done": true}
	changed := func(name string) bool { return given[name] }
	assert.Equal(t, []string{"prev-work-done", "prev-vetted"}, prevFlagsSet(changed))

	none := func(string) bool { return false }
	assert.Empty(t, prevFlagsSet(none))
}

func TestProgressAddRejectsPrevFlagsWithLedgerBalance(t *testing.T) {
	flagFromLedger = true
	require.NoError(t, progressAddCmd.Flags().Set("prev-vetted", "5"))
	t.Cleanup(func() {
		flagPrevVetted = "0"
		progressAddCmd.Flags().Lookup("prev-vetted").Changed = false
	})

	err := runProgressAdd(progressAddCmd, []string{"P-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--prev-vetted")
	assert.Contains(t, err.Error(), "--from-ledger=false")
}

func TestBandFor(t *testing.T) {
	th := model.DefaultThresholds()
	for _, name := range []string{"lag", "scope-creep", "scope_creep", "Slippage", "receivable"} {
		b, err := bandFor(&th, name)
		require.NoError(t, err, name)
		assert.NotNil(t, b)
	}

	b, err := bandFor(&th, "scope creep")
	require.NoError(t, err)
	b.High = 40
	assert.InDelta(t, 40, th.ScopeCreep.High, 1e-9)

	_, err = bandFor(&th, "velocity")
	assert.Error(t, err)
}

func TestStoreProjectsSkipsOrReplacesExisting(t *testing.T) {
	ctx := context.Background()
	res := source.SampleProjects()
	require.NoError(t, res.Err)

	st := store.NewMemory()
	s, err := storeProjects(ctx, st, res.Projects, false)
	require.NoError(t, err)
	assert.Equal(t, importStats{added: len(res.Projects)}, s)

	s, err = storeProjects(ctx, st, res.Projects[:3], false)
	require.NoError(t, err)
	assert.Equal(t, importStats{skipped: 3}, s)

	renamed := res.Projects[0].Clone()
	renamed.Name = "Renamed"
	s, err = storeProjects(ctx, st, []model.Project{renamed}, true)
	require.NoError(t, err)
	assert.Equal(t, importStats{updated: 1}, s)

	got, err := st.Get(ctx, renamed.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Len(t, got.Progress, len(res.Projects[0].Progress))
}

func TestReimportWithReplaceKeepsLedger(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	file := filepath.Join(dir, "portfolio.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"id":"P-1","name":"Bridge","status":"In Progress","caValue":1000,
		"progress":[{"date":"2024-03-31T00:00:00Z","currentMonth":{"workDone":100,"vettedRevenue":80}}]}]`), 0o600))

	st, err := store.Open(filepath.Join(dir, "riskboard.db"))
	require.NoError(t, err)
	defer st.Close()

	for range 3 {
		res := source.ParseFile(file, source.Options{})
		require.NoError(t, res.Err)
		_, err := storeProjects(ctx, st, res.Projects, true)
		require.NoError(t, err)
	}

	got, err := st.Get(ctx, "P-1")
	require.NoError(t, err)
	assert.Len(t, got.Progress, 1)
}

func TestFilterDetachArg(t *testing.T) {
	got := filterDetachArg([]string{"daemon", "--detach", "--addr", ":9000", "--detach=true"})
	assert.Equal(t, []string{"daemon", "--addr", ":9000"}, got)
}

func TestPIDFileLifecycle(t *testing.T) {
	dir := t.TempDir()
	pf := pidFile(filepath.Join(dir, "riskboardd.pid"))

	require.NoError(t, pf.write(daemonRuntimeState{PID: 4242, Addr: "127.0.0.1:8787"}))
	pid, err := pf.pid()
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)

	st, err := pf.state()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8787", st.Addr)

	pf.remove()
	_, err = pf.pid()
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NoError(t, pf.ensureStopped())
}

func TestResolveDaemonSettingsDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.General.DataDir = t.TempDir()

	ds := resolveDaemonSettings(cfg)
	assert.Equal(t, cfg.Daemon.Addr, ds.addr)
	assert.Equal(t, pidFile(filepath.Join(cfg.General.DataDir, "riskboardd.pid")), ds.pidFile)
	assert.Positive(t, ds.interval)
}
