package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/pipeline"
	"github.com/theirongolddev/riskboard/internal/source"
	"github.com/theirongolddev/riskboard/internal/store"
)

func newTestService(t *testing.T, cfg Config) (*Service, *store.Memory) {
	t.Helper()
	res := source.SampleProjects()
	require.NoError(t, res.Err)
	mem := store.NewMemory(res.Projects...)
	cfg.Log = zerolog.Nop()
	return New(cfg, mem, pipeline.NewEvaluator(model.DefaultThresholds())), mem
}

func eventTypes(s *Service) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{Projects: 10, HighRisk: 9, TotalRevenue: 1_000, TotalExpenditure: 600, TotalProfit: 400}
	curr := Snapshot{Projects: 11, HighRisk: 8, TotalRevenue: 1_250, TotalExpenditure: 700, TotalProfit: 550}

	delta := diffSnapshots(prev, curr)
	assert.Equal(t, Delta{Projects: 1, HighRisk: -1, Revenue: 250, Expenditure: 100, Profit: 150}, delta)
	assert.False(t, delta.isZero())
	assert.True(t, diffSnapshots(curr, curr).isZero())
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{Interval: 10 * time.Second, EventsBuffer: 2, Log: zerolog.Nop()}, store.NewMemory(), nil)

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()
	require.Len(t, s.events, 2)
	assert.Equal(t, int64(2), s.events[0].ID)
	assert.Equal(t, int64(3), s.events[1].ID)
}

func TestNewDefaults(t *testing.T) {
	s := New(Config{Interval: time.Second}, store.NewMemory(), nil)
	assert.Equal(t, 30*time.Second, s.cfg.Interval)
	assert.Equal(t, 200, s.cfg.EventsBuffer)
	assert.Equal(t, "127.0.0.1:8788", s.cfg.Addr)
	assert.NotNil(t, s.ev)
}

func TestPollEvents(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestService(t, Config{})

	s.pollOnce(ctx)
	assert.Equal(t, []string{EventSnapshot}, eventTypes(s))
	st := s.snapshotStatus()
	assert.Equal(t, 10, st.Summary.Projects)
	assert.Equal(t, 9, st.Summary.HighRisk)
	assert.Equal(t, 10, st.Reevaluated)

	// nothing changed, nothing published
	s.pollOnce(ctx)
	assert.Len(t, eventTypes(s), 1)
	assert.Equal(t, 10, s.snapshotStatus().CacheHits)

	removed, err := mem.Get(ctx, "PROJ-001")
	require.NoError(t, err)
	require.NoError(t, mem.Remove(ctx, "PROJ-001"))
	s.pollOnce(ctx)
	assert.Equal(t, []string{EventSnapshot, EventPortfolioDelta}, eventTypes(s))

	s.mu.RLock()
	last := s.events[len(s.events)-1]
	s.mu.RUnlock()
	assert.Equal(t, -1, last.Delta.Projects)
	assert.Equal(t, -1, last.Delta.HighRisk)

	require.NoError(t, mem.Append(ctx, removed))
	s.pollOnce(ctx)
	assert.Equal(t, []string{EventSnapshot, EventPortfolioDelta, EventPortfolioDelta, EventRiskChange}, eventTypes(s))

	s.mu.RLock()
	change := s.events[len(s.events)-1].Change
	s.mu.RUnlock()
	require.NotNil(t, change)
	assert.Equal(t, "PROJ-001", change.ProjectID)
	assert.True(t, change.HighRisk)
	assert.EqualValues(t, 4, s.snapshotStatus().PollCount)
}

func TestPollAppliesFilters(t *testing.T) {
	s, _ := newTestService(t, Config{Directorate: "north"})
	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	assert.Equal(t, 2, st.Summary.Projects)
	assert.Equal(t, "north", st.DirectorateFilter)
}

type failingStore struct {
	store.Store
}

func (failingStore) List(context.Context) ([]model.Project, error) {
	return nil, errors.New("disk on fire")
}

func TestPollErrorIsRecorded(t *testing.T) {
	s := New(Config{Log: zerolog.Nop()}, failingStore{store.NewMemory()}, nil)
	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	assert.Contains(t, st.LastError, "disk on fire")
	assert.EqualValues(t, 1, st.PollCount)
	assert.Empty(t, eventTypes(s))
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url) //nolint:noctx // test helper
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestHTTPAPI(t *testing.T) {
	s, _ := newTestService(t, Config{OverheadPercent: 10})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz") //nolint:noctx // test
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, srv.URL+"/v1/portfolio", nil))

	s.pollOnce(context.Background())

	var pf Portfolio
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/portfolio", &pf))
	assert.Equal(t, 10, pf.Stats.Total)
	require.Len(t, pf.Projects, 10)
	for i := 1; i < len(pf.Projects); i++ {
		assert.GreaterOrEqual(t, pf.Projects[i-1].Score, pf.Projects[i].Score)
	}
	assert.NotEmpty(t, pf.Directorates)
	assert.Equal(t, 10, pf.Distribution.Projects)

	var rep ProjectReport
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/projects/PROJ-005/risk", &rep))
	assert.Equal(t, "PROJ-005", rep.ProjectID)
	assert.False(t, rep.Risk.IsHighRisk)
	assert.NotEmpty(t, rep.Recommendations)
	assert.Positive(t, rep.Budget.TotalPlannedRevenue)

	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/v1/projects/NOPE/risk", &errBody))
	assert.Contains(t, errBody["error"], "NOPE")

	var st Status
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/status", &st))
	assert.EqualValues(t, 1, st.PollCount)
	assert.Equal(t, 1, st.EventCount)

	var events []Event
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/v1/events", &events))
	require.Len(t, events, 1)
	assert.Equal(t, EventSnapshot, events[0].Type)
}

func TestStreamSendsSnapshot(t *testing.T) {
	s, _ := newTestService(t, Config{})
	s.pollOnce(context.Background())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: snapshot", strings.TrimSpace(line))
	line, err = r.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "data: "))
	assert.Contains(t, line, `"projects":10`)
}
