// Package daemon provides the long-running portfolio risk monitor service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/theirongolddev/riskboard/internal/model"
	"github.com/theirongolddev/riskboard/internal/pipeline"
	"github.com/theirongolddev/riskboard/internal/store"
)

// Event types.
const (
	EventSnapshot       = "snapshot"
	EventPortfolioDelta = "portfolio_delta"
	EventRiskChange     = "risk_change"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DBPath          string
	Directorate     string
	Status          string
	Category        string
	OverheadPercent float64
	Interval        time.Duration
	Addr            string
	EventsBuffer    int
	Log             zerolog.Logger
}

// Snapshot is a compact portfolio state for status/event payloads.
type Snapshot struct {
	At               time.Time `json:"at"`
	Projects         int       `json:"projects"`
	InProgress       int       `json:"in_progress"`
	HighRisk         int       `json:"high_risk"`
	TotalCAValue     float64   `json:"total_ca_value"`
	TotalRevenue     float64   `json:"total_revenue"`
	TotalExpenditure float64   `json:"total_expenditure"`
	TotalProfit      float64   `json:"total_profit"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Projects    int     `json:"projects"`
	HighRisk    int     `json:"high_risk"`
	Revenue     float64 `json:"revenue"`
	Expenditure float64 `json:"expenditure"`
	Profit      float64 `json:"profit"`
}

func (d Delta) isZero() bool {
	return d.Projects == 0 &&
		d.HighRisk == 0 &&
		d.Revenue == 0 &&
		d.Expenditure == 0 &&
		d.Profit == 0
}

// RiskChange describes a project whose high-risk verdict flipped.
type RiskChange struct {
	ProjectID string  `json:"project_id"`
	Name      string  `json:"name"`
	HighRisk  bool    `json:"high_risk"`
	Score     float64 `json:"score"`
}

// Event is emitted whenever the portfolio snapshot or a project's verdict changes.
type Event struct {
	ID        int64       `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Snapshot  Snapshot    `json:"snapshot"`
	Delta     Delta       `json:"delta"`
	Change    *RiskChange `json:"change,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt         time.Time `json:"started_at"`
	LastPollAt        time.Time `json:"last_poll_at"`
	PollIntervalSec   int       `json:"poll_interval_sec"`
	PollCount         int64     `json:"poll_count"`
	DBPath            string    `json:"db_path"`
	DirectorateFilter string    `json:"directorate_filter,omitempty"`
	StatusFilter      string    `json:"status_filter,omitempty"`
	CategoryFilter    string    `json:"category_filter,omitempty"`
	Summary           Snapshot  `json:"summary"`
	LastError         string    `json:"last_error,omitempty"`
	EventCount        int       `json:"event_count"`
	SubscriberCount   int       `json:"subscriber_count"`
	CacheHits         int       `json:"cache_hits"`
	Reevaluated       int       `json:"reevaluated"`
}

// Portfolio is served at /v1/portfolio.
type Portfolio struct {
	Snapshot     Snapshot                    `json:"snapshot"`
	Stats        model.PortfolioStats        `json:"stats"`
	Projects     []model.ProjectRisk         `json:"projects"`
	Directorates []model.DirectorateStats    `json:"directorates"`
	Distribution model.PortfolioDistribution `json:"distribution"`
}

// ProjectReport is served at /v1/projects/{id}/risk.
type ProjectReport struct {
	model.ProjectRisk
	Recommendations []string             `json:"recommendations"`
	Budget          model.BudgetTotals   `json:"budget"`
	Variance        model.BudgetVariance `json:"variance"`
	Progress        float64              `json:"progress_percent"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config
	st  store.Store
	ev  *pipeline.Evaluator
	log zerolog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	portfolio   Portfolio
	byID        map[string]int // index into portfolio.Projects
	cacheHits   int
	reevaluated int
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service reading projects from st.
func New(cfg Config, st store.Store, ev *pipeline.Evaluator) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if ev == nil {
		ev = pipeline.NewEvaluator(model.DefaultThresholds())
	}

	return &Service{
		cfg:       cfg,
		st:        st,
		ev:        ev,
		log:       cfg.Log.With().Str("component", "daemon").Logger(),
		startedAt: time.Now(),
		byID:      make(map[string]int),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Last-Event-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/portfolio", s.handlePortfolio)
		r.Get("/projects/{id}/risk", s.handleProjectRisk)
		r.Get("/events", s.handleEvents)
		r.Get("/stream", s.handleStream)
	})
	return r
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.log.Info().Msg("shutting down")
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// filteredLister narrows a store listing to the configured filters.
type filteredLister struct {
	src         pipeline.ProjectLister
	directorate string
	status      string
	category    string
}

func (f filteredLister) List(ctx context.Context) ([]model.Project, error) {
	projects, err := f.src.List(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.Filter(projects, f.directorate, f.status, f.category), nil
}

func (s *Service) pollOnce(ctx context.Context) {
	start := time.Now()
	src := filteredLister{src: s.st, directorate: s.cfg.Directorate, status: s.cfg.Status, category: s.cfg.Category}
	res, err := pipeline.Load(ctx, src, s.ev, nil)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("poll failed")
		return
	}

	now := time.Now()
	th := s.ev.Thresholds()
	snap := snapshotFromStats(res.Stats, now)

	ranked := make([]model.ProjectRisk, len(res.Evaluated))
	copy(ranked, res.Evaluated)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ProjectID < ranked[j].ProjectID
	})
	byID := make(map[string]int, len(ranked))
	for i, pr := range ranked {
		byID[pr.ProjectID] = i
	}
	pf := Portfolio{
		Snapshot:     snap,
		Stats:        res.Stats,
		Projects:     ranked,
		Directorates: pipeline.AggregateByDirectorate(res.Projects, th),
		Distribution: pipeline.Distribution(res.Projects, th),
	}

	var pending []Event

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot
	prevPortfolio := s.portfolio
	prevByID := s.byID

	s.hasSnapshot = true
	s.snapshot = snap
	s.portfolio = pf
	s.byID = byID
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""
	s.cacheHits = res.CacheHits
	s.reevaluated = res.Reevaluated

	newEvent := func(typ string, d Delta, c *RiskChange) {
		s.nextEventID++
		pending = append(pending, Event{
			ID:        s.nextEventID,
			Type:      typ,
			Timestamp: now,
			Snapshot:  snap,
			Delta:     d,
			Change:    c,
		})
	}

	if !prevExists {
		newEvent(EventSnapshot, Delta{}, nil)
	} else {
		if delta := diffSnapshots(prev, snap); !delta.isZero() {
			newEvent(EventPortfolioDelta, delta, nil)
		}
		for _, c := range riskChanges(prevPortfolio.Projects, prevByID, ranked) {
			newEvent(EventRiskChange, Delta{}, &c)
		}
	}
	s.mu.Unlock()

	for _, ev := range pending {
		s.publishEvent(ev)
	}

	s.log.Debug().
		Int("projects", snap.Projects).
		Int("high_risk", snap.HighRisk).
		Int("cache_hits", res.CacheHits).
		Int("reevaluated", res.Reevaluated).
		Dur("took", time.Since(start)).
		Msg("poll")
}

// riskChanges lists projects whose high-risk verdict differs from the
// previous poll. Projects that are new to the portfolio are reported when
// they arrive already flagged.
func riskChanges(prev []model.ProjectRisk, prevByID map[string]int, cur []model.ProjectRisk) []RiskChange {
	var out []RiskChange
	for _, pr := range cur {
		was := false
		if i, ok := prevByID[pr.ProjectID]; ok {
			was = prev[i].Risk.IsHighRisk
		}
		if was != pr.Risk.IsHighRisk {
			out = append(out, RiskChange{
				ProjectID: pr.ProjectID,
				Name:      pr.Name,
				HighRisk:  pr.Risk.IsHighRisk,
				Score:     pr.Score,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out
}

func snapshotFromStats(stats model.PortfolioStats, at time.Time) Snapshot {
	return Snapshot{
		At:               at,
		Projects:         stats.Total,
		InProgress:       stats.InProgress,
		HighRisk:         stats.HighRisk,
		TotalCAValue:     stats.TotalCAValue,
		TotalRevenue:     stats.TotalRevenue,
		TotalExpenditure: stats.TotalExpenditure,
		TotalProfit:      stats.TotalProfit,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Projects:    curr.Projects - prev.Projects,
		HighRisk:    curr.HighRisk - prev.HighRisk,
		Revenue:     curr.TotalRevenue - prev.TotalRevenue,
		Expenditure: curr.TotalExpenditure - prev.TotalExpenditure,
		Profit:      curr.TotalProfit - prev.TotalProfit,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:         s.startedAt,
		LastPollAt:        s.lastPollAt,
		PollIntervalSec:   int(s.cfg.Interval.Seconds()),
		PollCount:         s.pollCount,
		DBPath:            s.cfg.DBPath,
		DirectorateFilter: s.cfg.Directorate,
		StatusFilter:      s.cfg.Status,
		CategoryFilter:    s.cfg.Category,
		Summary:           s.snapshot,
		LastError:         s.lastError,
		EventCount:        len(s.events),
		SubscriberCount:   len(s.subs),
		CacheHits:         s.cacheHits,
		Reevaluated:       s.reevaluated,
	}
}

func (s *Service) projectReport(ctx context.Context, id string) (ProjectReport, error) {
	p, err := s.st.Get(ctx, id)
	if err != nil {
		return ProjectReport{}, err
	}
	kpis, risk := s.ev.Evaluate(p)
	totals := pipeline.BudgetTotalsWithOverhead(p, s.cfg.OverheadPercent)
	return ProjectReport{
		ProjectRisk: model.ProjectRisk{
			ProjectID:   p.ID,
			Name:        p.Name,
			Directorate: p.Directorate,
			Status:      p.Status,
			KPIs:        kpis,
			Risk:        risk,
			Score:       pipeline.RiskScore(risk),
		},
		Recommendations: pipeline.Recommendations(risk),
		Budget:          totals,
		Variance:        pipeline.CompareBudget(totals, kpis),
		Progress:        pipeline.ProgressPercentage(p, kpis),
	}, nil
}

func (s *Service) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handlePortfolio(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	pf := s.portfolio
	ready := s.hasSnapshot
	s.mu.RUnlock()

	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no snapshot yet"})
		return
	}
	writeJSON(w, http.StatusOK, pf)
}

func (s *Service) handleProjectRisk(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rep, err := s.projectReport(r.Context(), id)
	switch {
	case store.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("project %s not found", id)})
	case err != nil:
		s.log.Error().Err(err).Str("project", id).Msg("loading project")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, rep)
	}
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
