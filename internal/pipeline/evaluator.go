package pipeline

import (
	"sync"

	"github.com/theirongolddev/riskboard/internal/model"
)

// Evaluator memoizes KPI and risk evaluation per project. An entry is
// reused only while the project's ledger tail, contract values, targets
// and the thresholds are unchanged. Safe for concurrent use.
type Evaluator struct {
	mu      sync.Mutex
	th      model.KpiThresholds
	entries map[string]cachedEval
	hits    int
	misses  int
}

type evalKey struct {
	lastEntry string
	entries   int
	ca        model.Amount
	revised   model.Amount
	planned   model.Amount
	targets   float64
	nTargets  int
	th        model.KpiThresholds
}

type cachedEval struct {
	key  evalKey
	kpis model.KPISet
	risk model.RiskResult
}

// NewEvaluator creates an Evaluator classifying against th.
func NewEvaluator(th model.KpiThresholds) *Evaluator {
	return &Evaluator{th: th, entries: make(map[string]cachedEval)}
}

// SetThresholds swaps the thresholds. Cached results computed under other
// thresholds miss on their next lookup.
func (e *Evaluator) SetThresholds(th model.KpiThresholds) {
	e.mu.Lock()
	e.th = th
	e.mu.Unlock()
}

// Thresholds returns the thresholds currently in use.
func (e *Evaluator) Thresholds() model.KpiThresholds {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.th
}

// Evaluate returns the KPIs and risk result for p, computing them only
// when nothing cached matches.
func (e *Evaluator) Evaluate(p model.Project) (model.KPISet, model.RiskResult) {
	e.mu.Lock()
	key := keyFor(p, e.th)
	if c, ok := e.entries[p.ID]; ok && c.key == key {
		e.hits++
		e.mu.Unlock()
		return copyKPIs(c.kpis), c.risk
	}
	th := e.th
	e.mu.Unlock()

	kpis, risk := Evaluate(p, th)

	e.mu.Lock()
	e.misses++
	e.entries[p.ID] = cachedEval{key: key, kpis: copyKPIs(kpis), risk: risk}
	e.mu.Unlock()
	return kpis, risk
}

// Forget drops the cached result for a project.
func (e *Evaluator) Forget(id string) {
	e.mu.Lock()
	delete(e.entries, id)
	e.mu.Unlock()
}

// Stats reports cache hits and misses since creation.
func (e *Evaluator) Stats() (hits, misses int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hits, e.misses
}

func keyFor(p model.Project, th model.KpiThresholds) evalKey {
	k := evalKey{
		entries:  len(p.Progress),
		ca:       p.CAValue,
		revised:  p.RevisedCAValue,
		planned:  p.PlannedProfitability,
		targets:  PlannedRevenue(p),
		nTargets: len(p.Targets),
		th:       th,
	}
	if last, ok := p.LastEntry(); ok {
		k.lastEntry = last.ID
	}
	return k
}

func copyKPIs(k model.KPISet) model.KPISet {
	out := k
	out.Expenditures = make(map[string]float64, len(k.Expenditures))
	for name, v := range k.Expenditures {
		out.Expenditures[name] = v
	}
	return out
}
