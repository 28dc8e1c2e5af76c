package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/riskboard/internal/model"
)

// ProjectLister is the read side of a project store.
type ProjectLister interface {
	List(ctx context.Context) ([]model.Project, error)
}

// LoadResult holds a store snapshot and its evaluation.
type LoadResult struct {
	Projects    []model.Project
	Evaluated   []model.ProjectRisk // same order as Projects
	Stats       model.PortfolioStats
	CacheHits   int
	Reevaluated int
}

// ProgressFunc is called during evaluation to report progress.
// current is the number of projects processed so far, total is the total count.
type ProgressFunc func(current, total int)

// Load lists projects from src and evaluates them with a bounded worker
// pool. A nil ev evaluates without memoization.
func Load(ctx context.Context, src ProjectLister, ev *Evaluator, progressFn ProgressFunc) (*LoadResult, error) {
	projects, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	if ev == nil {
		ev = NewEvaluator(model.DefaultThresholds())
	}
	hitsBefore, missesBefore := ev.Stats()

	result := &LoadResult{Projects: projects}
	if len(projects) == 0 {
		return result, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(projects) {
		numWorkers = len(projects)
	}

	work := make(chan int, len(projects))
	evaluated := make([]model.ProjectRisk, len(projects))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range projects {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				if ctx.Err() != nil {
					continue
				}
				p := projects[idx]
				kpis, risk := ev.Evaluate(p)
				evaluated[idx] = newProjectRisk(p, kpis, risk, RiskScore(risk))
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(projects))
				}
			}
		}()
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("evaluating projects: %w", err)
	}

	result.Evaluated = evaluated
	result.Stats = statsFromEvaluated(projects, evaluated)

	hitsAfter, missesAfter := ev.Stats()
	result.CacheHits = hitsAfter - hitsBefore
	result.Reevaluated = missesAfter - missesBefore
	return result, nil
}

// statsFromEvaluated folds evaluated projects into portfolio totals.
func statsFromEvaluated(projects []model.Project, evaluated []model.ProjectRisk) model.PortfolioStats {
	var stats model.PortfolioStats
	for i, p := range projects {
		pr := evaluated[i]
		stats.Total++
		switch p.Status {
		case model.StatusInProgress:
			stats.InProgress++
		case model.StatusCompleted:
			stats.Completed++
		case model.StatusPlanning:
			stats.Planning++
		case model.StatusSuspended:
			stats.Suspended++
		case model.StatusTransferred:
			stats.Transferred++
		}
		stats.TotalCAValue += float64(p.CAValue)
		stats.TotalRevenue += pr.KPIs.ActualRevenue
		stats.TotalExpenditure += pr.Risk.TotalExpenditure
		if pr.Risk.IsHighRisk {
			stats.HighRisk++
		}
	}
	stats.TotalProfit = stats.TotalRevenue - stats.TotalExpenditure
	return stats
}
