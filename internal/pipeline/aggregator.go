package pipeline

import (
	"sort"
	"strings"

	"github.com/theirongolddev/riskboard/internal/model"
)

// AggregatePortfolio computes headline statistics across projects, which
// the caller has already filtered.
func AggregatePortfolio(projects []model.Project, th model.KpiThresholds) model.PortfolioStats {
	return statsFromEvaluated(projects, EvaluateAll(projects, th, RiskScore))
}

// HighRiskProjects returns flagged projects sorted by descending score,
// ties broken by project ID. A nil score uses RiskScore.
func HighRiskProjects(projects []model.Project, th model.KpiThresholds, score func(model.RiskResult) float64) []model.ProjectRisk {
	if score == nil {
		score = RiskScore
	}

	var out []model.ProjectRisk
	for _, pr := range EvaluateAll(projects, th, score) {
		if pr.Risk.IsHighRisk {
			out = append(out, pr)
		}
	}
	sortByScore(out)
	return out
}

// EvaluateAll evaluates every project in input order. A nil score uses RiskScore.
func EvaluateAll(projects []model.Project, th model.KpiThresholds, score func(model.RiskResult) float64) []model.ProjectRisk {
	if score == nil {
		score = RiskScore
	}
	out := make([]model.ProjectRisk, 0, len(projects))
	for _, p := range projects {
		kpis, risk := Evaluate(p, th)
		out = append(out, newProjectRisk(p, kpis, risk, score(risk)))
	}
	return out
}

// RankProjects evaluates every project and sorts by descending score.
func RankProjects(projects []model.Project, th model.KpiThresholds) []model.ProjectRisk {
	out := EvaluateAll(projects, th, RiskScore)
	sortByScore(out)
	return out
}

func newProjectRisk(p model.Project, kpis model.KPISet, risk model.RiskResult, score float64) model.ProjectRisk {
	return model.ProjectRisk{
		ProjectID:   p.ID,
		Name:        p.Name,
		Directorate: p.Directorate,
		Status:      p.Status,
		KPIs:        kpis,
		Risk:        risk,
		Score:       score,
	}
}

func sortByScore(prs []model.ProjectRisk) {
	sort.SliceStable(prs, func(i, j int) bool {
		if prs[i].Score != prs[j].Score {
			return prs[i].Score > prs[j].Score
		}
		return prs[i].ProjectID < prs[j].ProjectID
	})
}

// AggregateByDirectorate computes per-directorate statistics, sorted by
// revenue descending.
func AggregateByDirectorate(projects []model.Project, th model.KpiThresholds) []model.DirectorateStats {
	dirMap := make(map[string]*model.DirectorateStats)
	var totalRevenue float64

	for _, p := range projects {
		ds, ok := dirMap[p.Directorate]
		if !ok {
			ds = &model.DirectorateStats{Directorate: p.Directorate}
			dirMap[p.Directorate] = ds
		}
		kpis, risk := Evaluate(p, th)
		ds.Projects++
		ds.TotalCAValue += float64(p.CAValue)
		ds.TotalRevenue += kpis.ActualRevenue
		ds.TotalExpenditure += risk.TotalExpenditure
		if risk.IsHighRisk {
			ds.HighRisk++
		}
		totalRevenue += kpis.ActualRevenue
	}

	dirs := make([]model.DirectorateStats, 0, len(dirMap))
	for _, ds := range dirMap {
		if totalRevenue > 0 {
			ds.SharePercent = ds.TotalRevenue / totalRevenue * 100
		}
		dirs = append(dirs, *ds)
	}
	sort.Slice(dirs, func(i, j int) bool {
		if dirs[i].TotalRevenue != dirs[j].TotalRevenue {
			return dirs[i].TotalRevenue > dirs[j].TotalRevenue
		}
		return dirs[i].Directorate < dirs[j].Directorate
	})

	return dirs
}

// FilterByDirectorate returns projects in the named directorate.
// An empty value or "All" returns the input unchanged.
func FilterByDirectorate(projects []model.Project, directorate string) []model.Project {
	if isAll(directorate) {
		return projects
	}
	var result []model.Project
	for _, p := range projects {
		if strings.EqualFold(p.Directorate, directorate) {
			result = append(result, p)
		}
	}
	return result
}

// FilterByStatus returns projects with the given status. Status names are
// matched leniently ("in-progress" finds In Progress).
func FilterByStatus(projects []model.Project, status string) []model.Project {
	if isAll(status) {
		return projects
	}
	want, ok := model.ParseStatus(status)
	if !ok {
		return nil
	}
	var result []model.Project
	for _, p := range projects {
		if p.Status == want {
			result = append(result, p)
		}
	}
	return result
}

// FilterByCategory returns projects in the named category.
func FilterByCategory(projects []model.Project, category string) []model.Project {
	if isAll(category) {
		return projects
	}
	var result []model.Project
	for _, p := range projects {
		if strings.EqualFold(p.Category, category) {
			result = append(result, p)
		}
	}
	return result
}

// Filter applies the directorate, status and category filters in turn.
func Filter(projects []model.Project, directorate, status, category string) []model.Project {
	projects = FilterByDirectorate(projects, directorate)
	projects = FilterByStatus(projects, status)
	return FilterByCategory(projects, category)
}

func isAll(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "all")
}
