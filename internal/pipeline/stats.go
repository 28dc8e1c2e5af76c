package pipeline

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/theirongolddev/riskboard/internal/model"
)

// Distribution summarises how lag, slippage and receivable percentages
// spread across the given projects.
func Distribution(projects []model.Project, th model.KpiThresholds) model.PortfolioDistribution {
	lag := make([]float64, 0, len(projects))
	slip := make([]float64, 0, len(projects))
	recv := make([]float64, 0, len(projects))

	for _, p := range projects {
		_, r := Evaluate(p, th)
		lag = append(lag, r.LagPercentage)
		slip = append(slip, r.SlippagePercentage)
		recv = append(recv, r.ReceivablePercentage)
	}

	return model.PortfolioDistribution{
		Projects:   len(projects),
		Lag:        spread(lag),
		Slippage:   spread(slip),
		Receivable: spread(recv),
	}
}

func spread(data []float64) model.MetricSpread {
	if len(data) == 0 {
		return model.MetricSpread{}
	}
	s := model.MetricSpread{
		Mean: stat.Mean(data, nil),
		Max:  floats.Max(data),
	}
	// sample standard deviation is undefined for a single value
	if len(data) > 1 {
		s.StdDev = stat.StdDev(data, nil)
	}
	return s
}
