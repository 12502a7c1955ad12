package metrics

import (
	"sort"

	"github.com/genn/painel-os/internal/orders/types"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the amounts of a money column. Count only includes
// cells with a value; every statistic is 0 when Count is 0.
type Summary struct {
	Count  int             `json:"count"`
	Sum    decimal.Decimal `json:"sum"`
	Mean   float64         `json:"mean"`
	StdDev float64         `json:"std_dev"`
	Min    float64         `json:"min"`
	Median float64         `json:"median"`
	Max    float64         `json:"max"`
}

func Describe(ds *types.Dataset, valueField string) (Summary, error) {
	values, err := ds.Money(valueField)
	if err != nil {
		return Summary{}, err
	}

	out := Summary{Sum: sum(values)}
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Valid {
			xs = append(xs, v.Decimal.InexactFloat64())
		}
	}
	out.Count = len(xs)
	if out.Count == 0 {
		return out, nil
	}

	sort.Float64s(xs)
	out.Mean = stat.Mean(xs, nil)
	if out.Count > 1 {
		out.StdDev = stat.StdDev(xs, nil)
	}
	out.Min = floats.Min(xs)
	out.Max = floats.Max(xs)
	out.Median = stat.Quantile(0.5, stat.Empirical, xs, nil)
	return out, nil
}
