package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/genn/painel-os/internal/orders/types"
	"github.com/shopspring/decimal"
)

type Aggregation string

const (
	Count Aggregation = "count"
	Sum   Aggregation = "sum"
	Mean  Aggregation = "mean"
)

func ParseAggregation(s string) (Aggregation, error) {
	switch a := Aggregation(s); a {
	case Count, Sum, Mean:
		return a, nil
	case "":
		return Count, nil
	default:
		return "", fmt.Errorf("invalid aggregation %q: want count, sum or mean", s)
	}
}

func label(v string) string {
	if v == "" {
		return types.MissingLabel
	}
	return v
}

/*
GroupByDimension aggregates measureField per value of dimensionField. Count
counts rows and ignores measureField. Sum and Mean only use rows whose amount
has a value; a bucket with none reports 0. Rows with an empty dimension form
the types.MissingLabel bucket instead of being dropped.
*/
func GroupByDimension(ds *types.Dataset, dimensionField, measureField string, kind Aggregation) (map[string]decimal.Decimal, error) {
	if kind == "" {
		kind = Count
	}
	if _, err := ParseAggregation(string(kind)); err != nil {
		return nil, err
	}
	dims, err := ds.Texts(dimensionField)
	if err != nil {
		return nil, err
	}

	out := make(map[string]decimal.Decimal)
	if kind == Count {
		counts := make(map[string]int64)
		for _, d := range dims {
			counts[label(d)]++
		}
		for k, n := range counts {
			out[k] = decimal.NewFromInt(n)
		}
		return out, nil
	}

	values, err := ds.Money(measureField)
	if err != nil {
		return nil, err
	}
	sums := make(map[string]decimal.Decimal)
	valid := make(map[string]int64)
	for i, d := range dims {
		k := label(d)
		if _, ok := sums[k]; !ok {
			sums[k] = decimal.Zero
		}
		if values[i].Valid {
			sums[k] = sums[k].Add(values[i].Decimal)
			valid[k]++
		}
	}
	for k, s := range sums {
		switch {
		case kind == Sum:
			out[k] = s
		case valid[k] == 0:
			out[k] = decimal.Zero
		default:
			out[k] = s.Div(decimal.NewFromInt(valid[k]))
		}
	}
	return out, nil
}

type Bucket struct {
	Key   string          `json:"key"`
	Value decimal.Decimal `json:"value"`
}

// SortBuckets orders a grouping by value, largest first, then by key.
func SortBuckets(m map[string]decimal.Decimal) []Bucket {
	out := make([]Bucket, 0, len(m))
	for k, v := range m {
		out = append(out, Bucket{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Value.Cmp(out[j].Value); c != 0 {
			return c > 0
		}
		return out[i].Key < out[j].Key
	})
	return out
}

type DimensionCount struct {
	Values []string `json:"values"`
	Count  int      `json:"count"`
}

// CountByDimensions counts rows per combination of the text fields, most
// frequent first. Empty values are reported as types.MissingLabel.
func CountByDimensions(ds *types.Dataset, fields ...string) ([]DimensionCount, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no dimension given", types.ErrSchema)
	}
	cols := make([][]string, len(fields))
	for i, f := range fields {
		col, err := ds.Texts(f)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}

	const sep = "\x1f"
	counts := make(map[string]int)
	for row := 0; row < ds.Len(); row++ {
		key := make([]string, len(cols))
		for i, col := range cols {
			key[i] = label(col[row])
		}
		counts[strings.Join(key, sep)]++
	}

	out := make([]DimensionCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, DimensionCount{Values: strings.Split(k, sep), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return strings.Join(out[i].Values, sep) < strings.Join(out[j].Values, sep)
	})
	return out, nil
}
