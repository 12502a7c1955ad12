package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/genn/painel-os/internal/orders/types"
	"github.com/shopspring/decimal"
)

type Granularity string

const (
	Daily   Granularity = "day"
	Monthly Granularity = "month"
	Yearly  Granularity = "year"
)

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case Daily, Monthly, Yearly:
		return g, nil
	case "":
		return Daily, nil
	default:
		return "", fmt.Errorf("invalid granularity %q: want day, month or year", s)
	}
}

// start truncates t to the first day of its period.
func (g Granularity) start(t time.Time) time.Time {
	y, m, d := t.Date()
	switch g {
	case Yearly:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	case Monthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}

func (g Granularity) key(start time.Time) string {
	switch g {
	case Yearly:
		return start.Format("2006")
	case Monthly:
		return start.Format("2006-01")
	default:
		return start.Format(time.DateOnly)
	}
}

type PeriodQuery struct {
	DateField   string
	Granularity Granularity
	Contract    string
	Range       DateRange
	// ValueField, when set, names a money column summed per bucket.
	ValueField string
}

type PeriodBucket struct {
	Key   string          `json:"key"`
	Start time.Time       `json:"start"`
	Count int             `json:"count"`
	Sum   decimal.Decimal `json:"sum"`
}

// GroupByPeriod buckets the rows by the period of DateField, oldest first.
// Rows with no date fall in no bucket and empty periods are not emitted.
func GroupByPeriod(ds *types.Dataset, q PeriodQuery) ([]PeriodBucket, error) {
	if q.Granularity == "" {
		q.Granularity = Daily
	}
	if _, err := ParseGranularity(string(q.Granularity)); err != nil {
		return nil, err
	}
	if q.ValueField != "" {
		if _, err := ds.Money(q.ValueField); err != nil {
			return nil, err
		}
	}

	view, err := scope(ds, q.DateField, q.Range, q.Contract)
	if err != nil {
		return nil, err
	}
	dates, err := view.Dates(q.DateField)
	if err != nil {
		return nil, err
	}
	var values []decimal.NullDecimal
	if q.ValueField != "" {
		if values, err = view.Money(q.ValueField); err != nil {
			return nil, err
		}
	}

	buckets := make(map[time.Time]*PeriodBucket)
	for i, d := range dates {
		start := q.Granularity.start(d.Time)
		b, ok := buckets[start]
		if !ok {
			b = &PeriodBucket{Key: q.Granularity.key(start), Start: start, Sum: decimal.Zero}
			buckets[start] = b
		}
		b.Count++
		if values != nil && values[i].Valid {
			b.Sum = b.Sum.Add(values[i].Decimal)
		}
	}

	out := make([]PeriodBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
