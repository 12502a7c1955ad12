package metrics

import (
	"fmt"
	"time"

	"github.com/genn/painel-os/internal/orders/types"
)

// DateRange is an inclusive range of calendar days. A zero Start or End
// leaves that side unbounded.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func Between(start, end time.Time) DateRange {
	return DateRange{Start: start, End: end}
}

// OnDay is the range covering the single day of t.
func OnDay(t time.Time) DateRange {
	return DateRange{Start: t, End: t}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Contains compares at day precision, so any time of day on End is inside.
func (r DateRange) Contains(t time.Time) bool {
	day := dayOf(t)
	if !r.Start.IsZero() && day.Before(dayOf(r.Start)) {
		return false
	}
	if !r.End.IsZero() && day.After(dayOf(r.End)) {
		return false
	}
	return true
}

func (r DateRange) Unbounded() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && dayOf(r.End).Before(dayOf(r.Start)) {
		return fmt.Errorf("invalid date range: end %s before start %s",
			r.End.Format(time.DateOnly), r.Start.Format(time.DateOnly))
	}
	return nil
}

// InRange keeps the rows whose dateField lies in r. Rows with no date are
// dropped even when r is unbounded.
func InRange(ds *types.Dataset, dateField string, r DateRange) (*types.Dataset, error) {
	dates, err := ds.Dates(dateField)
	if err != nil {
		return nil, err
	}
	return ds.Where(func(i int) bool {
		return dates[i].Valid && r.Contains(dates[i].Time)
	}), nil
}

// scope applies the contract filter and, when dateField is set, the date range.
func scope(ds *types.Dataset, dateField string, r DateRange, contract string) (*types.Dataset, error) {
	view, err := ds.ForContract(contract)
	if err != nil {
		return nil, err
	}
	if dateField == "" {
		return view, nil
	}
	return InRange(view, dateField, r)
}
