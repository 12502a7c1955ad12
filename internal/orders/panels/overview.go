package panels

import (
	"github.com/genn/painel-os/internal/orders/metrics"
	"github.com/genn/painel-os/internal/orders/types"
)

type OverviewPanel struct {
	Received       int                     `json:"received"`
	Statuses       []metrics.Bucket        `json:"statuses"`
	Classification metrics.StatusBreakdown `json:"classification"`
	Completion     metrics.CompletionRate  `json:"completion"`

	// The sections below are left empty when the sheet lacks their column.
	ReceivedPerDay   []metrics.PeriodBucket `json:"received_per_day,omitempty"`
	ReceivedPerYear  []metrics.PeriodBucket `json:"received_per_year,omitempty"`
	DistinctOrders   int                    `json:"distinct_orders"`
	Disciplines      []metrics.Bucket       `json:"disciplines,omitempty"`
	Budgeters        []metrics.Bucket       `json:"budgeters,omitempty"`
	Priorities       []metrics.Bucket       `json:"priorities,omitempty"`
	BudgetedByStatus []metrics.Bucket       `json:"budgeted_by_status,omitempty"`
	BudgetedPerMonth []metrics.PeriodBucket `json:"budgeted_per_month,omitempty"`
	Budget           *metrics.Summary       `json:"budget,omitempty"`

	Rows []map[string]string `json:"rows,omitempty"`
}

/*
Overview is the general page used by sheets without a contract-specific
layout. Only the status column is required. Without a received date column
the range is ignored and every row counts as received; the other sections are
computed when their column is present.
*/
func Overview(ds *types.Dataset, cfg Config, q Query) (OverviewPanel, error) {
	var out OverviewPanel

	scoped, err := ds.ForContract(q.contract())
	if err != nil {
		return out, err
	}
	received := scoped
	if has(scoped, types.ColReceived, types.DateColumn) {
		if received, err = metrics.InRange(scoped, types.ColReceived, q.Range); err != nil {
			return out, err
		}
		period := metrics.PeriodQuery{DateField: types.ColReceived, Range: q.Range}
		period.Granularity = metrics.Daily
		if out.ReceivedPerDay, err = metrics.GroupByPeriod(scoped, period); err != nil {
			return out, err
		}
		period.Granularity = metrics.Yearly
		if out.ReceivedPerYear, err = metrics.GroupByPeriod(scoped, period); err != nil {
			return out, err
		}
	}
	out.Received = received.Len()

	if out.Statuses, err = sortedBuckets(received, received.StatusColumn(), "", metrics.Count); err != nil {
		return out, err
	}
	if out.Classification, err = metrics.ClassifyStatuses(received, cfg.Status, types.AllContracts); err != nil {
		return out, err
	}
	out.Completion = metrics.Completion(out.Classification.Open, out.Classification.Closed)

	if has(received, types.ColOrder, types.TextColumn) {
		if out.DistinctOrders, err = metrics.CountDistinct(received, types.ColOrder); err != nil {
			return out, err
		}
	} else {
		out.DistinctOrders = out.Received
	}

	dimensions := []struct {
		column string
		dst    *[]metrics.Bucket
	}{
		{types.ColDiscipline, &out.Disciplines},
		{types.ColBudgeter, &out.Budgeters},
		{types.ColPriority, &out.Priorities},
	}
	for _, d := range dimensions {
		if !has(received, d.column, types.TextColumn) {
			continue
		}
		if *d.dst, err = sortedBuckets(received, d.column, "", metrics.Count); err != nil {
			return out, err
		}
	}

	if has(received, types.ColBudgetedValue, types.MoneyColumn) {
		if out.BudgetedByStatus, err = sortedBuckets(received, received.StatusColumn(), types.ColBudgetedValue, metrics.Sum); err != nil {
			return out, err
		}
		summary, err := metrics.Describe(received, types.ColBudgetedValue)
		if err != nil {
			return out, err
		}
		out.Budget = &summary

		// Grouped by the month the order was finalized.
		if has(scoped, types.ColFinalized, types.DateColumn) {
			out.BudgetedPerMonth, err = metrics.GroupByPeriod(scoped, metrics.PeriodQuery{
				DateField:   types.ColFinalized,
				Granularity: metrics.Monthly,
				Range:       q.Range,
				ValueField:  types.ColBudgetedValue,
			})
			if err != nil {
				return out, err
			}
		}
	}

	if out.Rows, err = rows(received, q.IncludeRows); err != nil {
		return out, err
	}
	return out, nil
}
