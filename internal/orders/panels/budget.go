package panels

import (
	"time"

	"github.com/genn/painel-os/internal/orders/metrics"
	"github.com/genn/painel-os/internal/orders/types"
)

type BudgetFigures struct {
	Contract          Contract `json:"contract"`
	BudgetedOnDay     Money    `json:"budgeted_on_day"`
	MaterialOnDay     Money    `json:"material_on_day"`
	LaborOnDay        Money    `json:"labor_on_day"`
	BudgetsOnDay      int      `json:"budgets_on_day"`
	BudgetedInMonth   Money    `json:"budgeted_in_month"`
	MaterialInMonth   Money    `json:"material_in_month"`
	LaborInMonth      Money    `json:"labor_in_month"`
	BudgetedFinalized Money    `json:"budgeted_finalized"`
}

type BudgeterSeries struct {
	Budgeter string                 `json:"budgeter"`
	Days     []metrics.PeriodBucket `json:"days"`
}

type BudgetPanel struct {
	Day              string                 `json:"day"`
	Month            string                 `json:"month"`
	Contracts        []BudgetFigures        `json:"contracts"`
	BudgetsPerDay    []metrics.PeriodBucket `json:"budgets_per_day"`
	PerBudgeter      []BudgeterSeries       `json:"per_budgeter"`
	BudgetedPerMonth []metrics.PeriodBucket `json:"budgeted_per_month"`
	Rows             []map[string]string    `json:"rows,omitempty"`
}

func monthOf(t time.Time) metrics.DateRange {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return metrics.Between(start, start.AddDate(0, 1, -1))
}

func sums(ds *types.Dataset, r metrics.DateRange, contract string) (budgeted, material, labor Money, err error) {
	fields := []string{types.ColBudgetedValue, types.ColMaterialValue, types.ColLaborValue}
	out := make([]Money, len(fields))
	for i, f := range fields {
		total, err := metrics.SumValue(ds, f, r, types.ColBudgeted, contract)
		if err != nil {
			return Money{}, Money{}, Money{}, err
		}
		out[i] = money(total)
	}
	return out[0], out[1], out[2], nil
}

// Budget reports the budgeting figures of the day and of its month per
// contract, plus the budgeting series over the query range.
func Budget(ds *types.Dataset, cfg Config, q Query) (BudgetPanel, error) {
	day := q.day()
	month := monthOf(day)
	out := BudgetPanel{Day: day.Format(time.DateOnly), Month: day.Format("2006-01")}

	for _, ct := range cfg.contracts(q.contract()) {
		fig := BudgetFigures{Contract: ct}
		var err error
		if fig.BudgetedOnDay, fig.MaterialOnDay, fig.LaborOnDay, err = sums(ds, metrics.OnDay(day), ct.ID); err != nil {
			return out, err
		}
		if fig.BudgetsOnDay, err = metrics.CountInRange(ds, types.ColBudgeted, metrics.OnDay(day), ct.ID); err != nil {
			return out, err
		}
		if fig.BudgetedInMonth, fig.MaterialInMonth, fig.LaborInMonth, err = sums(ds, month, ct.ID); err != nil {
			return out, err
		}

		finalized, err := metrics.WithStatus(ds, cfg.FinalizedStatuses...)
		if err != nil {
			return out, err
		}
		total, err := metrics.SumValue(finalized, types.ColBudgetedValue, metrics.DateRange{}, "", ct.ID)
		if err != nil {
			return out, err
		}
		fig.BudgetedFinalized = money(total)
		out.Contracts = append(out.Contracts, fig)
	}

	var err error
	out.BudgetsPerDay, err = metrics.GroupByPeriod(ds, metrics.PeriodQuery{
		DateField:   types.ColBudgeted,
		Granularity: metrics.Daily,
		Contract:    q.contract(),
		Range:       q.Range,
		ValueField:  types.ColBudgetedValue,
	})
	if err != nil {
		return out, err
	}
	out.BudgetedPerMonth, err = metrics.GroupByPeriod(ds, metrics.PeriodQuery{
		DateField:   types.ColBudgeted,
		Granularity: metrics.Monthly,
		Contract:    q.contract(),
		ValueField:  types.ColBudgetedValue,
	})
	if err != nil {
		return out, err
	}

	scoped, err := ds.ForContract(q.contract())
	if err != nil {
		return out, err
	}
	budgeters, err := metrics.GroupByDimension(scoped, types.ColBudgeter, "", metrics.Count)
	if err != nil {
		return out, err
	}
	for _, b := range metrics.SortBuckets(budgeters) {
		name := b.Key
		if name == types.MissingLabel {
			name = ""
		}
		view, err := scoped.WhereIn(types.ColBudgeter, name)
		if err != nil {
			return out, err
		}
		days, err := metrics.GroupByPeriod(view, metrics.PeriodQuery{
			DateField:   types.ColBudgeted,
			Granularity: metrics.Daily,
			Range:       q.Range,
		})
		if err != nil {
			return out, err
		}
		if len(days) > 0 {
			out.PerBudgeter = append(out.PerBudgeter, BudgeterSeries{Budgeter: b.Key, Days: days})
		}
	}

	if q.IncludeRows {
		inRange, err := metrics.InRange(scoped, types.ColBudgeted, q.Range)
		if err != nil {
			return out, err
		}
		if out.Rows, err = rows(inRange, true); err != nil {
			return out, err
		}
	}
	return out, nil
}
