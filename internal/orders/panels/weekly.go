package panels

import (
	"github.com/genn/painel-os/internal/orders/metrics"
	"github.com/genn/painel-os/internal/orders/types"
)

type WeeklyPanel struct {
	Received             int                    `json:"received"`
	Finalized            int                    `json:"finalized"`
	Budgeted             int                    `json:"budgeted"`
	Open                 int                    `json:"open"`
	BudgetedValue        Money                  `json:"budgeted_value"`
	MaterialValue        Money                  `json:"material_value"`
	LaborValue           Money                  `json:"labor_value"`
	FinalizedShare       Ratio                  `json:"finalized_share"`
	ReceivedPerDay       []metrics.PeriodBucket `json:"received_per_day"`
	Priorities           []metrics.Bucket       `json:"priorities"`
	BudgetedByDiscipline []metrics.Bucket       `json:"budgeted_by_discipline"`
	Rows                 []map[string]string    `json:"rows,omitempty"`
}

// Weekly summarizes a period: what came in, what was closed with a
// finalized status, what was budgeted and what is still open.
func Weekly(ds *types.Dataset, cfg Config, q Query) (WeeklyPanel, error) {
	var out WeeklyPanel
	contract := q.contract()

	scoped, err := ds.ForContract(contract)
	if err != nil {
		return out, err
	}
	received, err := metrics.InRange(scoped, types.ColReceived, q.Range)
	if err != nil {
		return out, err
	}
	out.Received = received.Len()

	finalizedInRange, err := metrics.InRange(scoped, types.ColFinalized, q.Range)
	if err != nil {
		return out, err
	}
	finalized, err := metrics.WithStatus(finalizedInRange, cfg.FinalizedStatuses...)
	if err != nil {
		return out, err
	}
	out.Finalized = finalized.Len()

	budgeted, err := metrics.InRange(scoped, types.ColBudgeted, q.Range)
	if err != nil {
		return out, err
	}
	out.Budgeted = budgeted.Len()

	open, err := metrics.WithStatus(received, cfg.Status.Open...)
	if err != nil {
		return out, err
	}
	out.Open = open.Len()

	if out.BudgetedValue, out.MaterialValue, out.LaborValue, err = sums(scoped, q.Range, types.AllContracts); err != nil {
		return out, err
	}
	out.FinalizedShare = ratio(out.Finalized, out.Received)

	out.ReceivedPerDay, err = metrics.GroupByPeriod(scoped, metrics.PeriodQuery{
		DateField:   types.ColReceived,
		Granularity: metrics.Daily,
		Range:       q.Range,
	})
	if err != nil {
		return out, err
	}
	if out.Priorities, err = sortedBuckets(received, types.ColPriority, "", metrics.Count); err != nil {
		return out, err
	}
	if out.BudgetedByDiscipline, err = sortedBuckets(budgeted, types.ColDiscipline, types.ColBudgetedValue, metrics.Sum); err != nil {
		return out, err
	}
	if out.Rows, err = rows(received, q.IncludeRows); err != nil {
		return out, err
	}
	return out, nil
}
