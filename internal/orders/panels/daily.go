package panels

import (
	"time"

	"github.com/genn/painel-os/internal/orders/metrics"
	"github.com/genn/painel-os/internal/orders/types"
)

type ContractDaily struct {
	Contract        Contract `json:"contract"`
	Total           int      `json:"total"`
	ReceivedOnDay   int      `json:"received_on_day"`
	ReceivedInRange int      `json:"received_in_range"`
	FinalizedOnDay  int      `json:"finalized_on_day"`
}

type GroupCompletion struct {
	Contract Contract               `json:"contract"`
	Group    string                 `json:"group"`
	Rate     metrics.CompletionRate `json:"rate"`
}

type DailyPanel struct {
	Day            string                   `json:"day"`
	Contracts      []ContractDaily          `json:"contracts"`
	TotalOrders    int                      `json:"total_orders"`
	Completion     []GroupCompletion        `json:"completion"`
	ReceivedPerDay []metrics.PeriodBucket   `json:"received_per_day"`
	FinalizedToday []metrics.DimensionCount `json:"finalized_today"`
	Rows           []map[string]string      `json:"rows,omitempty"`
}

func finalizedOn(ds *types.Dataset, cfg Config, day time.Time) (*types.Dataset, error) {
	view, err := metrics.InRange(ds, types.ColFinalized, metrics.OnDay(day))
	if err != nil {
		return nil, err
	}
	return metrics.WithStatus(view, cfg.FinalizedStatuses...)
}

// Daily reports the day's intake and closures per contract, completion per
// contract and discipline group, and the received-per-day series of the range.
func Daily(ds *types.Dataset, cfg Config, q Query) (DailyPanel, error) {
	day := q.day()
	out := DailyPanel{Day: day.Format(time.DateOnly)}

	for _, ct := range cfg.contracts(q.contract()) {
		view, err := ds.ForContract(ct.ID)
		if err != nil {
			return out, err
		}
		row := ContractDaily{Contract: ct, Total: view.Len()}
		if row.ReceivedOnDay, err = metrics.CountInRange(view, types.ColReceived, metrics.OnDay(day), ct.ID); err != nil {
			return out, err
		}
		if row.ReceivedInRange, err = metrics.CountInRange(view, types.ColReceived, q.Range, ct.ID); err != nil {
			return out, err
		}
		finalized, err := finalizedOn(view, cfg, day)
		if err != nil {
			return out, err
		}
		row.FinalizedOnDay = finalized.Len()
		out.TotalOrders += row.Total
		out.Contracts = append(out.Contracts, row)

		for _, g := range cfg.DisciplineGroups {
			grouped, err := view.WhereIn(types.ColDiscipline, g.Disciplines...)
			if err != nil {
				return out, err
			}
			open, closed, err := metrics.ClassifyStatusCounts(grouped, cfg.Status, ct.ID)
			if err != nil {
				return out, err
			}
			out.Completion = append(out.Completion, GroupCompletion{
				Contract: ct,
				Group:    g.Name,
				Rate:     metrics.Completion(open, closed),
			})
		}
	}

	var err error
	out.ReceivedPerDay, err = metrics.GroupByPeriod(ds, metrics.PeriodQuery{
		DateField:   types.ColReceived,
		Granularity: metrics.Daily,
		Contract:    q.contract(),
		Range:       q.Range,
	})
	if err != nil {
		return out, err
	}

	scoped, err := ds.ForContract(q.contract())
	if err != nil {
		return out, err
	}
	finalized, err := finalizedOn(scoped, cfg, day)
	if err != nil {
		return out, err
	}
	out.FinalizedToday, err = metrics.CountByDimensions(finalized, types.ColDiscipline, ds.ContractColumn(), types.ColTechnician)
	if err != nil {
		return out, err
	}

	if q.IncludeRows {
		inRange, err := metrics.InRange(scoped, types.ColReceived, q.Range)
		if err != nil {
			return out, err
		}
		if out.Rows, err = rows(inRange, true); err != nil {
			return out, err
		}
	}
	return out, nil
}
