package panels

import (
	"fmt"
	"time"

	"github.com/genn/painel-os/internal/orders/metrics"
	"github.com/genn/painel-os/internal/orders/normalize"
	"github.com/genn/painel-os/internal/orders/types"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	DailyKind    Kind = "daily"
	BudgetKind   Kind = "budget"
	WeeklyKind   Kind = "weekly"
	OverviewKind Kind = "overview"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case DailyKind, BudgetKind, WeeklyKind, OverviewKind:
		return k, nil
	default:
		return "", fmt.Errorf("unknown panel %q", s)
	}
}

type Contract struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
}

type DisciplineGroup struct {
	Name        string   `yaml:"name" json:"name"`
	Disciplines []string `yaml:"disciplines" json:"disciplines"`
}

// Config carries the per-sheet settings the panels need.
type Config struct {
	Contracts         []Contract
	DisciplineGroups  []DisciplineGroup
	Status            metrics.StatusSets
	FinalizedStatuses []string
}

// Query holds the request parameters of a panel. Day defaults to the end of
// Range, or today when the range is open.
type Query struct {
	Contract    string
	Range       metrics.DateRange
	Day         time.Time
	IncludeRows bool
}

func (q Query) day() time.Time {
	if !q.Day.IsZero() {
		return q.Day
	}
	if !q.Range.End.IsZero() {
		return q.Range.End
	}
	return time.Now()
}

func (q Query) contract() string {
	if q.Contract == "" {
		return types.AllContracts
	}
	return q.Contract
}

// Money is an amount plus its pt-BR display form.
type Money struct {
	Value   decimal.Decimal `json:"value"`
	Display string          `json:"display"`
}

func money(d decimal.Decimal) Money {
	return Money{Value: d, Display: normalize.FormatBRL(d)}
}

// Ratio is part/whole*100 with the same zero policy as completion.
type Ratio struct {
	Percentage float64 `json:"percentage"`
	HasData    bool    `json:"has_data"`
}

func ratio(part, whole int) Ratio {
	if whole == 0 {
		return Ratio{}
	}
	return Ratio{Percentage: float64(part*100) / float64(whole), HasData: true}
}

// contracts picks the configured contracts the query asks for. An unknown
// contract is returned as is so the caller still gets zeros for it.
func (c Config) contracts(contract string) []Contract {
	if contract == types.AllContracts {
		return c.Contracts
	}
	for _, ct := range c.Contracts {
		if ct.ID == contract {
			return []Contract{ct}
		}
	}
	return []Contract{{ID: contract, Label: contract}}
}

func has(ds *types.Dataset, column string, kind types.ColumnKind) bool {
	k, ok := ds.Kind(column)
	return ok && k == kind
}

func rows(ds *types.Dataset, include bool) ([]map[string]string, error) {
	if !include {
		return nil, nil
	}
	return ds.Table()
}

func sortedBuckets(ds *types.Dataset, dimension, measure string, kind metrics.Aggregation) ([]metrics.Bucket, error) {
	m, err := metrics.GroupByDimension(ds, dimension, measure, kind)
	if err != nil {
		return nil, err
	}
	return metrics.SortBuckets(m), nil
}

// Build dispatches to the panel named by kind.
func Build(kind Kind, ds *types.Dataset, cfg Config, q Query) (any, error) {
	switch kind {
	case DailyKind:
		return Daily(ds, cfg, q)
	case BudgetKind:
		return Budget(ds, cfg, q)
	case WeeklyKind:
		return Weekly(ds, cfg, q)
	case OverviewKind:
		return Overview(ds, cfg, q)
	default:
		return nil, fmt.Errorf("unknown panel %q", kind)
	}
}
