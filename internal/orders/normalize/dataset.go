package normalize

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/genn/painel-os/internal/orders/types"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/shopspring/decimal"
)

// Schema says how the columns of a sheet are typed. Columns not listed as
// date or money stay text.
type Schema struct {
	ContractColumn string
	StatusColumn   string
	DateColumns    []string
	MoneyColumns   []string
}

// DefaultSchema matches the Banrisul/Correios sheet layout.
var DefaultSchema = Schema{
	ContractColumn: types.ColContract,
	StatusColumn:   types.ColStatus,
	DateColumns:    []string{types.ColReceived, types.ColFinalized, types.ColBudgeted},
	MoneyColumns:   []string{types.ColBudgetedValue, types.ColMaterialValue, types.ColLaborValue},
}

// Report summarizes a conversion. Rejected counts non-empty cells that could
// not be parsed and were stored as no value.
type Report struct {
	Rows     int
	Rejected map[string]int
	Missing  []string
}

func (r Report) RejectedTotal() int {
	total := 0
	for _, n := range r.Rejected {
		total += n
	}
	return total
}

func cellValues(col series.Series) []string {
	values := make([]string, col.Len())
	for i := range values {
		e := col.Elem(i)
		if e.IsNA() {
			continue
		}
		values[i] = strings.TrimSpace(e.String())
	}
	return values
}

func toSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

/*
ToDataset converts a raw sheet DataFrame into a typed Dataset. Bad cells never
fail the conversion: they become no value and are counted in the Report. Only a
DataFrame that carries its own error is rejected.
*/
func ToDataset(df dataframe.DataFrame, schema Schema) (*types.Dataset, Report, error) {
	report := Report{Rows: df.Nrow(), Rejected: map[string]int{}}
	if err := df.Error(); err != nil {
		return nil, report, fmt.Errorf("invalid dataframe: %w", err)
	}

	dateCols := toSet(schema.DateColumns)
	moneyCols := toSet(schema.MoneyColumns)
	present := toSet(df.Names())
	for _, name := range append(append([]string{}, schema.DateColumns...), schema.MoneyColumns...) {
		if _, ok := present[name]; !ok {
			report.Missing = append(report.Missing, name)
		}
	}

	ds := types.NewDataset(schema.ContractColumn, schema.StatusColumn)
	for _, name := range df.Names() {
		raw := cellValues(df.Col(name))

		var err error
		switch {
		case hasKey(dateCols, name):
			parsed := make([]sql.NullTime, len(raw))
			for i, s := range raw {
				parsed[i] = ParseDate(s)
				if !parsed[i].Valid && s != "" {
					report.Rejected[name]++
				}
			}
			err = ds.AddDates(name, parsed)
		case hasKey(moneyCols, name):
			parsed := make([]decimal.NullDecimal, len(raw))
			for i, s := range raw {
				parsed[i] = ParseMoney(s)
				if !parsed[i].Valid && s != "" && s != "-" {
					report.Rejected[name]++
				}
			}
			err = ds.AddMoney(name, parsed)
		default:
			err = ds.AddText(name, raw)
		}
		if err != nil {
			return nil, report, fmt.Errorf("error adding column %q: %w", name, err)
		}
	}

	return ds, report, nil
}

func hasKey(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}
