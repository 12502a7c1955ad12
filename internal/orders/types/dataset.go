package types

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrSchema is returned when a query names a column the dataset does not have,
// or a column of the wrong kind. It is a caller configuration error, never a data error.
var ErrSchema = errors.New("schema error")

/*
Dataset is a typed, column-oriented table. Columns are added once while the
dataset is built and never modified afterwards; filters return views that share
the column storage, so a Dataset can be read by any number of aggregations in
any order.
*/
type Dataset struct {
	contractColumn string
	statusColumn   string

	names  []string
	kinds  map[string]ColumnKind
	texts  map[string][]string
	dates  map[string][]sql.NullTime
	values map[string][]decimal.NullDecimal
	size   int

	// rows holds the underlying row indices of a view; nil means every row.
	rows []int
}

func NewDataset(contractColumn, statusColumn string) *Dataset {
	return &Dataset{
		contractColumn: contractColumn,
		statusColumn:   statusColumn,
		kinds:          make(map[string]ColumnKind),
		texts:          make(map[string][]string),
		dates:          make(map[string][]sql.NullTime),
		values:         make(map[string][]decimal.NullDecimal),
		size:           -1,
	}
}

func (d *Dataset) checkAdd(name string, n int) error {
	if d.rows != nil {
		return fmt.Errorf("cannot add column %q to a filtered view", name)
	}
	if _, exists := d.kinds[name]; exists {
		return fmt.Errorf("duplicate column %q", name)
	}
	if d.size >= 0 && n != d.size {
		return fmt.Errorf("column %q has %d rows, dataset has %d", name, n, d.size)
	}
	return nil
}

func (d *Dataset) register(name string, kind ColumnKind, n int) {
	d.names = append(d.names, name)
	d.kinds[name] = kind
	d.size = n
}

func (d *Dataset) AddText(name string, values []string) error {
	if err := d.checkAdd(name, len(values)); err != nil {
		return err
	}
	d.texts[name] = values
	d.register(name, TextColumn, len(values))
	return nil
}

func (d *Dataset) AddDates(name string, values []sql.NullTime) error {
	if err := d.checkAdd(name, len(values)); err != nil {
		return err
	}
	d.dates[name] = values
	d.register(name, DateColumn, len(values))
	return nil
}

func (d *Dataset) AddMoney(name string, values []decimal.NullDecimal) error {
	if err := d.checkAdd(name, len(values)); err != nil {
		return err
	}
	d.values[name] = values
	d.register(name, MoneyColumn, len(values))
	return nil
}

// Len returns the number of rows visible through this dataset.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	if d.rows != nil {
		return len(d.rows)
	}
	if d.size < 0 {
		return 0
	}
	return d.size
}

func (d *Dataset) Columns() []string {
	return append([]string(nil), d.names...)
}

func (d *Dataset) Kind(name string) (ColumnKind, bool) {
	k, ok := d.kinds[name]
	return k, ok
}

func (d *Dataset) ContractColumn() string { return d.contractColumn }
func (d *Dataset) StatusColumn() string   { return d.statusColumn }

func (d *Dataset) index(i int) int {
	if d.rows == nil {
		return i
	}
	return d.rows[i]
}

func (d *Dataset) expect(name string, want ColumnKind) error {
	got, ok := d.kinds[name]
	if !ok {
		return fmt.Errorf("%w: unknown column %q", ErrSchema, name)
	}
	if got != want {
		return fmt.Errorf("%w: column %q is %s, not %s", ErrSchema, name, got, want)
	}
	return nil
}

// Texts returns the values of a text column for the visible rows.
func (d *Dataset) Texts(name string) ([]string, error) {
	if err := d.expect(name, TextColumn); err != nil {
		return nil, err
	}
	col := d.texts[name]
	out := make([]string, d.Len())
	for i := range out {
		out[i] = col[d.index(i)]
	}
	return out, nil
}

func (d *Dataset) Dates(name string) ([]sql.NullTime, error) {
	if err := d.expect(name, DateColumn); err != nil {
		return nil, err
	}
	col := d.dates[name]
	out := make([]sql.NullTime, d.Len())
	for i := range out {
		out[i] = col[d.index(i)]
	}
	return out, nil
}

func (d *Dataset) Money(name string) ([]decimal.NullDecimal, error) {
	if err := d.expect(name, MoneyColumn); err != nil {
		return nil, err
	}
	col := d.values[name]
	out := make([]decimal.NullDecimal, d.Len())
	for i := range out {
		out[i] = col[d.index(i)]
	}
	return out, nil
}

// Where returns a view with the visible rows for which keep returns true.
// keep receives the row position within d.
func (d *Dataset) Where(keep func(i int) bool) *Dataset {
	rows := make([]int, 0, d.Len())
	for i := 0; i < d.Len(); i++ {
		if keep(i) {
			rows = append(rows, d.index(i))
		}
	}
	view := *d
	view.rows = rows
	return &view
}

// WhereIn keeps the rows whose text column value is one of values.
func (d *Dataset) WhereIn(column string, values ...string) (*Dataset, error) {
	col, err := d.Texts(column)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return d.Where(func(i int) bool {
		_, ok := set[col[i]]
		return ok
	}), nil
}

// ForContract keeps the rows of one contract. AllContracts returns d unchanged.
func (d *Dataset) ForContract(contract string) (*Dataset, error) {
	if contract == AllContracts || contract == "" {
		return d, nil
	}
	return d.WhereIn(d.contractColumn, contract)
}

// Contracts lists the distinct non-empty contract identifiers, sorted.
func (d *Dataset) Contracts() ([]string, error) {
	col, err := d.Texts(d.contractColumn)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []string
	for _, c := range col {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Table renders the visible rows as string maps for JSON tables. Missing
// values are empty strings; dates use YYYY-MM-DD.
func (d *Dataset) Table(columns ...string) ([]map[string]string, error) {
	if len(columns) == 0 {
		columns = d.names
	}
	for _, c := range columns {
		if _, ok := d.kinds[c]; !ok {
			return nil, fmt.Errorf("%w: unknown column %q", ErrSchema, c)
		}
	}

	out := make([]map[string]string, d.Len())
	for i := range out {
		row := make(map[string]string, len(columns))
		idx := d.index(i)
		for _, c := range columns {
			switch d.kinds[c] {
			case TextColumn:
				row[c] = d.texts[c][idx]
			case DateColumn:
				if v := d.dates[c][idx]; v.Valid {
					row[c] = v.Time.Format(time.DateOnly)
				} else {
					row[c] = ""
				}
			case MoneyColumn:
				if v := d.values[c][idx]; v.Valid {
					row[c] = v.Decimal.StringFixed(2)
				} else {
					row[c] = ""
				}
			}
		}
		out[i] = row
	}
	return out, nil
}
