package types

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

var (
	textColumns  = []string{ColContract, ColOrder, ColStatus, ColDiscipline, ColBudgeter, ColPriority, ColTechnician}
	dateColumns  = []string{ColReceived, ColFinalized, ColBudgeted}
	moneyColumns = []string{ColBudgetedValue, ColMaterialValue, ColLaborValue}
)

// StoredColumns lists the canonical columns a dataset carries, in storage
// terms: the dataset's own contract and status columns are reported as
// ColContract and ColStatus.
func StoredColumns(ds *Dataset) []string {
	present := func(name string, kind ColumnKind) bool {
		k, ok := ds.Kind(name)
		return ok && k == kind
	}

	var columns []string
	for _, name := range textColumns {
		source := name
		switch name {
		case ColContract:
			source = ds.ContractColumn()
		case ColStatus:
			source = ds.StatusColumn()
		}
		if present(source, TextColumn) {
			columns = append(columns, name)
		}
	}
	for _, name := range dateColumns {
		if present(name, DateColumn) {
			columns = append(columns, name)
		}
	}
	for _, name := range moneyColumns {
		if present(name, MoneyColumn) {
			columns = append(columns, name)
		}
	}
	return columns
}

// CanonicalColumns lists every column a stored record can carry.
func CanonicalColumns() []string {
	columns := append([]string{}, textColumns...)
	columns = append(columns, dateColumns...)
	return append(columns, moneyColumns...)
}

// FromRecords builds a dataset from stored records with only the given
// canonical columns, so panels see the schema the sheet had when it was loaded.
func FromRecords(records []Record, columns []string) (*Dataset, error) {
	keep := make(map[string]bool, len(columns))
	for _, name := range columns {
		keep[name] = true
	}
	wanted := func(name string) bool { return keep[name] }

	n := len(records)
	texts := map[string][]string{}
	for _, name := range textColumns {
		texts[name] = make([]string, n)
	}
	dates := map[string][]sql.NullTime{}
	for _, name := range dateColumns {
		dates[name] = make([]sql.NullTime, n)
	}
	money := map[string][]decimal.NullDecimal{}
	for _, name := range moneyColumns {
		money[name] = make([]decimal.NullDecimal, n)
	}

	for i, r := range records {
		texts[ColContract][i] = r.ContractID
		texts[ColOrder][i] = r.OrderCode
		texts[ColStatus][i] = r.Status
		texts[ColDiscipline][i] = r.Discipline
		texts[ColBudgeter][i] = r.Budgeter
		texts[ColPriority][i] = r.Priority
		texts[ColTechnician][i] = r.Technician
		dates[ColReceived][i] = r.ReceivedDate
		dates[ColFinalized][i] = r.FinalizedDate
		dates[ColBudgeted][i] = r.BudgetedDate
		money[ColBudgetedValue][i] = r.BudgetedValue
		money[ColMaterialValue][i] = r.MaterialValue
		money[ColLaborValue][i] = r.LaborValue
	}

	ds := NewDataset(ColContract, ColStatus)
	for _, name := range textColumns {
		if !wanted(name) {
			continue
		}
		if err := ds.AddText(name, texts[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range dateColumns {
		if !wanted(name) {
			continue
		}
		if err := ds.AddDates(name, dates[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range moneyColumns {
		if !wanted(name) {
			continue
		}
		if err := ds.AddMoney(name, money[name]); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// ToRecords flattens a dataset into records for storage. Columns the dataset
// lacks are left empty; the contract and status columns follow the dataset's own names.
func ToRecords(ds *Dataset, sheet string) []Record {
	text := func(name string) []string {
		if v, err := ds.Texts(name); err == nil {
			return v
		}
		return make([]string, ds.Len())
	}
	date := func(name string) []sql.NullTime {
		if v, err := ds.Dates(name); err == nil {
			return v
		}
		return make([]sql.NullTime, ds.Len())
	}
	money := func(name string) []decimal.NullDecimal {
		if v, err := ds.Money(name); err == nil {
			return v
		}
		return make([]decimal.NullDecimal, ds.Len())
	}

	contracts := text(ds.ContractColumn())
	statuses := text(ds.StatusColumn())
	orders := text(ColOrder)
	disciplines := text(ColDiscipline)
	budgeters := text(ColBudgeter)
	priorities := text(ColPriority)
	technicians := text(ColTechnician)
	received := date(ColReceived)
	finalized := date(ColFinalized)
	budgeted := date(ColBudgeted)
	budgetedValues := money(ColBudgetedValue)
	materialValues := money(ColMaterialValue)
	laborValues := money(ColLaborValue)

	records := make([]Record, ds.Len())
	for i := range records {
		records[i] = Record{
			Sheet:         sheet,
			RowNumber:     i + 1,
			ContractID:    contracts[i],
			OrderCode:     orders[i],
			Status:        statuses[i],
			Discipline:    disciplines[i],
			Budgeter:      budgeters[i],
			Priority:      priorities[i],
			Technician:    technicians[i],
			ReceivedDate:  received[i],
			FinalizedDate: finalized[i],
			BudgetedDate:  budgeted[i],
			BudgetedValue: budgetedValues[i],
			MaterialValue: materialValues[i],
			LaborValue:    laborValues[i],
		}
	}
	return records
}
