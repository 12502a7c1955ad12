package metrics

import (
	"github.com/genn/painel-os/internal/orders/types"
	"github.com/shopspring/decimal"
)

// CountInRange counts the rows of contract whose dateField lies in r.
// Rows with no date never count.
func CountInRange(ds *types.Dataset, dateField string, r DateRange, contract string) (int, error) {
	view, err := scope(ds, dateField, r, contract)
	if err != nil {
		return 0, err
	}
	return view.Len(), nil
}

/*
SumValue adds up valueField over the rows of contract whose dateField lies in
r. Amounts with no value are skipped, not read as zero. An empty dateField
disables the date filter so that rows without a date still contribute.
*/
func SumValue(ds *types.Dataset, valueField string, r DateRange, dateField string, contract string) (decimal.Decimal, error) {
	if _, err := ds.Money(valueField); err != nil {
		return decimal.Zero, err
	}
	view, err := scope(ds, dateField, r, contract)
	if err != nil {
		return decimal.Zero, err
	}
	values, err := view.Money(valueField)
	if err != nil {
		return decimal.Zero, err
	}
	return sum(values), nil
}

func sum(values []decimal.NullDecimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		if v.Valid {
			total = total.Add(v.Decimal)
		}
	}
	return total
}

// CountDistinct counts the distinct non-empty values of a text column.
func CountDistinct(ds *types.Dataset, field string) (int, error) {
	values, err := ds.Texts(field)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v != "" {
			seen[v] = struct{}{}
		}
	}
	return len(seen), nil
}
