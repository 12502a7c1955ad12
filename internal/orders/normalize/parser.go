package normalize

import (
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var brl = message.NewPrinter(language.BrazilianPortuguese)

// ParseDate reads a sheet date. Sheets use dd/mm/yyyy (day and month may be
// unpadded); yyyy-mm-dd is accepted as a fallback. Anything else is no value.
func ParseDate(raw string) sql.NullTime {
	s := strings.TrimSpace(raw)
	if s == "" {
		return sql.NullTime{}
	}
	if t, err := time.Parse("2/1/2006", s); err == nil {
		return sql.NullTime{Time: t, Valid: true}
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return sql.NullTime{Time: t, Valid: true}
	}
	return sql.NullTime{}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

/*
ParseMoney reads a pt-BR currency cell such as "R$ 1.234,56", "1234,56" or
"-R$ 10,00". The comma is the decimal separator and the dot only groups
thousands, so "1.234" is 1234 while "1234.56" (dot groups of the wrong size)
is rejected instead of being silently read as 123456.
*/
func ParseMoney(raw string) decimal.NullDecimal {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	s = strings.TrimPrefix(s, "R$")
	if strings.HasPrefix(s, "-") && !negative {
		negative = true
		s = s[1:]
	}
	if s == "" {
		return decimal.NullDecimal{}
	}

	intPart, fracPart := s, ""
	if i := strings.LastIndex(s, ","); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
		if !allDigits(fracPart) {
			return decimal.NullDecimal{}
		}
		if intPart == "" {
			intPart = "0"
		}
	}

	if strings.Contains(intPart, ".") {
		groups := strings.Split(intPart, ".")
		if len(groups[0]) > 3 || !allDigits(groups[0]) {
			return decimal.NullDecimal{}
		}
		for _, g := range groups[1:] {
			if len(g) != 3 || !allDigits(g) {
				return decimal.NullDecimal{}
			}
		}
		intPart = strings.Join(groups, "")
	} else if !allDigits(intPart) {
		return decimal.NullDecimal{}
	}

	num := intPart
	if fracPart != "" {
		num += "." + fracPart
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.NullDecimal{}
	}
	if negative {
		d = d.Neg()
	}
	return decimal.NewNullDecimal(d)
}

// FormatBRL renders an amount the way the dashboards show it, e.g. "R$ 1.234,56".
func FormatBRL(d decimal.Decimal) string {
	return brl.Sprintf("R$ %v", number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}
