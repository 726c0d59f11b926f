// Package money renders ledger amounts in a currency for people to read.
// Arithmetic never happens here; amounts stay exact decimals until printed.
package money

import (
	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Formatter prints decimal amounts in one currency.
type Formatter struct {
	cur gomoney.Currency
}

// NewFormatter returns a formatter for the ISO 4217 code. Unknown codes
// fall back to go-money's generic formatting of the code itself.
func NewFormatter(code string) Formatter {
	// the Money constructor is the only way to get a never nil currency
	return Formatter{cur: *gomoney.New(0, code).Currency()}
}

// Code returns the currency code.
func (f Formatter) Code() string { return f.cur.Code }

// Format rounds v to the currency's minor unit and formats it, e.g. "$1,234.50".
func (f Formatter) Format(v decimal.Decimal) string {
	fraction := int32(f.cur.Fraction)
	minor := v.Round(fraction).Shift(fraction)
	return f.cur.Formatter().Format(minor.IntPart())
}

// Signed formats v with an explicit sign; zero is "-".
func (f Formatter) Signed(v decimal.Decimal) string {
	switch {
	case v.IsZero():
		return "-"
	case v.IsPositive():
		return "+" + f.Format(v)
	default:
		return f.Format(v)
	}
}
