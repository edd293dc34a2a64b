// Package money provides exact decimal arithmetic for payment values.
// Values are fixed-point: binary floating-point never appears anywhere on
// the authorization path, so limit-boundary comparisons are exact.
package money

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// decimalPattern matches valid decimal strings.
// ^[+-]?[0-9]+(\.[0-9]+)?$
var decimalPattern = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)

// Decimal is an exact fixed-point decimal: units * 10^-scale.
type Decimal struct {
	units *big.Int
	scale int
}

// Zero returns the decimal zero.
func Zero() Decimal {
	return Decimal{units: big.NewInt(0), scale: 0}
}

// ParseDecimal parses and validates a decimal string.
func ParseDecimal(s string) (Decimal, error) {
	if !decimalPattern.MatchString(s) {
		return Decimal{}, fmt.Errorf("money: invalid decimal %q (must match ^[+-]?[0-9]+(\\.[0-9]+)?$)", s)
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	scale := 0
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		scale = len(s) - dot - 1
		s = s[:dot] + s[dot+1:]
	}

	units, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Decimal{}, fmt.Errorf("money: could not parse %q", s)
	}
	if neg {
		units.Neg(units)
	}
	return Decimal{units: units, scale: scale}, nil
}

// MustParse parses s and panics on failure. For constants in tests and demos.
func MustParse(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// rescaled returns the units of d expressed at the target scale.
func (d Decimal) rescaled(scale int) *big.Int {
	if d.units == nil {
		return big.NewInt(0)
	}
	if scale == d.scale {
		return new(big.Int).Set(d.units)
	}
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale-d.scale)), nil)
	return new(big.Int).Mul(d.units, factor)
}

// Add returns d + o exactly.
func (d Decimal) Add(o Decimal) Decimal {
	scale := d.scale
	if o.scale > scale {
		scale = o.scale
	}
	sum := new(big.Int).Add(d.rescaled(scale), o.rescaled(scale))
	return Decimal{units: sum, scale: scale}
}

// Cmp compares d and o: -1 if d < o, 0 if equal, +1 if d > o.
func (d Decimal) Cmp(o Decimal) int {
	scale := d.scale
	if o.scale > scale {
		scale = o.scale
	}
	return d.rescaled(scale).Cmp(o.rescaled(scale))
}

// Sign returns -1, 0 or +1 depending on the sign of d.
func (d Decimal) Sign() int {
	if d.units == nil {
		return 0
	}
	return d.units.Sign()
}

// String formats d as an exact digit string at its own scale.
func (d Decimal) String() string {
	if d.units == nil {
		return "0"
	}
	if d.scale == 0 {
		return d.units.String()
	}

	sign := ""
	units := new(big.Int).Set(d.units)
	if units.Sign() < 0 {
		sign = "-"
		units.Abs(units)
	}

	intStr := units.String()
	for len(intStr) <= d.scale {
		intStr = "0" + intStr
	}

	insertPoint := len(intStr) - d.scale
	return sign + intStr[:insertPoint] + "." + intStr[insertPoint:]
}

// FitsMinorUnits reports whether d is representable at the currency's
// smallest unit: no non-zero digits beyond the currency's minor units.
// Trailing zeros are allowed ("10.000" fits USD; "10.001" does not).
func (d Decimal) FitsMinorUnits(currency string) bool {
	if d.units == nil {
		return true
	}
	extra := d.scale - CurrencyMinorUnits(currency)
	if extra <= 0 {
		return true
	}
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(extra)), nil)
	return new(big.Int).Rem(d.units, factor).Sign() == 0
}

// CurrencyMinorUnits returns the number of minor units for a currency.
// Common currencies; extend as needed.
func CurrencyMinorUnits(currency string) int {
	switch strings.ToUpper(currency) {
	case "JPY", "KRW", "VND": // Zero decimal currencies
		return 0
	case "BHD", "KWD", "OMR": // Three decimal currencies
		return 3
	default: // Most currencies use 2 decimals
		return 2
	}
}

// ValidCurrencyCode reports whether currency looks like a 3-letter ISO 4217 code.
func ValidCurrencyCode(currency string) bool {
	if len(currency) != 3 {
		return false
	}
	for _, c := range currency {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}
