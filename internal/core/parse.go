// Package core holds the ledger record model and the lenient numeric parsing
// applied when records are aggregated.
//
// Quantities and prices are stored exactly as typed. Parsing happens at read
// time and never fails: a value without a leading number counts as zero.
package core

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// maxExponent bounds the exponent of a parsed amount. Anything wider would
// rescale to millions of digits on the first sum.
const maxExponent = 308

var (
	leadingDecimal = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	leadingInteger = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseAmount reads the leading decimal number of s.
//
// Examples:
//
//	ParseAmount("150.50")  -> 150.50
//	ParseAmount(" 12abc")  -> 12
//	ParseAmount("1e3")     -> 1000
//	ParseAmount("1e999")   -> 0
//	ParseAmount("abc")     -> 0
//	ParseAmount("")        -> 0
func ParseAmount(s string) decimal.Decimal {
	m := leadingDecimal.FindString(strings.TrimLeft(s, " \t\r\n"))
	if m == "" {
		return decimal.Zero
	}
	if i := strings.IndexAny(m, "eE"); i >= 0 {
		exp, err := strconv.Atoi(m[i+1:])
		if err != nil || exp > maxExponent || exp < -maxExponent {
			return decimal.Zero
		}
	}
	// "12." and "12.e3" are numbers for a user, not for the decimal parser.
	m = strings.Replace(m, ".e", "e", 1)
	m = strings.Replace(m, ".E", "E", 1)
	m = strings.TrimSuffix(strings.TrimPrefix(m, "+"), ".")
	if strings.HasPrefix(m, "-.") {
		m = "-0" + m[1:]
	} else if strings.HasPrefix(m, ".") {
		m = "0" + m
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseQuantity reads the leading integer of s; "3.7" counts as 3.
func ParseQuantity(s string) int64 {
	m := leadingInteger.FindString(strings.TrimLeft(s, " \t\r\n"))
	if m == "" {
		return 0
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
