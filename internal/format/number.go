// Package format renders market figures for terminal display.
package format

import (
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
	hundred  = decimal.NewFromInt(100)

	printer = message.NewPrinter(language.English)
	titler  = cases.Title(language.English)
)

// Compact renders v as 1.2M, 3.4K or 12.34, prepended with prefix.
// A missing value renders as prefix followed by 0.
func Compact(v decimal.Decimal, ok bool, prefix string) string {
	if !ok {
		return prefix + "0"
	}
	switch {
	case v.GreaterThanOrEqual(million):
		return prefix + v.Div(million).StringFixed(1) + "M"
	case v.GreaterThanOrEqual(thousand):
		return prefix + v.Div(thousand).StringFixed(1) + "K"
	default:
		return prefix + v.StringFixed(2)
	}
}

// Score maps value onto 0..100 relative to max, rounded and capped at 100.
func Score(value, max decimal.Decimal) int {
	if max.IsZero() {
		return 0
	}
	score := value.Div(max).Mul(hundred).Round(0)
	if score.GreaterThan(hundred) {
		return 100
	}
	return int(score.IntPart())
}

// Grouped renders v with thousands separators and the given number of decimals.
func Grouped(v decimal.Decimal, places int32) string {
	f, _ := v.Round(places).Float64()
	return printer.Sprintf("%."+strconv.Itoa(int(places))+"f", f)
}

// Percent renders a signed percentage with two decimals, e.g. -5.20%.
func Percent(v decimal.Decimal) string {
	s := v.StringFixed(2) + "%"
	if v.IsPositive() {
		return "+" + s
	}
	return s
}

// Label title-cases free-form labels such as venue ids ("raydium" -> "Raydium").
func Label(s string) string {
	return titler.String(s)
}
