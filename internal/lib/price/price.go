// Package price разбирает цены тарифов, записанные текстом вида "$25".
package price

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalid возвращается для строки, из которой нельзя получить неотрицательное число.
var ErrInvalid = errors.New("invalid price")

// Parse переводит "$1,250.50" в decimal. Символ валюты, пробелы и разделители тысяч отбрасываются.
func Parse(text string) (decimal.Decimal, error) {
	const op = "price.Parse"
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(text))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%s: %q: %w", op, text, ErrInvalid)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %q: %w", op, text, ErrInvalid)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s: %q: %w", op, text, ErrInvalid)
	}
	return d, nil
}

// ParseOrZero как Parse, но для неразборчивой цены возвращает ноль.
// Используется в агрегатах выручки, где одна испорченная запись не должна ломать отчет.
func ParseOrZero(text string) decimal.Decimal {
	d, err := Parse(text)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Format возвращает цену в виде "$25" или "$25.50".
func Format(d decimal.Decimal) string {
	if d.IsInteger() {
		return "$" + d.StringFixed(0)
	}
	return "$" + d.StringFixed(2)
}

// Revenue считает price × count.
func Revenue(text string, count int) decimal.Decimal {
	return ParseOrZero(text).Mul(decimal.NewFromInt(int64(count)))
}

// costRatio доля себестоимости в цене тарифа.
var costRatio = decimal.RequireFromString("0.6")

// Profitability раскладывает выручку на себестоимость и прибыль.
// margin это прибыль в процентах от выручки, для нулевой выручки ноль.
func Profitability(revenue decimal.Decimal) (cost, profit, margin decimal.Decimal) {
	cost = revenue.Mul(costRatio)
	profit = revenue.Sub(cost)
	if revenue.IsZero() {
		return cost, profit, decimal.Zero
	}
	margin = profit.Div(revenue).Mul(decimal.NewFromInt(100)).Round(2)
	return cost, profit, margin
}
