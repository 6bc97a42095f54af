package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Денежные значения хранятся как fixed-point строки с двумя знаками после
// запятой ("10.00"), чтобы исключить дрейф двоичной плавающей точки.
// Вся арифметика идёт через decimal, наружу возвращается строка.

// ParsePrice разбирает fixed-point строку и проверяет неотрицательность.
func ParsePrice(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty value", ErrPriceInvalid)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrPriceInvalid, s)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: negative value %q", ErrPriceInvalid, s)
	}
	return d, nil
}

// FormatPrice приводит значение к канонической fixed-point строке.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// NormalizePrice разбирает и заново форматирует цену ("10" -> "10.00").
func NormalizePrice(s string) (string, error) {
	d, err := ParsePrice(s)
	if err != nil {
		return "", err
	}
	return FormatPrice(d), nil
}

// DecimalZero возвращает нулевую сумму.
func DecimalZero() decimal.Decimal {
	return decimal.Zero
}

// DecimalFromInt32 конвертирует количество в decimal для построчных итогов.
func DecimalFromInt32(v int32) decimal.Decimal {
	return decimal.NewFromInt32(v)
}
