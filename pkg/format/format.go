// Package format renders amounts for display. Rounding happens here and only
// here; stored values always keep full precision.
package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const displayDecimals = 2

// PrettyDecimal renders d rounded to two decimal places with thousands
// grouping, e.g. PrettyDecimal(1234567.891, " ", ".") -> "1 234 567.89".
func PrettyDecimal(d decimal.Decimal, separator, decimalSeparator string) string {
	return group(d.StringFixed(displayDecimals), separator, decimalSeparator)
}

// PrettyNumber is the float/int counterpart of PrettyDecimal for values that
// never touch monetary arithmetic (telemetry readings and the like).
func PrettyNumber(number any, separator, decimalSeparator string) string {
	var numStr string

	switch number.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		numStr = fmt.Sprintf("%d", number)
	case float32, float64:
		numStr = fmt.Sprintf("%.*f", displayDecimals, number)
	default:
		return fmt.Sprint(number)
	}

	return group(numStr, separator, decimalSeparator)
}

func group(numStr, separator, decimalSeparator string) string {
	isNegative := false
	if strings.HasPrefix(numStr, "-") {
		isNegative = true
		numStr = strings.TrimPrefix(numStr, "-")
	}

	parts := strings.Split(numStr, ".")
	integerPart := parts[0]
	decimalPart := ""
	if len(parts) == 2 {
		decimalPart = decimalSeparator + parts[1]
	}

	length := len(integerPart)

	start := length % 3
	if start == 0 {
		start = 3
	}

	var intPart strings.Builder

	if isNegative {
		intPart.WriteString("-")
	}

	intPart.WriteString(integerPart[:start])

	for i := start; i < length; i += 3 {
		intPart.WriteString(separator)
		intPart.WriteString(integerPart[i : i+3])
	}

	return intPart.String() + decimalPart
}
