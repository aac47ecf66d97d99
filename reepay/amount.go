package reepay

import (
	"math"
	"strings"
)

// Currencies without a minor unit use a conversion multiplier of 1.
var zeroDecimalCurrencies = map[string]bool{
	"ISK": true,
}

func Multiplier(currency string) int64 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return 1
	}
	return 100
}

// ToMinorUnit converts a decimal amount to the integer minor-unit amount
// the processor expects.
func ToMinorUnit(amount float64, currency string) int64 {
	return int64(math.Round(amount * float64(Multiplier(currency))))
}

// FromMinorUnit converts a processor minor-unit amount back to a decimal.
func FromMinorUnit(amount int64, currency string) float64 {
	return float64(amount) / float64(Multiplier(currency))
}
