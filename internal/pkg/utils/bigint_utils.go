package utils

import (
	"math/big"
	"strings"
)

// FormatBigInt converts a raw on-chain amount to a human-readable decimal
// string for the given number of decimals.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}

	amountFloat := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(amountFloat, divisor)

	formatted := value.Text('f', int(decimals))
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimRight(formatted, ".")
	}
	if strings.HasPrefix(formatted, ".") {
		formatted = "0" + formatted
	}
	if formatted == "" {
		return "0"
	}
	return formatted
}

// FixedPointToFloat converts a 1e18 fixed-point on-chain value to a float64.
// Precision loss past float64 is acceptable for display amounts.
func FixedPointToFloat(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	f := new(big.Float).SetInt(amount)
	f.Quo(f, big.NewFloat(1e18))
	out, _ := f.Float64()
	return out
}

// FloatToFixedPoint converts a display amount to a 1e18 fixed-point value.
func FloatToFixedPoint(v float64) *big.Int {
	f := new(big.Float).SetFloat64(v)
	f.Mul(f, big.NewFloat(1e18))
	out, _ := f.Int(nil)
	return out
}

// WeiToGwei converts a wei amount to gwei as float64.
func WeiToGwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	f := new(big.Float).SetInt(wei)
	f.Quo(f, big.NewFloat(1e9))
	out, _ := f.Float64()
	return out
}
