package utils

import (
	"math"
	"math/big"
	"strings"
)

// RawToUI converts a raw token amount to its UI representation by applying
// the mint's decimal precision. Example: raw=1234500000, decimals=9 => 1.2345.
func RawToUI(raw uint64, decimals uint8) float64 {
	if raw == 0 {
		return 0
	}
	return float64(raw) / math.Pow10(int(decimals))
}

// UIToCents converts a USD value to whole cents, rounding half away from
// zero. The on-chain instruction takes its dust threshold in cents.
func UIToCents(v float64) uint64 {
	if v <= 0 {
		return 0
	}
	return uint64(math.Round(v * 100))
}

// FormatAmount renders a raw token amount as a trimmed decimal string.
// Example: raw=1234500000000000000, decimals=18 => "1.2345".
func FormatAmount(raw uint64, decimals uint8) string {
	if decimals == 0 {
		return new(big.Int).SetUint64(raw).String()
	}

	amountFloat := new(big.Float).SetUint64(raw)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(amountFloat, divisor)

	formatted := value.Text('f', int(decimals))
	if strings.Contains(formatted, ".") {
		formatted = strings.TrimRight(formatted, "0")
		formatted = strings.TrimRight(formatted, ".")
	}
	if formatted == "" {
		return "0"
	}
	return formatted
}
