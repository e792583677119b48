// Package commission is the single source of truth for the platform
// commission formula and SOL amount formatting. It is pure: no I/O,
// no configuration reads.
package commission

import (
	"math"
	"strconv"
)

const (
	// DefaultRateBPS is the platform commission in basis points (10%).
	// The effective rate comes from config; this is only the fallback.
	DefaultRateBPS = 1000

	// DisplayDecimals is the number of fractional digits used for both
	// fee rounding and display formatting. Chosen so that sub-cent SOL
	// amounts like 0.0005 survive formatting.
	DisplayDecimals = 4

	// SumEpsilon bounds the float error tolerated on
	// fee + seller == amount.
	SumEpsilon = 1e-9
)

// Split computes the commission split for a gross amount at the given
// rate. The fee is rounded half away from zero to DisplayDecimals; the
// seller amount is the exact remainder, so
// platformFee + sellerAmount == amount within SumEpsilon.
// Negative amounts are not a defined input.
func Split(amount float64, rateBPS int) (platformFee, sellerAmount float64) {
	platformFee = roundTo(amount*float64(rateBPS)/10000, DisplayDecimals)
	sellerAmount = amount - platformFee
	return platformFee, sellerAmount
}

// Format renders a SOL amount with DisplayDecimals fractional digits
// and the token suffix, e.g. "0.0005 SOL".
func Format(amount float64) string {
	return strconv.FormatFloat(amount, 'f', DisplayDecimals, 64) + " SOL"
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
