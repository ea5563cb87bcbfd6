package mathutil

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// divisionPrecision is the number of decimal places kept when dividing by a
// rate, before rounding down to an integer amount.
const divisionPrecision = 18

// MulRate multiplies the given amount by the given rate and rounds the result
// down to an integer amount.
func MulRate(amount *big.Int, rate decimal.Decimal) *big.Int {
	return decimal.NewFromBigInt(amount, 0).Mul(rate).Floor().BigInt()
}

// DivRate divides the given amount by the given rate and rounds the result
// down to an integer amount.
func DivRate(amount *big.Int, rate decimal.Decimal) (*big.Int, error) {
	if !rate.IsPositive() {
		return nil, fmt.Errorf("rate must be positive")
	}
	return decimal.NewFromBigInt(amount, 0).
		DivRound(rate, divisionPrecision).Floor().BigInt(), nil
}

// ToUnits converts a human readable amount (ie. 10.5) to base units given the
// precision of the asset (ie. 10500000 for 6 decimals). Fractions beyond the
// precision are not allowed.
func ToUnits(amount decimal.Decimal, precision int32) (*big.Int, error) {
	units := amount.Shift(precision)
	if !units.Equal(units.Floor()) {
		return nil, fmt.Errorf(
			"amount %s exceeds the precision of %d decimals", amount, precision,
		)
	}
	return units.BigInt(), nil
}

// FromUnits converts an amount in base units to its human readable form.
func FromUnits(units *big.Int, precision int32) decimal.Decimal {
	return decimal.NewFromBigInt(units, -precision)
}
