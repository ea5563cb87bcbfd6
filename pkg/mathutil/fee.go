package mathutil

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// TenThousands is the basis point denominator.
var TenThousands = decimal.NewFromInt(10000)

// LessFee calculates an amount with a fee subtracted given an amount and a
// fee expressed in basis point (ie. 0.25% = 25). The fee is rounded down.
func LessFee(amount *big.Int, feeAsBasisPoint uint32) (withFee, calculatedFee *big.Int) {
	amountDecimal := decimal.NewFromBigInt(amount, 0)
	feeDecimal := decimal.NewFromInt(int64(feeAsBasisPoint))

	calculatedFeeDecimal := amountDecimal.Mul(feeDecimal).Div(TenThousands).Floor()
	withFeeDecimal := amountDecimal.Sub(calculatedFeeDecimal)

	return withFeeDecimal.BigInt(), calculatedFeeDecimal.BigInt()
}
