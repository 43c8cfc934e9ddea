package money

import "github.com/shopspring/decimal"

// Normalize rescales an integer minor-unit amount from one decimal
// precision to another. Precision loss truncates toward zero; historical
// data was produced with truncation, so the behavior is kept bit-for-bit.
func Normalize(amount int64, fromDecimals, toDecimals int) int64 {
	if fromDecimals == toDecimals {
		return amount
	}
	d := decimal.New(amount, 0).Shift(int32(toDecimals - fromDecimals))
	return d.Truncate(0).IntPart()
}
