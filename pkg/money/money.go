package money

import (
	"github.com/shopspring/decimal"
)

// CurrencyPrecision is the number of decimal places for all stored amounts.
const CurrencyPrecision = 2

// Round rounds an amount to currency precision using half-up rounding.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPrecision)
}

// SplitEven divides total into n equal currency-rounded shares. The last share
// absorbs the rounding remainder so the shares sum exactly to total.
func SplitEven(total decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}

	share := Round(total.Div(decimal.NewFromInt(int64(n))))

	shares := make([]decimal.Decimal, n)
	running := decimal.Zero
	for i := 0; i < n-1; i++ {
		shares[i] = share
		running = running.Add(share)
	}
	shares[n-1] = total.Sub(running)

	return shares
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// ClampZero returns zero when the amount is negative.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
