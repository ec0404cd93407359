package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// floorRetailPrice is the lowest retail price ever quoted.
const floorRetailPrice = 9.9

var (
	ten     = decimal.NewFromInt(10)
	hundred = decimal.NewFromInt(100)

	lowBucketMax  = decimal.RequireFromString("2.4")
	midBucketMin  = decimal.RequireFromString("2.5")
	midBucketMax  = decimal.RequireFromString("7.4")
	highBucketMin = decimal.RequireFromString("7.5")
	highBucketMax = decimal.RequireFromString("9.9")

	endingFour = decimal.RequireFromString("4.9")
	endingNine = decimal.RequireFromString("9.9")
)

// RoundRetailPrice maps a raw retail price to a price ending in .9 or 4.9 by decade bucket.
// NaN, infinite and non-positive prices return 0; prices below 10 return 9.9.
func RoundRetailPrice(price float64) float64 {
	if !isFinite(price) || price <= 0 {
		return 0
	}
	if price < 10 {
		return floorRetailPrice
	}

	d := decimal.NewFromFloat(price)
	integerPart := d.Floor()
	decimalPart := d.Sub(integerPart)
	tens := integerPart.Div(ten).Floor().Mul(ten)
	finalPart := integerPart.Mod(ten).Add(decimalPart)

	switch {
	case finalPart.LessThanOrEqual(lowBucketMax):
		return math.Max(floorRetailPrice, tens.Sub(ten).Add(endingNine).InexactFloat64())
	case finalPart.GreaterThanOrEqual(midBucketMin) && finalPart.LessThanOrEqual(midBucketMax):
		return tens.Add(endingFour).InexactFloat64()
	case finalPart.GreaterThanOrEqual(highBucketMin) && finalPart.LessThanOrEqual(highBucketMax):
		return tens.Add(endingNine).InexactFloat64()
	}
	// finalPart fell between two buckets, e.g. 2.45 or 9.95.
	return tens.Add(endingFour).InexactFloat64()
}

// RoundPurchasePrice truncates to one decimal place, never rounding up.
// It floors the shortest decimal form of price, so it can differ from
// math.Floor(price*10)/10 when price lies just below a tenth and price*10
// rounds up to an integer in float arithmetic: 0.8999999999999999 yields 0.8
// here, where the float formula gives 0.9.
func RoundPurchasePrice(price float64) float64 {
	if !isFinite(price) {
		return 0
	}
	return decimal.NewFromFloat(price).Mul(ten).Floor().Div(ten).InexactFloat64()
}

// RoundUpToTwoDecimals formats num with two decimals, rounding towards +Inf.
func RoundUpToTwoDecimals(num float64) string {
	if !isFinite(num) {
		return "0.00"
	}
	return decimal.NewFromFloat(num).Mul(hundred).Ceil().Div(hundred).StringFixed(2)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
