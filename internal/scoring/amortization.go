package scoring

import (
	"math"

	"github.com/shopspring/decimal"
)

// Policy rates (annual percent) used to price the new loan's own payment.
const (
	MortgageRatePct = 2.06
	PersonalRatePct = 5.5
)

var tenThousand = decimal.NewFromInt(10000)

// MonthlyPayment returns the equal-installment payment for principal borrowed
// at annualRatePct over termYears, rounded to the nearest whole unit. A zero
// rate spreads the principal evenly.
func MonthlyPayment(principal, annualRatePct float64, termYears int) int64 {
	n := termYears * 12
	if principal <= 0 || n <= 0 {
		return 0
	}
	r := annualRatePct / 1200
	if r == 0 {
		return roundHalfUp(principal / float64(n))
	}
	growth := math.Pow(1+r, float64(n))
	return roundHalfUp(principal * r * growth / (growth - 1))
}

// MaxPrincipal inverts MonthlyPayment: the largest principal the given
// payment services at annualRatePct over termYears. With a positive rate the
// result is floored to the nearest ten-thousand.
func MaxPrincipal(payment, annualRatePct float64, termYears int) int64 {
	n := termYears * 12
	if payment <= 0 || n <= 0 {
		return 0
	}
	r := annualRatePct / 1200
	if r == 0 {
		return roundHalfUp(payment * float64(n))
	}
	growth := math.Pow(1+r, float64(n))
	factor := (growth - 1) / (r * growth)
	return floorTenThousand(payment * factor)
}

// PolicyRate returns the pricing rate for a loan type.
func PolicyRate(secured bool) float64 {
	if secured {
		return MortgageRatePct
	}
	return PersonalRatePct
}

func roundHalfUp(v float64) int64 {
	return decimal.NewFromFloat(v).Round(0).IntPart()
}

func floorTenThousand(v float64) int64 {
	return decimal.NewFromFloat(v).Div(tenThousand).Floor().Mul(tenThousand).IntPart()
}

// roundTo rounds v to places decimal digits.
func roundTo(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
