package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthlyPayment_MortgageTwentyYears(t *testing.T) {
	p := MonthlyPayment(10_000_000, MortgageRatePct, 20)
	assert.GreaterOrEqual(t, p, int64(49_000))
	assert.LessOrEqual(t, p, int64(53_000))
}

func TestMonthlyPayment_ZeroRate(t *testing.T) {
	assert.Equal(t, int64(10_000), MonthlyPayment(1_200_000, 0, 10))
}

func TestMonthlyPayment_DegenerateInputs(t *testing.T) {
	assert.Zero(t, MonthlyPayment(0, MortgageRatePct, 20))
	assert.Zero(t, MonthlyPayment(-5, MortgageRatePct, 20))
	assert.Zero(t, MonthlyPayment(1_000_000, MortgageRatePct, 0))
}

func TestMaxPrincipal_RoundTrip(t *testing.T) {
	cases := []struct {
		principal float64
		rate      float64
		term      int
	}{
		{10_000_000, MortgageRatePct, 20},
		{8_500_000, MortgageRatePct, 30},
		{1_000_000, PersonalRatePct, 7},
		{600_000, PersonalRatePct, 3},
		{2_400_000, 0, 10},
	}
	for _, tc := range cases {
		payment := MonthlyPayment(tc.principal, tc.rate, tc.term)
		got := MaxPrincipal(float64(payment), tc.rate, tc.term)
		assert.InDelta(t, tc.principal, float64(got), 10_000, "principal %.0f rate %.2f term %d", tc.principal, tc.rate, tc.term)
	}
}

func TestMaxPrincipal_FloorsToTenThousand(t *testing.T) {
	got := MaxPrincipal(33_333, MortgageRatePct, 25)
	assert.Zero(t, got%10_000)
	assert.Positive(t, got)
}

func TestMaxPrincipal_NonPositivePayment(t *testing.T) {
	assert.Zero(t, MaxPrincipal(0, MortgageRatePct, 20))
	assert.Zero(t, MaxPrincipal(-100, MortgageRatePct, 20))
}

func TestPolicyRate(t *testing.T) {
	assert.Equal(t, MortgageRatePct, PolicyRate(true))
	assert.Equal(t, PersonalRatePct, PolicyRate(false))
}
