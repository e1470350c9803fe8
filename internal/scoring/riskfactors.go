package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/underwriter/internal/model"
)

const (
	minLevel = 1
	maxLevel = 10

	// unverifiedIncomeCap bounds income and debt factors when income cannot
	// be traced to a tax record or MyData.
	unverifiedIncomeCap = 3
	// assetQualityCap bounds the net-worth factors for illiquid or
	// property-less balance sheets.
	assetQualityCap = 3
	// lowLTVBonus is the LTV below which net-worth factors gain a level.
	lowLTVBonus = 0.6
	// noShortTermDebtRatio stands in for liquidity when there is nothing to
	// cover.
	noShortTermDebtRatio = 999.0
	// noIncomeDebtRatio stands in for the expense ratio of a zero income.
	noIncomeDebtRatio = 100.0
)

// Ascending breakpoints: a value at or below bounds[i] scores level i+1, and
// anything above the last bound scores 10.
var (
	tenureBands         = []float64{2, 4, 6, 8, 10, 12, 14, 16, 18}
	insuranceGradeBands = []float64{4, 6, 8, 10, 12, 14, 16, 18, 20}
	monthlySalaryBands  = []float64{26400, 29600, 33300, 36300, 40100, 43900, 48200, 53000, 58500}
	netWorthBands       = []float64{25, 50, 100, 200, 400, 800, 1600, 3200, 6400} // ten-thousands
	netWorthRatioBands  = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90}
	liquidityBands      = []float64{20, 40, 60, 80, 100, 120, 140, 160, 180}
)

// debtRatioBands are descending: a ratio strictly above bounds[i] scores
// level i+1, and anything at or below the last bound scores 10.
var debtRatioBands = []float64{90, 80, 70, 60, 50, 40, 30, 20, 10}

func bandAscending(v float64, bounds []float64) int {
	for i, b := range bounds {
		if v <= b {
			return i + 1
		}
	}
	return maxLevel
}

func bandDescending(v float64, bounds []float64) int {
	for i, b := range bounds {
		if v > b {
			return i + 1
		}
	}
	return maxLevel
}

func clampLevel(l int) int {
	return max(minLevel, min(l, maxLevel))
}

// LevelLabel returns the qualitative name of a factor level.
func LevelLabel(level int) string {
	switch {
	case level <= 1:
		return "very poor (1)"
	case level <= 3:
		return fmt.Sprintf("low (%d)", level)
	case level <= 5:
		return fmt.Sprintf("fair (%d)", level)
	case level <= 7:
		return fmt.Sprintf("good (%d)", level)
	case level <= 9:
		return fmt.Sprintf("very good (%d)", level)
	default:
		return "excellent (10)"
	}
}

func factor(level int, notes []string) model.FactorScore {
	level = clampLevel(level)
	return model.FactorScore{
		Level:     level,
		Label:     LevelLabel(level),
		Rationale: strings.Join(notes, "; "),
	}
}

// ScoreRiskFactors rates the six risk factors on the 1-10 scale.
func ScoreRiskFactors(req model.LoanRequest, ledger model.RepaymentLedger, bs model.BalanceSheet) model.RiskFactors {
	return model.RiskFactors{
		EmploymentStability: scoreEmployment(req.Applicant),
		IncomeGrowth:        scoreIncomeGrowth(req.Applicant),
		NetWorthLevel:       scoreNetWorthLevel(req, bs),
		NetWorthRatio:       scoreNetWorthRatio(req, bs),
		LiquidityRatio:      scoreLiquidity(bs),
		DebtRatio:           scoreDebtRatio(req.Applicant, ledger),
	}
}

func scoreEmployment(a model.Applicant) model.FactorScore {
	level := bandAscending(a.YearsEmployed, tenureBands)
	notes := []string{fmt.Sprintf("%.1f years in current employment", a.YearsEmployed)}

	if a.IsPublicServant || a.Occupation.PublicSector() {
		level = min(level+1, maxLevel)
		notes = append(notes, "public sector +1")
	}
	if a.Occupation == model.OccupationOther {
		notes = append(notes, "occupation category is other")
	}
	return factor(level, notes)
}

func scoreIncomeGrowth(a model.Applicant) model.FactorScore {
	var level int
	var notes []string

	switch {
	case a.LaborInsuranceGrade != nil:
		g := *a.LaborInsuranceGrade
		level = bandAscending(float64(g), insuranceGradeBands)
		notes = append(notes, fmt.Sprintf("labor insurance grade %d", g))
	case a.HasMyData || (a.SalaryIncome != nil && *a.SalaryIncome > 0):
		annual := a.MonthlyIncome * 12
		if a.SalaryIncome != nil {
			annual = *a.SalaryIncome
		}
		monthly := annual / 12
		level = bandAscending(monthly, monthlySalaryBands)
		notes = append(notes, fmt.Sprintf("declared salary %.0f/month", monthly))
	default:
		level = int(math.Ceil(a.MonthlyIncome / 20000 * 1.5))
		level = max(minLevel, min(level, unverifiedIncomeCap))
		notes = append(notes, fmt.Sprintf("income unverifiable, capped at %d", unverifiedIncomeCap))
	}

	if a.IncomeRaisedRecently != nil {
		if *a.IncomeRaisedRecently {
			notes = append(notes, "raised within 14 months")
		} else {
			level = max(level-1, minLevel)
			notes = append(notes, "no raise within 14 months -1")
		}
	}
	return factor(level, notes)
}

// adjustNetWorth applies the shared caps and LTV bonus of both net-worth
// factors.
func adjustNetWorth(level int, notes []string, req model.LoanRequest, bs model.BalanceSheet) (int, []string) {
	unlisted := req.Applicant.UnlistedStocks
	if unlisted > 0 && unlisted > bs.NetWorth {
		level = min(level, assetQualityCap)
		notes = append(notes, fmt.Sprintf("unlisted stock exceeds net worth, capped at %d", assetQualityCap))
	}
	if bs.RealEstateValue == 0 && req.Applicant.ExistingRealEstate == 0 {
		level = min(level, assetQualityCap)
		notes = append(notes, fmt.Sprintf("no real estate, capped at %d", assetQualityCap))
	}
	if bs.RealEstateValue > 0 && req.LoanAmount > 0 {
		if ltv := req.LoanAmount / bs.RealEstateValue; ltv < lowLTVBonus {
			level = min(level+1, maxLevel)
			notes = append(notes, fmt.Sprintf("LTV %.1f%% below 60%% +1", ltv*100))
		}
	}
	return level, notes
}

func scoreNetWorthLevel(req model.LoanRequest, bs model.BalanceSheet) model.FactorScore {
	wan := bs.NetWorth / 10000
	level := bandAscending(wan, netWorthBands)
	notes := []string{fmt.Sprintf("net worth %.0f ten-thousand", wan)}
	level, notes = adjustNetWorth(level, notes, req, bs)
	return factor(level, notes)
}

func scoreNetWorthRatio(req model.LoanRequest, bs model.BalanceSheet) model.FactorScore {
	var ratio float64
	if bs.TotalAssets > 0 {
		ratio = bs.NetWorth / bs.TotalAssets * 100
	}
	level := bandAscending(ratio, netWorthRatioBands)
	notes := []string{fmt.Sprintf("net worth ratio %.1f%%", ratio)}
	level, notes = adjustNetWorth(level, notes, req, bs)
	return factor(level, notes)
}

func scoreLiquidity(bs model.BalanceSheet) model.FactorScore {
	if bs.ShortTermLiabilities <= 0 {
		return factor(maxLevel, []string{
			fmt.Sprintf("liquidity ratio %.1f%%", noShortTermDebtRatio),
			"no short-term liabilities",
		})
	}
	ratio := bs.LiquidAssets / bs.ShortTermLiabilities * 100
	level := bandAscending(ratio, liquidityBands)
	return factor(level, []string{fmt.Sprintf("liquidity ratio %.1f%%", ratio)})
}

func scoreDebtRatio(a model.Applicant, ledger model.RepaymentLedger) model.FactorScore {
	income := float64(ledger.MonthlyIncome)
	expense := float64(ledger.MonthlyExpense)

	ratio := noIncomeDebtRatio
	if income > 0 {
		ratio = expense / income * 100
	}
	level := bandDescending(ratio, debtRatioBands)
	notes := []string{fmt.Sprintf("expense ratio %.1f%%", ratio)}

	if a.NonRecurringIncome > 0 {
		nrMonthly := a.NonRecurringIncome / 12
		base := income - nrMonthly
		without := noIncomeDebtRatio
		if base > 0 {
			without = expense / base * 100
		}
		level = min(level, bandDescending(without, debtRatioBands))
		notes = append(notes, fmt.Sprintf("%.1f%% excluding non-recurring income, conservative level taken", without))
	}

	if a.NoTaxRecord() {
		level = min(level, unverifiedIncomeCap)
		notes = append(notes, fmt.Sprintf("no tax record, capped at %d", unverifiedIncomeCap))
	}
	return factor(level, notes)
}
