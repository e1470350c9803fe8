package scoring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/underwriter/internal/model"
)

const (
	seniorAge       = 65
	maxInquiries    = 3
	coreFraudItems  = 6
	alertCoreCount  = 2
	fraudItemsTotal = 8
)

var fraudDescriptions = [fraudItemsTotal]string{
	"identity documents match MyData",
	"resides in branch county or has payroll transfer here",
	"occupation, age and employment stability",
	"income completeness",
	"net worth level",
	"credit inquiries in the last 2 months",
	"existing borrowing relationship with the bank",
	"real estate ownership (reference)",
}

// DetectFraud runs the eight fraud checks and aggregates their severity.
// Unset tri-state flags never trigger. Alert takes precedence over caution:
// two core items (1-6), or items 7 and 8 together with any core item.
func DetectFraud(a model.Applicant, factors model.RiskFactors) model.FraudCheck {
	triggered := [fraudItemsTotal]bool{
		isFalse(a.DocumentMatchesMyData),
		isFalse(a.LivesInBranchCounty) && isFalse(a.HasSalaryTransferHere),
		a.Occupation == model.OccupationOther || a.Age >= seniorAge || factors.EmploymentStability.Level == minLevel,
		a.NoTaxRecord() || factors.IncomeGrowth.Level == minLevel,
		factors.NetWorthLevel.Level == minLevel,
		a.CreditInquiriesLast2Months > maxInquiries,
		isFalse(a.HasExistingBankLoan),
		isFalse(a.HasPropertyOwnership),
	}

	items := make([]model.FraudItem, fraudItemsTotal)
	var core []string
	for i, t := range triggered {
		items[i] = model.FraudItem{ID: i + 1, Description: fraudDescriptions[i], Triggered: t}
		if t && i < coreFraudItems {
			core = append(core, strconv.Itoa(i+1))
		}
	}
	noRelationship, noProperty := triggered[6], triggered[7]

	fc := model.FraudCheck{Items: items}
	switch {
	case len(core) == 0 && !noRelationship && !noProperty:
		fc.Severity = model.FraudNormal
		fc.Message = "no anomalies found"
	case len(core) >= alertCoreCount || (noRelationship && noProperty && len(core) >= 1):
		fc.Severity = model.FraudAlert
		var reasons []string
		if len(core) >= alertCoreCount {
			reasons = append(reasons, fmt.Sprintf("%d core items triggered", len(core)))
		}
		if noRelationship && noProperty {
			reasons = append(reasons, "no bank relationship and no real estate")
		}
		fc.Message = "alert: " + strings.Join(reasons, "; ") + "; decline or escalate to a supervisor"
	default:
		fc.Severity = model.FraudCaution
		var reasons []string
		if len(core) > 0 {
			reasons = append(reasons, "item "+strings.Join(core, ", ")+" triggered")
		}
		if noRelationship {
			reasons = append(reasons, "no existing bank relationship")
		}
		if noProperty {
			reasons = append(reasons, "no real estate")
		}
		fc.Message = "caution: " + strings.Join(reasons, "; ") + "; verify before proceeding"
	}
	return fc
}

func isFalse(b *bool) bool {
	return b != nil && !*b
}
