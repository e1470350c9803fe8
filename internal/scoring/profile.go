package scoring

import "github.com/sells-group/underwriter/internal/model"

const (
	maxMortgageTerm        = 30
	maxMortgageAgeAtTerm   = 75
	maxInvestorTerm        = 20
	maxPersonalTerm        = 7
	subsidizedMaxAge       = 45
	personalPurposeLabel   = "personal credit"
	defaultMortgagePurpose = model.PurposePurchase
)

// EvaluateProfile derives first-home and subsidized-housing eligibility.
// Related-party status cannot be determined automatically and is always
// reported as false.
func EvaluateProfile(a model.Applicant, p *model.Property) model.ProfileEligibility {
	firstHome := p != nil && p.IsFirstHome && p.Purpose == model.PurposePurchase
	return model.ProfileEligibility{
		IsRelatedParty:     false,
		FirstHomeEligible:  firstHome,
		SubsidizedEligible: firstHome && p.IsOwnerOccupied && a.Age <= subsidizedMaxAge,
		MyDataProvided:     a.HasMyData,
	}
}

// CheckPurpose labels the loan purpose and checks the requested term against
// the age- and investor-adjusted maximum.
func CheckPurpose(req model.LoanRequest) model.PurposeCheck {
	var pc model.PurposeCheck
	if req.Property != nil {
		pc.InvestorDetected = req.Property.IsInvestor
		pc.BuilderBackground = req.Property.IsBuilderBackground
	}

	maxTerm := maxPersonalTerm
	pc.Purpose = personalPurposeLabel
	if req.LoanType.Secured() {
		pc.Purpose = string(defaultMortgagePurpose)
		if req.Property != nil && req.Property.Purpose != "" {
			pc.Purpose = string(req.Property.Purpose)
		}
		maxTerm = min(maxMortgageTerm, maxMortgageAgeAtTerm-req.Applicant.Age)
		if pc.InvestorDetected {
			maxTerm = min(maxTerm, maxInvestorTerm)
		}
	}

	pc.TermCheck = model.TermCheck{
		Pass:       req.TermYears <= maxTerm,
		MaxAllowed: maxTerm,
		Requested:  req.TermYears,
	}
	return pc
}
