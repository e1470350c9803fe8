package scoring

import "github.com/sells-group/underwriter/internal/model"

// Existing mortgages are carried as long-term liabilities at this many months
// of their current payment.
const mortgageLiabilityMonths = 180

// collateralProxyRatio stands in for a property value when neither a
// valuation nor a declared holding is available.
const collateralProxyRatio = 1.25

// BuildBalanceSheet compiles assets, liabilities, net worth and LTV.
// Unlisted stock counts toward total assets but not liquid assets.
func BuildBalanceSheet(req model.LoanRequest) model.BalanceSheet {
	a := req.Applicant

	var gDeposit, gRealEstate, gUnsecured, gMortgage float64
	if g := req.Guarantor; g != nil {
		gDeposit = g.BankDepositHere
		gRealEstate = g.ExistingRealEstate
		gUnsecured = g.TotalUnsecuredDebt
		gMortgage = g.ExistingMortgageMonthly
	}

	liquid := a.BankDepositHere + a.BankDepositOther + a.Stocks + a.Bonds + a.Funds +
		a.InsuranceSurrenderValue + gDeposit
	realEstate := resolveRealEstate(req)
	total := liquid + a.Vehicles + realEstate + gRealEstate + a.UnlistedStocks + a.OtherAssets

	shortTerm := a.TotalUnsecuredDebt + gUnsecured
	longTerm := (a.ExistingMortgageMonthly + gMortgage) * mortgageLiabilityMonths
	liabilities := shortTerm + longTerm

	bs := model.BalanceSheet{
		TotalAssets:          total,
		LiquidAssets:         liquid,
		RealEstateValue:      realEstate,
		TotalLiabilities:     liabilities,
		ShortTermLiabilities: shortTerm,
		LongTermLiabilities:  longTerm,
		NetWorth:             total - liabilities,
	}

	switch {
	case req.Valuation != nil:
		ltv := req.Valuation.LTVRatio
		bs.LTVRatio = &ltv
	case req.LoanAmount > 0 && realEstate > 0:
		ltv := req.LoanAmount / realEstate
		bs.LTVRatio = &ltv
	}
	return bs
}

// resolveRealEstate picks the property value: the valuation estimate first,
// then a proxy derived from the principal when nothing is declared, then the
// declared holding.
func resolveRealEstate(req model.LoanRequest) float64 {
	if req.Valuation != nil && req.Valuation.EstimatedValue > 0 {
		return req.Valuation.EstimatedValue
	}
	if req.LoanAmount > 0 && req.Applicant.ExistingRealEstate == 0 {
		return req.LoanAmount * collateralProxyRatio
	}
	return req.Applicant.ExistingRealEstate
}
