package validation

import (
	"github.com/xeipuuv/gojsonschema"

	"github.com/sells-group/underwriter/internal/model"
)

const draft07 = "http://json-schema.org/draft-07/schema#"

type obj = map[string]any

var occupations = func() []any {
	out := make([]any, 0, len(model.Occupations))
	for _, o := range model.Occupations {
		out = append(out, string(o))
	}
	return out
}()

var (
	loanTypeSchema   = obj{"type": "string", "enum": []any{string(model.LoanTypeMortgage), string(model.LoanTypePersonal)}}
	loanAmountSchema = obj{"type": "number", "exclusiveMinimum": 0}
	termYearsSchema  = obj{"type": "integer", "minimum": 1, "maximum": 40}
	graceSchema      = obj{"type": "integer", "minimum": 0, "maximum": 5}
	nameSchema       = obj{"type": "string", "minLength": 1}
	ageSchema        = obj{"type": "integer", "minimum": 18, "maximum": 90}
	nonNegative      = obj{"type": "number", "minimum": 0}
	triState         = obj{"type": []any{"boolean", "null"}}
)

func applicantSchema() obj {
	return obj{
		"type":     "object",
		"required": []any{"name", "age", "occupation", "monthly_income"},
		"properties": obj{
			"name":                           nameSchema,
			"age":                            ageSchema,
			"occupation":                     obj{"enum": occupations},
			"is_public_servant":              obj{"type": "boolean"},
			"years_employed":                 nonNegative,
			"has_my_data":                    obj{"type": "boolean"},
			"monthly_income":                 nonNegative,
			"labor_insurance_grade":          obj{"type": []any{"integer", "null"}, "minimum": 0},
			"income_raised_recently":         triState,
			"salary_income":                  obj{"type": []any{"number", "null"}, "minimum": 0},
			"credit_inquiries_last_2_months": obj{"type": "integer", "minimum": 0},
			"document_matches_my_data":       triState,
			"lives_in_branch_county":         triState,
			"has_salary_transfer_here":       triState,
			"has_existing_bank_loan":         triState,
			"has_property_ownership":         triState,
			"total_unsecured_debt":           nonNegative,
		},
	}
}

func guarantorSchema() obj {
	return obj{
		"type":     []any{"object", "null"},
		"required": []any{"name", "age", "occupation"},
		"properties": obj{
			"name":           nameSchema,
			"age":            ageSchema,
			"occupation":     obj{"enum": occupations},
			"years_employed": nonNegative,
			"monthly_income": nonNegative,
		},
	}
}

func propertySchema() obj {
	return obj{
		"type":     []any{"object", "null"},
		"required": []any{"region", "purpose"},
		"properties": obj{
			"region":            nameSchema,
			"purpose":           obj{"enum": []any{string(model.PurposePurchase), string(model.PurposeRefinance), string(model.PurposeOther)}},
			"is_first_home":     obj{"type": "boolean"},
			"is_owner_occupied": obj{"type": "boolean"},
		},
	}
}

func valuationInputProperties() obj {
	return obj{
		"area_ping":     obj{"type": "number", "exclusiveMinimum": 0},
		"property_age":  nonNegative,
		"building_type": nameSchema,
		"floor":         obj{"type": "integer", "minimum": 1},
		"has_parking":   obj{"type": "boolean"},
		"layout":        nameSchema,
	}
}

var valuationInputRequired = []any{"area_ping", "property_age", "building_type", "floor", "has_parking", "layout"}

func valuationInputSchema() obj {
	return obj{
		"type":       []any{"object", "null"},
		"required":   valuationInputRequired,
		"properties": valuationInputProperties(),
	}
}

func creditReviewSchema() obj {
	return obj{
		"$schema":  draft07,
		"type":     "object",
		"required": []any{"loan_type", "loan_amount", "term_years", "applicant"},
		"properties": obj{
			"loan_type":          loanTypeSchema,
			"loan_amount":        loanAmountSchema,
			"term_years":         termYearsSchema,
			"grace_period_years": graceSchema,
			"applicant":          applicantSchema(),
			"guarantor":          guarantorSchema(),
			"property":           propertySchema(),
		},
	}
}

func workflowSchema() obj {
	s := creditReviewSchema()
	props := s["properties"].(obj)
	props["application_id"] = obj{"type": "string", "maxLength": 64}
	props["valuation_input"] = valuationInputSchema()
	return s
}

func committeeSchema() obj {
	return obj{
		"$schema": draft07,
		"type":    "object",
		"required": []any{
			"loan_type", "loan_amount", "term_years",
			"borrower_name", "borrower_age", "occupation", "purpose", "credit_summary",
		},
		"properties": obj{
			"application_id": obj{"type": "string", "maxLength": 64},
			"loan_type":      loanTypeSchema,
			"loan_amount":    loanAmountSchema,
			"term_years":     termYearsSchema,
			"borrower_name":  nameSchema,
			"borrower_age":   ageSchema,
			"occupation":     nameSchema,
			"purpose":        nameSchema,
			"credit_summary": obj{
				"type": "object",
				"required": []any{
					"risk_score", "fraud_level", "threshold_pass", "primary_metric_name",
					"primary_metric_value", "fraud_pass_count", "overall_assessment",
				},
				"properties": obj{
					"risk_score":           obj{"type": "integer", "minimum": 0, "maximum": 100},
					"fraud_level":          obj{"enum": []any{string(model.FraudNormal), string(model.FraudCaution), string(model.FraudAlert)}},
					"threshold_pass":       obj{"type": "boolean"},
					"primary_metric_name":  obj{"enum": []any{"DBR", "DTI"}},
					"primary_metric_value": obj{"type": "number"},
					"fraud_pass_count":     obj{"type": "integer", "minimum": 0, "maximum": 8},
					"overall_assessment":   obj{"type": "string"},
					"adjusted_loan_amount": obj{"type": []any{"integer", "null"}, "minimum": 0},
				},
			},
			"valuation_summary": obj{
				"type":     []any{"object", "null"},
				"required": []any{"estimated_value", "ltv_ratio", "risk_level", "sentiment_score"},
				"properties": obj{
					"estimated_value": obj{"type": "number", "exclusiveMinimum": 0},
					"ltv_ratio":       nonNegative,
					"risk_level":      obj{"enum": []any{string(model.RiskLevelLow), string(model.RiskLevelMedium), string(model.RiskLevelHigh)}},
					"sentiment_score": obj{"type": "number", "minimum": -1, "maximum": 1},
				},
			},
		},
	}
}

func valuationSchema() obj {
	props := valuationInputProperties()
	props["region"] = nameSchema
	props["loan_amount"] = loanAmountSchema
	return obj{
		"$schema":    draft07,
		"type":       "object",
		"required":   append(append([]any{}, valuationInputRequired...), "region", "loan_amount"),
		"properties": props,
	}
}

func compile(s obj) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(s))
	if err != nil {
		panic("validation: invalid built-in schema: " + err.Error())
	}
	return schema
}
