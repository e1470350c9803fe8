// Package validation checks inbound API payloads against JSON schemas and the
// cross-field rules a schema cannot express, then decodes them into model
// requests.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"

	"github.com/sells-group/underwriter/internal/model"
	"github.com/sells-group/underwriter/internal/valuation"
)

// Kind names a payload shape.
type Kind string

const (
	KindCreditReview Kind = "credit_review"
	KindCommittee    Kind = "committee_review"
	KindWorkflow     Kind = "workflow"
	KindValuation    Kind = "valuate"
)

var schemas = map[Kind]*gojsonschema.Schema{
	KindCreditReview: compile(creditReviewSchema()),
	KindCommittee:    compile(committeeSchema()),
	KindWorkflow:     compile(workflowSchema()),
	KindValuation:    compile(valuationSchema()),
}

// FieldError is a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the full list of problems found in one payload.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *Errors) add(field, format string, args ...any) {
	*e = append(*e, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e Errors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	sort.SliceStable(e, func(i, j int) bool { return e[i].Field < e[j].Field })
	return e
}

// AsErrors extracts field errors from err, if it carries any.
func AsErrors(err error) (Errors, bool) {
	var ve Errors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Schema validates raw against the schema for kind.
func Schema(kind Kind, raw []byte) error {
	schema, ok := schemas[kind]
	if !ok {
		return eris.Errorf("validation: unknown payload kind %q", kind)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return Errors{{Field: "(root)", Message: "request body is required"}}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return Errors{{Field: "(root)", Message: "request body must be valid JSON"}}
	}
	if result.Valid() {
		return nil
	}

	var errs Errors
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if prop, ok := desc.Details()["property"].(string); ok {
				field = joinField(field, prop)
			}
		}
		errs.add(field, "%s", desc.Description())
	}
	return errs.orNil()
}

func joinField(parent, child string) string {
	if parent == "" || parent == "(root)" {
		return child
	}
	return parent + "." + child
}

// DecodeLoanRequest validates and decodes a credit review payload.
func DecodeLoanRequest(raw []byte) (model.LoanRequest, error) {
	var req model.LoanRequest
	if err := decode(KindCreditReview, raw, &req); err != nil {
		return req, err
	}
	var errs Errors
	checkLoan(&errs, req.LoanType, req.Applicant, req.Guarantor, req.Property)
	return req, errs.orNil()
}

// DecodeWorkflowRequest validates and decodes a workflow payload. Unlike a
// standalone credit review, a workflow needs a positive declared income.
func DecodeWorkflowRequest(raw []byte) (model.WorkflowRequest, error) {
	var req model.WorkflowRequest
	if err := decode(KindWorkflow, raw, &req); err != nil {
		return req, err
	}
	var errs Errors
	checkLoan(&errs, req.LoanType, req.Applicant, req.Guarantor, req.Property)
	if req.Applicant.MonthlyIncome <= 0 {
		errs.add("applicant.monthly_income", "must be greater than 0")
	}
	if req.ValuationInput != nil && !req.LoanType.Secured() {
		errs.add("valuation_input", "only applies to mortgage requests")
	}
	if req.ValuationInput != nil {
		checkValuationInput(&errs, "valuation_input.", *req.ValuationInput)
	}
	return req, errs.orNil()
}

// DecodeCommitteeRequest validates and decodes a standalone committee payload.
func DecodeCommitteeRequest(raw []byte) (model.CommitteeRequest, error) {
	var req model.CommitteeRequest
	if err := decode(KindCommittee, raw, &req); err != nil {
		return req, err
	}
	var errs Errors
	if strings.TrimSpace(req.BorrowerName) == "" {
		errs.add("borrower_name", "must not be blank")
	}
	if strings.TrimSpace(req.Occupation) == "" {
		errs.add("occupation", "must not be blank")
	}
	if strings.TrimSpace(req.Purpose) == "" {
		errs.add("purpose", "must not be blank")
	}
	if req.Credit.PrimaryMetricName == "DBR" && req.LoanType.Secured() {
		errs.add("credit_summary.primary_metric_name", "DBR applies to personal loans only")
	}
	if req.Valuation != nil && !req.LoanType.Secured() {
		errs.add("valuation_summary", "only applies to mortgage requests")
	}
	return req, errs.orNil()
}

// DecodeValuationRequest validates and decodes a valuation payload.
func DecodeValuationRequest(raw []byte) (valuation.Request, error) {
	var req valuation.Request
	if err := decode(KindValuation, raw, &req); err != nil {
		return req, err
	}
	var errs Errors
	if strings.TrimSpace(req.Region) == "" {
		errs.add("region", "must not be blank")
	}
	checkValuationInput(&errs, "", req.ValuationInput)
	return req, errs.orNil()
}

func decode(kind Kind, raw []byte, dst any) error {
	if err := Schema(kind, raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return eris.Wrapf(err, "validation: decode %s", kind)
	}
	return nil
}

func checkLoan(errs *Errors, lt model.LoanType, a model.Applicant, g *model.Guarantor, p *model.Property) {
	if strings.TrimSpace(a.Name) == "" {
		errs.add("applicant.name", "must not be blank")
	}
	if g != nil && strings.TrimSpace(g.Name) == "" {
		errs.add("guarantor.name", "must not be blank")
	}
	if lt.Secured() {
		if p == nil {
			errs.add("property", "is required for mortgage requests")
		} else if strings.TrimSpace(p.Region) == "" {
			errs.add("property.region", "must not be blank")
		}
	}
}

func checkValuationInput(errs *Errors, prefix string, in model.ValuationInput) {
	if strings.TrimSpace(in.BuildingType) == "" {
		errs.add(prefix+"building_type", "must not be blank")
	}
	if strings.TrimSpace(in.Layout) == "" {
		errs.add(prefix+"layout", "must not be blank")
	}
}
