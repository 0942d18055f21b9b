package service

import (
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"prequal-service/domain"
)

// Policy holds the configurable envelope constraints. The numeric bounds of
// the calculation inputs are fixed and live in constants.go.
type Policy struct {
	MinValidityDays     int
	MaxValidityDays     int
	DefaultValidityDays int
	Currencies          []string
	DefaultCurrency     string
}

func DefaultPolicy() Policy {
	return Policy{
		MinValidityDays:     1,
		MaxValidityDays:     365,
		DefaultValidityDays: 90,
		Currencies:          []string{"TTD", "USD"},
		DefaultCurrency:     "TTD",
	}
}

// Normalize fills in omitted optional envelope fields.
func (p Policy) Normalize(req domain.CalculationRequest) domain.CalculationRequest {
	if req.Currency == "" {
		req.Currency = p.DefaultCurrency
	}
	if req.ValidityDays == 0 {
		req.ValidityDays = p.DefaultValidityDays
	}
	req.Applicant.Name = strings.TrimSpace(req.Applicant.Name)
	req.Applicant.Email = strings.TrimSpace(req.Applicant.Email)
	req.Applicant.Phone = strings.TrimSpace(req.Applicant.Phone)
	return req
}

// Validate is the schema stage: it checks every declared constraint and
// returns a *SchemaViolation listing all failures, or nil.
func (p Policy) Validate(req domain.CalculationRequest) error {
	v := &SchemaViolation{}

	nameLen := utf8.RuneCountInString(req.Applicant.Name)
	if nameLen == 0 {
		v.add("applicant.name", "is required")
	} else if nameLen > MaxApplicantNameLen {
		v.add("applicant.name", "must be at most %d characters", MaxApplicantNameLen)
	}

	if !slices.Contains(p.Currencies, req.Currency) {
		v.add("currency", "must be one of %s", strings.Join(p.Currencies, ", "))
	}
	if req.ValidityDays < p.MinValidityDays || req.ValidityDays > p.MaxValidityDays {
		v.add("validity_days", "must be between %d and %d", p.MinValidityDays, p.MaxValidityDays)
	}

	switch req.CalculationType {
	case domain.CalculationAffordability:
		if req.AffordabilityInput == nil {
			v.add("affordability_input", "is required for %s", req.CalculationType)
		} else {
			validateAffordability(v, *req.AffordabilityInput)
		}
	case domain.CalculationPayment:
		if req.PaymentInput == nil {
			v.add("payment_input", "is required for %s", req.CalculationType)
		} else {
			validatePayment(v, *req.PaymentInput)
		}
	default:
		v.add("calculation_type", "must be %s or %s", domain.CalculationAffordability, domain.CalculationPayment)
	}

	if v.empty() {
		return nil
	}
	return v
}

// ValidateAffordability checks an affordability input on its own.
func ValidateAffordability(in domain.AffordabilityRequest) error {
	v := &SchemaViolation{}
	validateAffordability(v, in)
	if v.empty() {
		return nil
	}
	return v
}

// ValidatePayment checks a payment input on its own.
func ValidatePayment(in domain.PaymentRequest) error {
	v := &SchemaViolation{}
	validatePayment(v, in)
	if v.empty() {
		return nil
	}
	return v
}

func validateAffordability(v *SchemaViolation, in domain.AffordabilityRequest) {
	const prefix = "affordability_input."

	incomeValid := finite(in.GrossMonthlyIncome) && in.GrossMonthlyIncome > 0 && in.GrossMonthlyIncome <= MaxGrossMonthlyIncome
	if !incomeValid {
		v.add(prefix+"gross_monthly_income", "must be greater than 0 and at most %.0f", MaxGrossMonthlyIncome)
	}
	if !finite(in.DSRRatio) || in.DSRRatio < MinDSRRatio || in.DSRRatio > MaxDSRRatio {
		v.add(prefix+"dsr_ratio", "must be between %.1f and %.1f", MinDSRRatio, MaxDSRRatio)
	}
	switch {
	case !finite(in.MonthlyObligations) || in.MonthlyObligations < 0:
		v.add(prefix+"monthly_obligations", "must be 0 or greater")
	case incomeValid && in.MonthlyObligations >= in.GrossMonthlyIncome:
		v.add(prefix+"monthly_obligations", "must be less than gross monthly income")
	}
	validateRateTermStress(v, prefix, in.AnnualInterestRate, in.TermYears, in.StressRateBps)
}

func validatePayment(v *SchemaViolation, in domain.PaymentRequest) {
	const prefix = "payment_input."

	if !finite(in.PrincipalAmount) || in.PrincipalAmount <= 0 || in.PrincipalAmount > MaxPrincipalAmount {
		v.add(prefix+"principal_amount", "must be greater than 0 and at most %.0f", MaxPrincipalAmount)
	}
	validateRateTermStress(v, prefix, in.AnnualInterestRate, in.TermYears, in.StressRateBps)
}

func validateRateTermStress(v *SchemaViolation, prefix string, rate float64, term, stressBps int) {
	if !finite(rate) || rate <= MinInterestRate || rate > MaxInterestRate {
		v.add(prefix+"annual_interest_rate", "must be greater than %.3f and at most %.2f", MinInterestRate, MaxInterestRate)
	}
	if term < MinTermYears || term > MaxTermYears {
		v.add(prefix+"term_years", "must be between %d and %d", MinTermYears, MaxTermYears)
	}
	if stressBps < 0 || stressBps > MaxStressRateBps {
		v.add(prefix+"stress_rate_bps", "must be between 0 and %d", MaxStressRateBps)
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
