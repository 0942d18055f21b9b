package domain

import (
	"encoding/json"

	"cloud.google.com/go/civil"
)

type CalculationType string

const (
	CalculationAffordability CalculationType = "AFFORDABILITY"
	CalculationPayment       CalculationType = "PAYMENT"
)

type Applicant struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type AffordabilityRequest struct {
	GrossMonthlyIncome float64 `json:"gross_monthly_income"`
	DSRRatio           float64 `json:"dsr_ratio"`
	MonthlyObligations float64 `json:"monthly_obligations"`
	AnnualInterestRate float64 `json:"annual_interest_rate"`
	TermYears          int     `json:"term_years"`
	StressRateBps      int     `json:"stress_rate_bps,omitempty"`
}

type PaymentRequest struct {
	PrincipalAmount    float64 `json:"principal_amount"`
	AnnualInterestRate float64 `json:"annual_interest_rate"`
	TermYears          int     `json:"term_years"`
	StressRateBps      int     `json:"stress_rate_bps,omitempty"`
}

// CalculationRequest is the full request accepted by the quote endpoint.
// Exactly one of AffordabilityInput or PaymentInput is expected, matching
// CalculationType.
type CalculationRequest struct {
	CalculationType    CalculationType       `json:"calculation_type"`
	Applicant          Applicant             `json:"applicant"`
	AffordabilityInput *AffordabilityRequest `json:"affordability_input,omitempty"`
	PaymentInput       *PaymentRequest       `json:"payment_input,omitempty"`
	Currency           string                `json:"currency,omitempty"`
	ValidityDays       int                   `json:"validity_days,omitempty"`
}

// QuoteMeta carries the envelope inputs shared by both calculation modes.
type QuoteMeta struct {
	Applicant    Applicant
	Currency     string
	ValidityDays int
}

// QuoteResult is produced once by the quote engine and is read-only afterwards.
// Only one of AffordabilityFigures and PaymentFigures is set; their fields are
// flattened into the JSON object.
type QuoteResult struct {
	CertificateID       string          `json:"certificate_id"`
	CalculationType     CalculationType `json:"calculation_type"`
	Applicant           Applicant       `json:"applicant"`
	Currency            string          `json:"currency"`
	IssueDate           civil.Date      `json:"issue_date"`
	ExpiryDate          civil.Date      `json:"expiry_date"`
	ValidityDays        int             `json:"validity_days"`
	AnnualInterestRate  float64         `json:"annual_interest_rate"`
	InterestRatePercent float64         `json:"interest_rate_percent"`
	TermYears           int             `json:"term_years"`

	// MonthlyPayment is the computed instalment for payment quotes and the
	// affordable payment for affordability quotes.
	MonthlyPayment float64 `json:"monthly_payment"`

	*AffordabilityFigures
	*PaymentFigures

	StressTest *StressResult `json:"stress_test,omitempty"`
}

type AffordabilityFigures struct {
	GrossMonthlyIncome          float64 `json:"gross_monthly_income"`
	GrossMonthlyIncomeFormatted string  `json:"gross_monthly_income_formatted"`
	DSRRatio                    float64 `json:"dsr_ratio"`
	MonthlyObligations          float64 `json:"monthly_obligations"`
	MonthlyObligationsFormatted string  `json:"monthly_obligations_formatted"`
	AffordablePayment           float64 `json:"affordable_payment"`
	AffordablePaymentFormatted  string  `json:"affordable_payment_formatted"`
	MaxLoanAmount               float64 `json:"max_loan_amount"`
	MaxLoanFormatted            string  `json:"max_loan_formatted"`
}

type PaymentFigures struct {
	PrincipalAmount         float64 `json:"principal_amount"`
	PrincipalFormatted      string  `json:"principal_formatted"`
	MonthlyPaymentFormatted string  `json:"monthly_payment_formatted"`
	TotalPayments           float64 `json:"total_payments"`
	TotalPaymentsFormatted  string  `json:"total_payments_formatted"`
	TotalInterest           float64 `json:"total_interest"`
	TotalInterestFormatted  string  `json:"total_interest_formatted"`
}

// StressResult compares the primary figure at the base rate with the same
// figure at the base rate plus StressRateBps. DeltaAmount is the loss of
// borrowing capacity (affordability) or the payment increase (payment).
//
// The JSON keys depend on Mode: stress_max_loan and reduction_* for
// affordability, stress_monthly_payment and increase_* for payment.
type StressResult struct {
	Mode                    CalculationType
	StressRateBps           int
	StressAnnualRate        float64
	StressRatePercent       float64
	StressedAmount          float64
	StressedAmountFormatted string
	DeltaAmount             float64
	DeltaPercent            float64
}

type affordabilityStressJSON struct {
	StressRateBps          int     `json:"stress_rate_bps"`
	StressAnnualRate       float64 `json:"stress_annual_rate"`
	StressRatePercent      float64 `json:"stress_rate_percent"`
	StressMaxLoan          float64 `json:"stress_max_loan"`
	StressMaxLoanFormatted string  `json:"stress_max_loan_formatted"`
	ReductionAmount        float64 `json:"reduction_amount"`
	ReductionPercent       float64 `json:"reduction_percent"`
}

type paymentStressJSON struct {
	StressRateBps          int     `json:"stress_rate_bps"`
	StressAnnualRate       float64 `json:"stress_annual_rate"`
	StressRatePercent      float64 `json:"stress_rate_percent"`
	StressMonthlyPayment   float64 `json:"stress_monthly_payment"`
	StressPaymentFormatted string  `json:"stress_payment_formatted"`
	IncreaseAmount         float64 `json:"increase_amount"`
	IncreasePercent        float64 `json:"increase_percent"`
}

func (s StressResult) MarshalJSON() ([]byte, error) {
	if s.Mode == CalculationPayment {
		return json.Marshal(paymentStressJSON{
			StressRateBps:          s.StressRateBps,
			StressAnnualRate:       s.StressAnnualRate,
			StressRatePercent:      s.StressRatePercent,
			StressMonthlyPayment:   s.StressedAmount,
			StressPaymentFormatted: s.StressedAmountFormatted,
			IncreaseAmount:         s.DeltaAmount,
			IncreasePercent:        s.DeltaPercent,
		})
	}
	return json.Marshal(affordabilityStressJSON{
		StressRateBps:          s.StressRateBps,
		StressAnnualRate:       s.StressAnnualRate,
		StressRatePercent:      s.StressRatePercent,
		StressMaxLoan:          s.StressedAmount,
		StressMaxLoanFormatted: s.StressedAmountFormatted,
		ReductionAmount:        s.DeltaAmount,
		ReductionPercent:       s.DeltaPercent,
	})
}

// UnmarshalJSON accepts either shape and infers Mode from the keys present.
func (s *StressResult) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	if _, ok := keys["stress_monthly_payment"]; ok {
		var p paymentStressJSON
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*s = StressResult{
			Mode:                    CalculationPayment,
			StressRateBps:           p.StressRateBps,
			StressAnnualRate:        p.StressAnnualRate,
			StressRatePercent:       p.StressRatePercent,
			StressedAmount:          p.StressMonthlyPayment,
			StressedAmountFormatted: p.StressPaymentFormatted,
			DeltaAmount:             p.IncreaseAmount,
			DeltaPercent:            p.IncreasePercent,
		}
		return nil
	}

	var a affordabilityStressJSON
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = StressResult{
		Mode:                    CalculationAffordability,
		StressRateBps:           a.StressRateBps,
		StressAnnualRate:        a.StressAnnualRate,
		StressRatePercent:       a.StressRatePercent,
		StressedAmount:          a.StressMaxLoan,
		StressedAmountFormatted: a.StressMaxLoanFormatted,
		DeltaAmount:             a.ReductionAmount,
		DeltaPercent:            a.ReductionPercent,
	}
	return nil
}

// PrimaryAmount returns the headline figure of the quote: the maximum loan
// for affordability quotes, the monthly payment for payment quotes.
func (q QuoteResult) PrimaryAmount() float64 {
	switch {
	case q.AffordabilityFigures != nil:
		return q.MaxLoanAmount
	case q.PaymentFigures != nil:
		return q.MonthlyPayment
	}
	return 0
}
