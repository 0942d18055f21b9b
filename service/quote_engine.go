package service

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"

	"prequal-service/domain"
)

// OutcomeKind discriminates the result of QuoteEngine.Quote.
type OutcomeKind int

const (
	// OutcomeOK carries a QuoteResult.
	OutcomeOK OutcomeKind = iota
	// OutcomeSchemaViolation means an input failed its declared constraints.
	OutcomeSchemaViolation
	// OutcomeNegativeAffordability means valid inputs leave no affordable payment.
	OutcomeNegativeAffordability
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeSchemaViolation:
		return "schema_violation"
	case OutcomeNegativeAffordability:
		return "negative_affordability"
	}
	return "unknown"
}

// Outcome is the tagged result of a quote request. Exactly one of Result,
// Violation or Shortfall is meaningful, selected by Kind.
type Outcome struct {
	Kind      OutcomeKind
	Result    domain.QuoteResult
	Violation *SchemaViolation
	Shortfall *NegativeAffordability
}

// Err returns the rejection carried by the outcome, or nil for OutcomeOK.
func (o Outcome) Err() error {
	switch o.Kind {
	case OutcomeSchemaViolation:
		return o.Violation
	case OutcomeNegativeAffordability:
		return o.Shortfall
	}
	return nil
}

// QuoteEngine turns validated applicant inputs into quote results. It holds
// no mutable state and is safe for concurrent use.
type QuoteEngine struct {
	ids    IDGenerator
	now    func() time.Time
	policy Policy
}

// NewQuoteEngine creates a QuoteEngine. A nil now defaults to time.Now.
func NewQuoteEngine(ids IDGenerator, now func() time.Time, policy Policy) *QuoteEngine {
	if now == nil {
		now = time.Now
	}
	return &QuoteEngine{ids: ids, now: now, policy: policy}
}

// Quote runs the schema stage and then the calculation stage, reporting
// rejections through the returned Outcome rather than an error.
func (e *QuoteEngine) Quote(req domain.CalculationRequest) Outcome {
	req = e.policy.Normalize(req)

	if err := e.policy.Validate(req); err != nil {
		var violation *SchemaViolation
		errors.As(err, &violation)
		return Outcome{Kind: OutcomeSchemaViolation, Violation: violation}
	}

	meta := domain.QuoteMeta{
		Applicant:    req.Applicant,
		Currency:     req.Currency,
		ValidityDays: req.ValidityDays,
	}

	if req.CalculationType == domain.CalculationPayment {
		return Outcome{Kind: OutcomeOK, Result: e.ProcessPayment(meta, *req.PaymentInput)}
	}

	result, err := e.ProcessAffordability(meta, *req.AffordabilityInput)
	if err != nil {
		var shortfall *NegativeAffordability
		errors.As(err, &shortfall)
		return Outcome{Kind: OutcomeNegativeAffordability, Shortfall: shortfall}
	}
	return Outcome{Kind: OutcomeOK, Result: result}
}

// ProcessAffordability computes the largest loan the applicant can service.
// The only error it returns is *NegativeAffordability; inputs are expected to
// have passed validation.
func (e *QuoteEngine) ProcessAffordability(meta domain.QuoteMeta, in domain.AffordabilityRequest) (domain.QuoteResult, error) {
	affordable := in.GrossMonthlyIncome*in.DSRRatio - in.MonthlyObligations
	if affordable <= 0 {
		return domain.QuoteResult{}, &NegativeAffordability{AffordablePayment: Round2(affordable)}
	}

	maxLoan := MaxLoan(affordable, in.AnnualInterestRate, in.TermYears)

	result := e.envelope(meta, domain.CalculationAffordability, in.AnnualInterestRate, in.TermYears)
	result.MonthlyPayment = Round2(affordable)
	result.AffordabilityFigures = &domain.AffordabilityFigures{
		GrossMonthlyIncome:          Round2(in.GrossMonthlyIncome),
		GrossMonthlyIncomeFormatted: FormatCurrency(Round2(in.GrossMonthlyIncome), meta.Currency),
		DSRRatio:                    in.DSRRatio,
		MonthlyObligations:          Round2(in.MonthlyObligations),
		MonthlyObligationsFormatted: FormatCurrency(Round2(in.MonthlyObligations), meta.Currency),
		AffordablePayment:           Round2(affordable),
		AffordablePaymentFormatted:  FormatCurrency(Round2(affordable), meta.Currency),
		MaxLoanAmount:               maxLoan,
		MaxLoanFormatted:            FormatCurrency(maxLoan, meta.Currency),
	}

	if in.StressRateBps > 0 {
		stressRate := StressedRate(in.AnnualInterestRate, in.StressRateBps)
		stressMaxLoan := MaxLoan(affordable, stressRate, in.TermYears)
		result.StressTest = stressResult(domain.CalculationAffordability, in.StressRateBps, stressRate, maxLoan, stressMaxLoan, maxLoan-stressMaxLoan, meta.Currency)
	}

	return result, nil
}

// ProcessPayment computes the monthly instalment and lifetime cost of a loan.
func (e *QuoteEngine) ProcessPayment(meta domain.QuoteMeta, in domain.PaymentRequest) domain.QuoteResult {
	payment := MonthlyPayment(in.PrincipalAmount, in.AnnualInterestRate, in.TermYears)
	totalPayments := Round2(payment * float64(in.TermYears*MonthsPerYear))
	totalInterest := Round2(totalPayments - in.PrincipalAmount)

	result := e.envelope(meta, domain.CalculationPayment, in.AnnualInterestRate, in.TermYears)
	result.MonthlyPayment = payment
	result.PaymentFigures = &domain.PaymentFigures{
		PrincipalAmount:         Round2(in.PrincipalAmount),
		PrincipalFormatted:      FormatCurrency(Round2(in.PrincipalAmount), meta.Currency),
		MonthlyPaymentFormatted: FormatCurrency(payment, meta.Currency),
		TotalPayments:           totalPayments,
		TotalPaymentsFormatted:  FormatCurrency(totalPayments, meta.Currency),
		TotalInterest:           totalInterest,
		TotalInterestFormatted:  FormatCurrency(totalInterest, meta.Currency),
	}

	if in.StressRateBps > 0 {
		stressRate := StressedRate(in.AnnualInterestRate, in.StressRateBps)
		stressPayment := MonthlyPayment(in.PrincipalAmount, stressRate, in.TermYears)
		result.StressTest = stressResult(domain.CalculationPayment, in.StressRateBps, stressRate, payment, stressPayment, stressPayment-payment, meta.Currency)
	}

	return result
}

func (e *QuoteEngine) envelope(meta domain.QuoteMeta, mode domain.CalculationType, rate float64, termYears int) domain.QuoteResult {
	issued := civil.DateOf(e.now())

	return domain.QuoteResult{
		CertificateID:       e.ids.NewID(),
		CalculationType:     mode,
		Applicant:           meta.Applicant,
		Currency:            meta.Currency,
		IssueDate:           issued,
		ExpiryDate:          issued.AddDays(meta.ValidityDays),
		ValidityDays:        meta.ValidityDays,
		AnnualInterestRate:  rate,
		InterestRatePercent: percent(rate),
		TermYears:           termYears,
	}
}

// stressResult packages a stressed recomputation. delta is measured against
// base; a zero base yields a zero percentage instead of a division fault.
func stressResult(mode domain.CalculationType, bps int, stressRate, base, stressed, delta float64, currency string) *domain.StressResult {
	var deltaPercent float64
	if base != 0 {
		deltaPercent = Round2(delta / base * 100)
	}

	return &domain.StressResult{
		Mode:                    mode,
		StressRateBps:           bps,
		StressAnnualRate:        stressRate,
		StressRatePercent:       percent(stressRate),
		StressedAmount:          stressed,
		StressedAmountFormatted: FormatCurrency(stressed, currency),
		DeltaAmount:             Round2(delta),
		DeltaPercent:            deltaPercent,
	}
}
