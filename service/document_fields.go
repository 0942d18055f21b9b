package service

import (
	"fmt"
	"strconv"

	"prequal-service/domain"
)

// DocumentFields flattens a quote into the field map consumed by the
// certificate renderer. Absent optional values are omitted rather than empty.
func DocumentFields(q domain.QuoteResult) map[string]string {
	fields := map[string]string{
		"certificate_id":   q.CertificateID,
		"issue_date":       q.IssueDate.String(),
		"expiry_date":      q.ExpiryDate.String(),
		"validity_days":    strconv.Itoa(q.ValidityDays),
		"applicant_name":   q.Applicant.Name,
		"calculation_type": string(q.CalculationType),
		"interest_rate":    plainNumber(q.InterestRatePercent),
		"term_years":       strconv.Itoa(q.TermYears),
	}
	if q.Applicant.Email != "" {
		fields["applicant_email"] = q.Applicant.Email
	}

	if a := q.AffordabilityFigures; a != nil {
		fields["gross_income"] = a.GrossMonthlyIncomeFormatted
		fields["dsr_ratio"] = fmt.Sprintf("%.1f", a.DSRRatio*100)
		fields["monthly_obligations"] = a.MonthlyObligationsFormatted
		fields["affordable_payment"] = a.AffordablePaymentFormatted
		fields["max_loan"] = a.MaxLoanFormatted
	}
	if p := q.PaymentFigures; p != nil {
		fields["principal_amount"] = p.PrincipalFormatted
		fields["monthly_payment"] = p.MonthlyPaymentFormatted
		fields["total_payments"] = p.TotalPaymentsFormatted
		fields["total_interest"] = p.TotalInterestFormatted
	}

	if st := q.StressTest; st != nil {
		fields["stress_bps"] = strconv.Itoa(st.StressRateBps)
		fields["stress_summary"] = StressSummary(q)
	}

	return fields
}

// StressSummary describes the stress scenario in one line, or returns "" when
// the quote carries none.
func StressSummary(q domain.QuoteResult) string {
	st := q.StressTest
	if st == nil {
		return ""
	}

	if q.CalculationType == domain.CalculationAffordability {
		return fmt.Sprintf("At %s%%: Max Loan %s (Reduction: %s%%)",
			plainNumber(st.StressRatePercent), st.StressedAmountFormatted, plainNumber(st.DeltaPercent))
	}
	return fmt.Sprintf("At %s%%: Monthly Payment %s (Increase: %s%%)",
		plainNumber(st.StressRatePercent), st.StressedAmountFormatted, plainNumber(st.DeltaPercent))
}

func plainNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
