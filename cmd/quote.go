package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"prequal-service/domain"
	"prequal-service/service"
)

var (
	applicantName  string
	applicantEmail string
	currency       string
	validityDays   int
	annualRate     float64
	termYears      int
	stressBps      int

	grossIncome float64
	dsrRatio    float64
	obligations float64

	principal float64
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Compute a quote without storing a certificate",
}

var quoteAffordabilityCmd = &cobra.Command{
	Use:   "affordability",
	Short: "Maximum loan for an income and debt service ratio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuote(cmd, domain.CalculationRequest{
			CalculationType: domain.CalculationAffordability,
			AffordabilityInput: &domain.AffordabilityRequest{
				GrossMonthlyIncome: grossIncome,
				DSRRatio:           dsrRatio,
				MonthlyObligations: obligations,
				AnnualInterestRate: annualRate,
				TermYears:          termYears,
				StressRateBps:      stressBps,
			},
		})
	},
}

var quotePaymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Monthly payment and lifetime cost of a loan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuote(cmd, domain.CalculationRequest{
			CalculationType: domain.CalculationPayment,
			PaymentInput: &domain.PaymentRequest{
				PrincipalAmount:    principal,
				AnnualInterestRate: annualRate,
				TermYears:          termYears,
				StressRateBps:      stressBps,
			},
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{quoteAffordabilityCmd, quotePaymentCmd} {
		c.Flags().StringVar(&applicantName, "name", "CLI Applicant", "applicant name")
		c.Flags().StringVar(&applicantEmail, "email", "", "applicant email")
		c.Flags().StringVar(&currency, "currency", "", "currency label (default from config)")
		c.Flags().IntVar(&validityDays, "validity-days", 0, "certificate validity in days (default from config)")
		c.Flags().Float64Var(&annualRate, "rate", 0, "annual interest rate as a fraction, e.g. 0.12")
		c.Flags().IntVar(&termYears, "term", 0, "loan term in years")
		c.Flags().IntVar(&stressBps, "stress-bps", 0, "stress test rate increase in basis points")
	}

	quoteAffordabilityCmd.Flags().Float64Var(&grossIncome, "income", 0, "gross monthly income")
	quoteAffordabilityCmd.Flags().Float64Var(&dsrRatio, "dsr", 0, "debt service ratio, e.g. 0.4")
	quoteAffordabilityCmd.Flags().Float64Var(&obligations, "obligations", 0, "existing monthly obligations")

	quotePaymentCmd.Flags().Float64Var(&principal, "principal", 0, "loan principal")

	quoteCmd.AddCommand(quoteAffordabilityCmd)
	quoteCmd.AddCommand(quotePaymentCmd)
}

func runQuote(cmd *cobra.Command, req domain.CalculationRequest) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	engine, err := newEngine(cfg.Certificates)
	if err != nil {
		return err
	}

	req.Applicant = domain.Applicant{Name: applicantName, Email: applicantEmail}
	req.Currency = currency
	req.ValidityDays = validityDays

	outcome := engine.Quote(req)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	switch outcome.Kind {
	case service.OutcomeSchemaViolation:
		if err := enc.Encode(map[string]any{"error": outcome.Kind.String(), "violations": outcome.Violation.Violations}); err != nil {
			return err
		}
	case service.OutcomeNegativeAffordability:
		if err := enc.Encode(map[string]any{"error": outcome.Kind.String(), "affordable_payment": outcome.Shortfall.AffordablePayment}); err != nil {
			return err
		}
	default:
		return enc.Encode(outcome.Result)
	}
	return fmt.Errorf("quote rejected: %w", outcome.Err())
}
