package service

const (
	MaxGrossMonthlyIncome = 1_000_000.0
	MaxPrincipalAmount    = 10_000_000.0
	MinDSRRatio           = 0.1
	MaxDSRRatio           = 0.8
	MinInterestRate       = 0.001 // exclusive
	MaxInterestRate       = 0.50
	MinTermYears          = 1
	MaxTermYears          = 50
	MaxStressRateBps      = 1000
	MaxApplicantNameLen   = 200

	MonthsPerYear = 12

	// Issuing retries with a fresh identifier when the store already holds one.
	MaxIssueAttempts = 3

	DefaultListLimit = 20
	MaxListLimit     = 100
)
