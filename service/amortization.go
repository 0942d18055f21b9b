package service

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds half away from zero to two decimal places, operating on the
// shortest decimal representation of value rather than its binary expansion.
func Round2(value float64) float64 {
	return decimal.NewFromFloat(value).Round(2).InexactFloat64()
}

// MonthlyPayment returns the fixed monthly instalment that amortizes
// principal over termYears at annualRate:
//
//	r = annualRate / 12, n = termYears * 12
//	payment = P * r(1+r)^n / ((1+r)^n - 1)
//
// A zero rate degrades to P / n.
func MonthlyPayment(principal, annualRate float64, termYears int) float64 {
	n := float64(termYears * MonthsPerYear)

	if annualRate == 0 {
		return Round2(principal / n)
	}

	r := annualRate / MonthsPerYear
	factor := math.Pow(1+r, n)

	return Round2(principal * (r * factor) / (factor - 1))
}

// MaxLoan is the present value of an ordinary annuity paying payment monthly
// for termYears at annualRate:
//
//	PV = PMT * (1 - (1+r)^-n) / r
//
// A zero rate degrades to PMT * n.
func MaxLoan(payment, annualRate float64, termYears int) float64 {
	n := float64(termYears * MonthsPerYear)

	if annualRate == 0 {
		return Round2(payment * n)
	}

	r := annualRate / MonthsPerYear

	return Round2(payment * (1 - math.Pow(1+r, -n)) / r)
}

// StressedRate adds stressBps basis points to annualRate. The sum is taken in
// decimal so that 0.12 plus 200 bps is 0.14 rather than 0.13999999999999999.
func StressedRate(annualRate float64, stressBps int) float64 {
	return decimal.NewFromFloat(annualRate).Add(decimal.New(int64(stressBps), -4)).InexactFloat64()
}
