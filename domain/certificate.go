package domain

import "time"

// AnonymousOwner owns certificates issued to unauthenticated callers.
const AnonymousOwner = "anonymous"

// Certificate is the stored form of an issued quote.
type Certificate struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"owner_id"`
	CalculationType CalculationType `json:"calculation_type"`
	Quote           QuoteResult     `json:"quote"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CertificateSummary is the list view of a certificate.
type CertificateSummary struct {
	ID              string          `json:"id"`
	CalculationType CalculationType `json:"calculation_type"`
	ApplicantName   string          `json:"applicant_name"`
	PrimaryAmount   float64         `json:"primary_amount"`
	Currency        string          `json:"currency"`
	ExpiryDate      string          `json:"expiry_date"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (c Certificate) Summary() CertificateSummary {
	return CertificateSummary{
		ID:              c.ID,
		CalculationType: c.CalculationType,
		ApplicantName:   c.Quote.Applicant.Name,
		PrimaryAmount:   c.Quote.PrimaryAmount(),
		Currency:        c.Quote.Currency,
		ExpiryDate:      c.Quote.ExpiryDate.String(),
		CreatedAt:       c.CreatedAt,
	}
}
