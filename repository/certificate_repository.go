package repository

import (
	"context"
	"errors"

	"prequal-service/domain"
)

var (
	ErrNotFound      = errors.New("certificate not found")
	ErrAlreadyExists = errors.New("certificate already exists")
)

// CertificateRepository persists issued certificates. Certificates are
// written once and never updated.
type CertificateRepository interface {
	Save(ctx context.Context, cert domain.Certificate) error
	FindByID(ctx context.Context, id string) (domain.Certificate, error)
	// ListByOwner returns at most limit certificates, newest first.
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Certificate, error)
}
