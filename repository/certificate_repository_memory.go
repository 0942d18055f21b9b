package repository

import (
	"context"
	"sync"

	"prequal-service/domain"
)

// CertificateRepositoryMemory is an in-memory implementation of CertificateRepository.
type CertificateRepositoryMemory struct {
	mu    sync.RWMutex
	byID  map[string]domain.Certificate
	order []string
}

// NewCertificateRepositoryMemory creates a new in-memory certificate repository.
func NewCertificateRepositoryMemory() *CertificateRepositoryMemory {
	return &CertificateRepositoryMemory{
		byID: make(map[string]domain.Certificate),
	}
}

// Save stores the certificate in memory.
func (r *CertificateRepositoryMemory) Save(_ context.Context, cert domain.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[cert.ID]; exists {
		return ErrAlreadyExists
	}
	r.byID[cert.ID] = cert
	r.order = append(r.order, cert.ID)
	return nil
}

func (r *CertificateRepositoryMemory) FindByID(_ context.Context, id string) (domain.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cert, ok := r.byID[id]
	if !ok {
		return domain.Certificate{}, ErrNotFound
	}
	return cert, nil
}

// ListByOwner walks insertion order backwards. Certificates saved out of
// CreatedAt order are listed by insertion, which matches issue order for a
// single process.
func (r *CertificateRepositoryMemory) ListByOwner(_ context.Context, ownerID string, limit int) ([]domain.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Certificate{}
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		cert := r.byID[r.order[i]]
		if cert.OwnerID == ownerID {
			out = append(out, cert)
		}
	}
	return out, nil
}
