package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"prequal-service/domain"
	"prequal-service/repository"
)

// ErrCertificateNotFound is returned for unknown ids and for certificates
// owned by another principal.
var ErrCertificateNotFound = errors.New("certificate not found")

// Renderer produces a document from a flattened certificate field map.
type Renderer interface {
	Render(fields map[string]string) ([]byte, error)
}

// Recorder receives service-level measurements.
type Recorder interface {
	QuoteOutcome(mode domain.CalculationType, kind OutcomeKind)
	DocumentRendered(cacheHit bool)
}

type nopRecorder struct{}

func (nopRecorder) QuoteOutcome(domain.CalculationType, OutcomeKind) {}
func (nopRecorder) DocumentRendered(bool)                            {}

type CertificateOption func(*CertificateService)

// WithRecorder reports outcomes and renders to r.
func WithRecorder(r Recorder) CertificateOption {
	return func(s *CertificateService) { s.metrics = r }
}

// WithArchiveDir writes every freshly rendered document to dir as <id>.pdf.
func WithArchiveDir(dir string) CertificateOption {
	return func(s *CertificateService) { s.archiveDir = dir }
}

// WithClock overrides the clock used for certificate creation times.
func WithClock(now func() time.Time) CertificateOption {
	return func(s *CertificateService) { s.now = now }
}

// CertificateService issues, stores and renders pre-qualification certificates.
type CertificateService struct {
	engine     *QuoteEngine
	repo       repository.CertificateRepository
	cache      repository.CacheRepository
	renderer   Renderer
	metrics    Recorder
	archiveDir string
	now        func() time.Time
	logger     *zap.Logger
}

func NewCertificateService(
	engine *QuoteEngine,
	repo repository.CertificateRepository,
	cache repository.CacheRepository,
	renderer Renderer,
	logger *zap.Logger,
	opts ...CertificateOption,
) *CertificateService {
	s := &CertificateService{
		engine:   engine,
		repo:     repo,
		cache:    cache,
		renderer: renderer,
		metrics:  nopRecorder{},
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue quotes req and stores the result for owner. Rejections are returned
// in the Outcome with a nil error; the error is reserved for storage faults.
func (s *CertificateService) Issue(ctx context.Context, owner string, req domain.CalculationRequest) (Outcome, error) {
	var outcome Outcome

	for attempt := 1; attempt <= MaxIssueAttempts; attempt++ {
		outcome = s.engine.Quote(req)
		if outcome.Kind != OutcomeOK {
			s.metrics.QuoteOutcome(req.CalculationType, outcome.Kind)
			return outcome, nil
		}

		cert := domain.Certificate{
			ID:              outcome.Result.CertificateID,
			OwnerID:         owner,
			CalculationType: outcome.Result.CalculationType,
			Quote:           outcome.Result,
			CreatedAt:       s.now().UTC(),
		}

		err := s.repo.Save(ctx, cert)
		if err == nil {
			s.metrics.QuoteOutcome(req.CalculationType, outcome.Kind)
			s.logger.Info("certificate issued",
				zap.String("certificate_id", cert.ID),
				zap.String("owner", owner),
				zap.String("calculation_type", string(cert.CalculationType)),
			)
			return outcome, nil
		}
		if !errors.Is(err, repository.ErrAlreadyExists) {
			return outcome, fmt.Errorf("store certificate %s: %w", cert.ID, err)
		}
		s.logger.Warn("certificate id collision, retrying",
			zap.String("certificate_id", cert.ID), zap.Int("attempt", attempt))
	}

	return outcome, fmt.Errorf("store certificate: no free id after %d attempts", MaxIssueAttempts)
}

// Get returns the certificate id if it belongs to owner.
func (s *CertificateService) Get(ctx context.Context, owner, id string) (domain.Certificate, error) {
	cert, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Certificate{}, ErrCertificateNotFound
	}
	if err != nil {
		return domain.Certificate{}, fmt.Errorf("find certificate %s: %w", id, err)
	}
	if cert.OwnerID != owner {
		return domain.Certificate{}, ErrCertificateNotFound
	}
	return cert, nil
}

// List returns owner's certificates, newest first. limit is clamped to
// [1, MaxListLimit]; zero selects DefaultListLimit.
func (s *CertificateService) List(ctx context.Context, owner string, limit int) ([]domain.Certificate, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	certs, err := s.repo.ListByOwner(ctx, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}

// Document renders the certificate id as a PDF, serving repeated requests
// from the cache.
func (s *CertificateService) Document(ctx context.Context, owner, id string) ([]byte, error) {
	cert, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	key := documentCacheKey(cert.ID)
	if cached, ok := s.cache.Get(ctx, key); ok {
		s.metrics.DocumentRendered(true)
		return []byte(cached), nil
	}

	doc, err := s.renderer.Render(DocumentFields(cert.Quote))
	if err != nil {
		return nil, fmt.Errorf("render certificate %s: %w", cert.ID, err)
	}
	s.metrics.DocumentRendered(false)

	// Caching and archiving are best effort.
	if err := s.cache.Set(ctx, key, string(doc)); err != nil {
		s.logger.Warn("failed to cache certificate document", zap.String("certificate_id", cert.ID), zap.Error(err))
	}
	if s.archiveDir != "" {
		path := filepath.Join(s.archiveDir, cert.ID+".pdf")
		if err := os.WriteFile(path, doc, 0o644); err != nil {
			s.logger.Warn("failed to archive certificate document", zap.String("path", path), zap.Error(err))
		}
	}

	return doc, nil
}

func documentCacheKey(id string) string {
	return "certificate:document:" + id
}
