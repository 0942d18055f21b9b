package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"prequal-service/domain"
)

const certificatesSchema = `
	CREATE TABLE IF NOT EXISTS certificates (
		id               TEXT PRIMARY KEY,
		owner_id         TEXT        NOT NULL,
		calculation_type TEXT        NOT NULL,
		quote            JSONB       NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS certificates_owner_created_idx
		ON certificates (owner_id, created_at DESC);
`

// CertificateRepositoryPostgres implements CertificateRepository on PostgreSQL.
// The quote is stored as a JSONB document.
type CertificateRepositoryPostgres struct {
	pool *pgxpool.Pool
}

func NewCertificateRepositoryPostgres(pool *pgxpool.Pool) *CertificateRepositoryPostgres {
	return &CertificateRepositoryPostgres{pool: pool}
}

// EnsureSchema creates the certificates table and its index when missing.
func (r *CertificateRepositoryPostgres) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, certificatesSchema); err != nil {
		return fmt.Errorf("ensure certificates schema: %w", err)
	}
	return nil
}

func (r *CertificateRepositoryPostgres) Save(ctx context.Context, cert domain.Certificate) error {
	quote, err := json.Marshal(cert.Quote)
	if err != nil {
		return fmt.Errorf("encode quote %s: %w", cert.ID, err)
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO certificates (id, owner_id, calculation_type, quote, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, cert.ID, cert.OwnerID, string(cert.CalculationType), quote, cert.CreatedAt)
	if err != nil {
		return fmt.Errorf("save certificate %s: %w", cert.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (r *CertificateRepositoryPostgres) FindByID(ctx context.Context, id string) (domain.Certificate, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, calculation_type, quote, created_at
		FROM certificates
		WHERE id = $1
	`, id)

	cert, err := scanCertificate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Certificate{}, ErrNotFound
	}
	if err != nil {
		return domain.Certificate{}, fmt.Errorf("find certificate %s: %w", id, err)
	}
	return cert, nil
}

func (r *CertificateRepositoryPostgres) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Certificate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, calculation_type, quote, created_at
		FROM certificates
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list certificates for %s: %w", ownerID, err)
	}
	defer rows.Close()

	out := []domain.Certificate{}
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		out = append(out, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificates: %w", err)
	}
	return out, nil
}

func scanCertificate(row pgx.Row) (domain.Certificate, error) {
	var (
		cert     domain.Certificate
		calcType string
		quote    []byte
	)
	if err := row.Scan(&cert.ID, &cert.OwnerID, &calcType, &quote, &cert.CreatedAt); err != nil {
		return domain.Certificate{}, err
	}
	cert.CalculationType = domain.CalculationType(calcType)
	if err := json.Unmarshal(quote, &cert.Quote); err != nil {
		return domain.Certificate{}, fmt.Errorf("decode quote %s: %w", cert.ID, err)
	}
	return cert, nil
}
