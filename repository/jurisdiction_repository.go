package repository

import (
	"context"
	"errors"
	"time"

	"gapguard-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JurisdictionRepository handles database operations for jurisdictions and
// contract-jurisdiction mappings
type JurisdictionRepository struct {
	db *pgxpool.Pool
}

// NewJurisdictionRepository creates a new jurisdiction repository
func NewJurisdictionRepository(db *pgxpool.Pool) *JurisdictionRepository {
	return &JurisdictionRepository{db: db}
}

// Create creates a new jurisdiction
func (r *JurisdictionRepository) Create(ctx context.Context, j *models.Jurisdiction) error {
	query := `
		INSERT INTO jurisdictions (id, name, is_active)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	return r.db.QueryRow(ctx, query, j.ID, j.Name, j.IsActive).Scan(&j.CreatedAt)
}

// GetByID retrieves a jurisdiction by its identifier (e.g. "US-CA")
func (r *JurisdictionRepository) GetByID(ctx context.Context, id string) (*models.Jurisdiction, error) {
	j := &models.Jurisdiction{}
	query := `
		SELECT id, name, is_active, created_at
		FROM jurisdictions
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(&j.ID, &j.Name, &j.IsActive, &j.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return j, nil
}

// ListActive retrieves all active jurisdictions
func (r *JurisdictionRepository) ListActive(ctx context.Context) ([]*models.Jurisdiction, error) {
	query := `
		SELECT id, name, is_active, created_at
		FROM jurisdictions
		WHERE is_active = true
		ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jurisdictions []*models.Jurisdiction
	for rows.Next() {
		j := &models.Jurisdiction{}
		if err := rows.Scan(&j.ID, &j.Name, &j.IsActive, &j.CreatedAt); err != nil {
			return nil, err
		}
		jurisdictions = append(jurisdictions, j)
	}

	return jurisdictions, rows.Err()
}

// CreateMapping maps a contract to a jurisdiction
func (r *JurisdictionRepository) CreateMapping(ctx context.Context, m *models.ContractJurisdiction) error {
	query := `
		INSERT INTO contract_jurisdictions (
			contract_id, jurisdiction_id, is_primary, effective_date, expiration_date
		) VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		m.ContractID,
		m.JurisdictionID,
		m.IsPrimary,
		m.EffectiveDate,
		m.ExpirationDate,
	).Scan(&m.ID, &m.CreatedAt)

	return err
}

// ContractJurisdictions retrieves the jurisdiction mappings active for a
// contract at the given date, primary first. A mapping with a null bound is
// open-ended on that side.
func (r *JurisdictionRepository) ContractJurisdictions(ctx context.Context, contractID uuid.UUID, asOf time.Time) ([]*models.ContractJurisdiction, error) {
	query := `
		SELECT id, contract_id, jurisdiction_id, is_primary, effective_date, expiration_date, created_at
		FROM contract_jurisdictions
		WHERE contract_id = $1
			AND (effective_date IS NULL OR effective_date <= $2)
			AND (expiration_date IS NULL OR expiration_date > $2)
		ORDER BY is_primary DESC, created_at`

	rows, err := r.db.Query(ctx, query, contractID, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []*models.ContractJurisdiction
	for rows.Next() {
		m := &models.ContractJurisdiction{}
		err := rows.Scan(
			&m.ID,
			&m.ContractID,
			&m.JurisdictionID,
			&m.IsPrimary,
			&m.EffectiveDate,
			&m.ExpirationDate,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}

	return mappings, rows.Err()
}

// DeleteMapping removes a contract-jurisdiction mapping
func (r *JurisdictionRepository) DeleteMapping(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM contract_jurisdictions WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
