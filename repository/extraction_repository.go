package repository

import (
	"context"
	"time"

	"gapguard-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExtractionRepository handles database operations for extractions
type ExtractionRepository struct {
	db *pgxpool.Pool
}

// NewExtractionRepository creates a new extraction repository
func NewExtractionRepository(db *pgxpool.Pool) *ExtractionRepository {
	return &ExtractionRepository{db: db}
}

// Create creates a new extraction
func (r *ExtractionRepository) Create(ctx context.Context, e *models.Extraction) error {
	query := `
		INSERT INTO extractions (
			contract_id, status, fields, validation
		) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		e.ContractID,
		e.Status,
		e.Fields,
		e.Validation,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)

	return err
}

// GetByID retrieves an extraction by ID
func (r *ExtractionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Extraction, error) {
	e := &models.Extraction{}
	var validation models.ValidationOutcome
	var hasValidation bool

	query := `
		SELECT id, contract_id, status, fields, validation, validation IS NOT NULL,
			reviewed_by, created_at, updated_at, reviewed_at
		FROM extractions
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.ContractID,
		&e.Status,
		&e.Fields,
		&validation,
		&hasValidation,
		&e.ReviewedBy,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.ReviewedAt,
	)

	if err != nil {
		return nil, err
	}

	if hasValidation {
		e.Validation = &validation
	}
	if e.Fields == nil {
		e.Fields = make(models.ExtractedFields)
	}

	return e, nil
}

// ListByContractID retrieves all extractions for a contract, newest first
func (r *ExtractionRepository) ListByContractID(ctx context.Context, contractID uuid.UUID) ([]*models.Extraction, error) {
	query := `
		SELECT id, contract_id, status, fields, validation, validation IS NOT NULL,
			reviewed_by, created_at, updated_at, reviewed_at
		FROM extractions
		WHERE contract_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var extractions []*models.Extraction
	for rows.Next() {
		e := &models.Extraction{}
		var validation models.ValidationOutcome
		var hasValidation bool
		err := rows.Scan(
			&e.ID,
			&e.ContractID,
			&e.Status,
			&e.Fields,
			&validation,
			&hasValidation,
			&e.ReviewedBy,
			&e.CreatedAt,
			&e.UpdatedAt,
			&e.ReviewedAt,
		)
		if err != nil {
			return nil, err
		}
		if hasValidation {
			v := validation
			e.Validation = &v
		}
		extractions = append(extractions, e)
	}

	return extractions, rows.Err()
}

// UpdateValidation stores the validation verdict for an extraction
func (r *ExtractionRepository) UpdateValidation(ctx context.Context, id uuid.UUID, outcome models.ValidationOutcome) error {
	query := `
		UPDATE extractions SET
			validation = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, outcome)
	return err
}

// Review marks an extraction approved or rejected
func (r *ExtractionRepository) Review(ctx context.Context, id uuid.UUID, status models.ExtractionStatus, reviewedBy *uuid.UUID) error {
	now := time.Now()
	query := `
		UPDATE extractions SET
			status = $2,
			reviewed_by = $3,
			reviewed_at = $4,
			updated_at = $4
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status, reviewedBy, now)
	return err
}

// ApprovedFieldValues returns every numeric value recorded for the named field
// across approved extractions. This is the ground-truth population for
// statistical outlier detection; non-numeric values are excluded in SQL.
func (r *ExtractionRepository) ApprovedFieldValues(ctx context.Context, fieldName string) ([]float64, error) {
	query := `
		SELECT (fields -> $1 ->> 'value')::numeric
		FROM extractions
		WHERE status = 'approved'
			AND jsonb_typeof(fields -> $1 -> 'value') = 'number'`

	rows, err := r.db.Query(ctx, query, fieldName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	return values, rows.Err()
}
