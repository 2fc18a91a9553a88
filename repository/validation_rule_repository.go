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

// ValidationRuleRepository handles database operations for versioned
// validation rules. Rule rows are append-only: there is deliberately no
// update-in-place method, superseding a rule expires the old version and
// inserts the new one so both remain retrievable for audit.
type ValidationRuleRepository struct {
	db *pgxpool.Pool
}

// NewValidationRuleRepository creates a new validation rule repository
func NewValidationRuleRepository(db *pgxpool.Pool) *ValidationRuleRepository {
	return &ValidationRuleRepository{db: db}
}

// Create inserts a new rule version
func (r *ValidationRuleRepository) Create(ctx context.Context, rule *models.ValidationRule) error {
	query := `
		INSERT INTO validation_rules (
			jurisdiction_id, category, rule_config, effective_date, expiration_date, is_active
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		rule.JurisdictionID,
		rule.Category,
		rule.Config,
		rule.EffectiveDate,
		rule.ExpirationDate,
		rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt)

	return err
}

// GetByID retrieves a rule version by ID, active or expired
func (r *ValidationRuleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ValidationRule, error) {
	rule := &models.ValidationRule{}
	query := `
		SELECT id, jurisdiction_id, category, rule_config, effective_date, expiration_date, is_active, created_at
		FROM validation_rules
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&rule.ID,
		&rule.JurisdictionID,
		&rule.Category,
		&rule.Config,
		&rule.EffectiveDate,
		&rule.ExpirationDate,
		&rule.IsActive,
		&rule.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return rule, nil
}

// ActiveRule retrieves the single rule for (jurisdiction, category) whose
// version window contains asOf. Ties break to the most recent effective_date.
// Returns nil without error when no version matches.
func (r *ValidationRuleRepository) ActiveRule(ctx context.Context, jurisdictionID string, category models.RuleCategory, asOf time.Time) (*models.ValidationRule, error) {
	rule := &models.ValidationRule{}
	query := `
		SELECT id, jurisdiction_id, category, rule_config, effective_date, expiration_date, is_active, created_at
		FROM validation_rules
		WHERE jurisdiction_id = $1
			AND category = $2
			AND is_active = true
			AND effective_date <= $3
			AND (expiration_date IS NULL OR expiration_date > $3)
		ORDER BY effective_date DESC
		LIMIT 1`

	err := r.db.QueryRow(ctx, query, jurisdictionID, category, asOf).Scan(
		&rule.ID,
		&rule.JurisdictionID,
		&rule.Category,
		&rule.Config,
		&rule.EffectiveDate,
		&rule.ExpirationDate,
		&rule.IsActive,
		&rule.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return rule, nil
}

// Supersede expires the currently active version for the new rule's
// (jurisdiction, category) and inserts the new version, in one transaction.
// The old version's expiration_date becomes the new version's effective_date
// and its row is otherwise untouched.
func (r *ValidationRuleRepository) Supersede(ctx context.Context, rule *models.ValidationRule) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	expireQuery := `
		UPDATE validation_rules SET
			expiration_date = $3,
			is_active = false
		WHERE jurisdiction_id = $1
			AND category = $2
			AND is_active = true`

	_, err = tx.Exec(ctx, expireQuery, rule.JurisdictionID, rule.Category, rule.EffectiveDate)
	if err != nil {
		return err
	}

	insertQuery := `
		INSERT INTO validation_rules (
			jurisdiction_id, category, rule_config, effective_date, expiration_date, is_active
		) VALUES ($1, $2, $3, $4, $5, true)
		RETURNING id, created_at`

	err = tx.QueryRow(
		ctx, insertQuery,
		rule.JurisdictionID,
		rule.Category,
		rule.Config,
		rule.EffectiveDate,
		rule.ExpirationDate,
	).Scan(&rule.ID, &rule.CreatedAt)
	if err != nil {
		return err
	}
	rule.IsActive = true

	return tx.Commit(ctx)
}

// ListByJurisdiction retrieves all rule versions for a jurisdiction, newest
// first, including expired versions (audit listing)
func (r *ValidationRuleRepository) ListByJurisdiction(ctx context.Context, jurisdictionID string, category *models.RuleCategory) ([]*models.ValidationRule, error) {
	query := `
		SELECT id, jurisdiction_id, category, rule_config, effective_date, expiration_date, is_active, created_at
		FROM validation_rules
		WHERE jurisdiction_id = $1`

	args := []interface{}{jurisdictionID}
	if category != nil {
		query += " AND category = $2"
		args = append(args, *category)
	}
	query += " ORDER BY effective_date DESC, created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*models.ValidationRule
	for rows.Next() {
		rule := &models.ValidationRule{}
		err := rows.Scan(
			&rule.ID,
			&rule.JurisdictionID,
			&rule.Category,
			&rule.Config,
			&rule.EffectiveDate,
			&rule.ExpirationDate,
			&rule.IsActive,
			&rule.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}
