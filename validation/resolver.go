package validation

import (
	"context"
	"time"

	"gapguard-backend/models"

	"github.com/google/uuid"
)

// JurisdictionSource is the read interface the resolver needs over
// contract-jurisdiction mappings. Implemented by repository.JurisdictionRepository.
type JurisdictionSource interface {
	// ContractJurisdictions returns the mappings active for a contract at the
	// given date, primary first.
	ContractJurisdictions(ctx context.Context, contractID uuid.UUID, asOf time.Time) ([]*models.ContractJurisdiction, error)
}

// RuleSource is the read interface the resolver needs over versioned rules.
// Implemented by repository.ValidationRuleRepository.
type RuleSource interface {
	// ActiveRule returns the single rule effective for (jurisdiction,
	// category) at the given date, or nil when none is configured.
	ActiveRule(ctx context.Context, jurisdictionID string, category models.RuleCategory, asOf time.Time) (*models.ValidationRule, error)
}

// RuleResolver finds the validation rules applicable to a contract's fields
// as of an evaluation date. "No match" is an empty result, not an error; the
// caller decides the fallback policy.
type RuleResolver struct {
	jurisdictions JurisdictionSource
	rules         RuleSource
}

// NewRuleResolver creates a new rule resolver
func NewRuleResolver(jurisdictions JurisdictionSource, rules RuleSource) *RuleResolver {
	return &RuleResolver{
		jurisdictions: jurisdictions,
		rules:         rules,
	}
}

// ResolveJurisdictions returns the jurisdiction mappings active for a contract
// at asOf, ordered primary first. An empty slice means the contract has no
// jurisdiction mapping for that date.
func (r *RuleResolver) ResolveJurisdictions(ctx context.Context, contractID uuid.UUID, asOf time.Time) ([]*models.ContractJurisdiction, error) {
	mappings, err := r.jurisdictions.ContractJurisdictions(ctx, contractID, asOf)
	if err != nil {
		return nil, err
	}
	return mappings, nil
}

// ResolveRule returns the single rule active and effective for (jurisdiction,
// category) at asOf, or nil when none is configured.
func (r *RuleResolver) ResolveRule(ctx context.Context, jurisdictionID string, category models.RuleCategory, asOf time.Time) (*models.ValidationRule, error) {
	return r.rules.ActiveRule(ctx, jurisdictionID, category, asOf)
}

// Primary picks the authoritative jurisdiction out of a mapping list: the
// first mapping flagged primary, or the first mapping when none is flagged.
// Returns nil for an empty list.
func Primary(mappings []*models.ContractJurisdiction) *models.ContractJurisdiction {
	if len(mappings) == 0 {
		return nil
	}
	for _, m := range mappings {
		if m.IsPrimary {
			return m
		}
	}
	return mappings[0]
}
