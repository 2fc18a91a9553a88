package models

import (
	"time"

	"github.com/google/uuid"
)

// FederalJurisdictionID is the fallback jurisdiction applied when a contract
// has no mappings or its primary jurisdiction has no rule configured.
const FederalJurisdictionID = "US-FEDERAL"

// Jurisdiction represents a regulatory scope (a US state or the federal default)
type Jurisdiction struct {
	ID        string    `json:"id"` // e.g. "US-CA", "US-FEDERAL"
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ContractJurisdiction maps a contract to a jurisdiction that applies to it.
// A contract may carry several mappings (multi-state contracts); at most one
// mapping active for a given date should be flagged primary.
type ContractJurisdiction struct {
	ID             uuid.UUID  `json:"id"`
	ContractID     uuid.UUID  `json:"contract_id"`
	JurisdictionID string     `json:"jurisdiction_id"`
	IsPrimary      bool       `json:"is_primary"`
	EffectiveDate  *time.Time `json:"effective_date,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ActiveAt reports whether the mapping's validity window contains the given date.
// A nil bound is open-ended on that side.
func (cj *ContractJurisdiction) ActiveAt(date time.Time) bool {
	if cj.EffectiveDate != nil && date.Before(*cj.EffectiveDate) {
		return false
	}
	if cj.ExpirationDate != nil && !date.Before(*cj.ExpirationDate) {
		return false
	}
	return true
}
