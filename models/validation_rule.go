package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RuleCategory identifies which extracted field type a rule governs
type RuleCategory string

const (
	CategoryGapPremium      RuleCategory = "gap_premium"
	CategoryCancellationFee RuleCategory = "cancellation_fee"
	CategoryRefundMethod    RuleCategory = "refund_method"
)

// IsNumeric reports whether the category compares numeric values
// (as opposed to a categorical allow/deny list)
func (c RuleCategory) IsNumeric() bool {
	return c == CategoryGapPremium || c == CategoryCancellationFee
}

// RuleConfig is the semi-structured rule payload. Numeric categories use
// Min/Max/WarningThreshold; categorical ones use AllowedValues/ProhibitedValues.
// Strict controls whether a violation fails or only warns.
type RuleConfig struct {
	Min              *float64 `json:"min,omitempty"`
	Max              *float64 `json:"max,omitempty"`
	WarningThreshold *float64 `json:"warning_threshold,omitempty"`
	AllowedValues    []string `json:"allowed_values,omitempty"`
	ProhibitedValues []string `json:"prohibited_values,omitempty"`
	Strict           bool     `json:"strict"`
	Reason           string   `json:"reason,omitempty"`
}

// Value implements driver.Valuer for JSONB
func (r RuleConfig) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB
func (r *RuleConfig) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	// Handle different types that pgx might return for JSONB
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	if len(bytes) == 0 {
		return nil
	}

	return json.Unmarshal(bytes, r)
}

// ValidationRule is a versioned rule scoped to (jurisdiction, category).
// Rule configurations are never mutated in place: updating a rule expires the
// old row (expiration_date = new effective_date, is_active = false) and inserts
// a new one, so every historical version remains retrievable for audit.
type ValidationRule struct {
	ID             uuid.UUID    `json:"id"`
	JurisdictionID string       `json:"jurisdiction_id"`
	Category       RuleCategory `json:"category"`
	Config         RuleConfig   `json:"rule_config"`
	EffectiveDate  time.Time    `json:"effective_date"`
	ExpirationDate *time.Time   `json:"expiration_date,omitempty"`
	IsActive       bool         `json:"is_active"`
	CreatedAt      time.Time    `json:"created_at"`
}

// EffectiveAt reports whether the rule's version window contains the given date
func (v *ValidationRule) EffectiveAt(date time.Time) bool {
	if date.Before(v.EffectiveDate) {
		return false
	}
	if v.ExpirationDate != nil && !date.Before(*v.ExpirationDate) {
		return false
	}
	return true
}
