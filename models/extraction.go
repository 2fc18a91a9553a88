package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExtractionStatus represents the review status of an extraction
type ExtractionStatus string

const (
	ExtractionStatusPendingReview ExtractionStatus = "pending_review"
	ExtractionStatusApproved      ExtractionStatus = "approved"
	ExtractionStatusRejected      ExtractionStatus = "rejected"
)

// Extracted field names. These are the three financial fields pulled from
// every contract and the fixed field list the validation pipeline iterates.
const (
	FieldGapPremium      = "gap_insurance_premium"
	FieldRefundMethod    = "refund_calculation_method"
	FieldCancellationFee = "cancellation_fee"
)

// ExtractedFieldNames lists the fields in their canonical validation order
var ExtractedFieldNames = []string{
	FieldGapPremium,
	FieldRefundMethod,
	FieldCancellationFee,
}

// FieldExtraction is a single LLM-extracted field: the raw value (numeric or
// string, nil when the model found nothing), a 0-100 confidence score, and the
// source snippet the model attributed the value to.
type FieldExtraction struct {
	Value      interface{} `json:"value"`
	Confidence float64     `json:"confidence"`
	Source     string      `json:"source,omitempty"`
}

// ExtractedFields maps field name to its extraction
type ExtractedFields map[string]FieldExtraction

// Value implements driver.Valuer for JSONB
func (f ExtractedFields) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// Scan implements sql.Scanner for JSONB
func (f *ExtractedFields) Scan(value interface{}) error {
	if value == nil {
		*f = make(ExtractedFields)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*f = make(ExtractedFields)
		return nil
	}

	if len(bytes) == 0 {
		*f = make(ExtractedFields)
		return nil
	}

	return json.Unmarshal(bytes, f)
}

// ValidationOutcome is the stored verdict for an extraction: the aggregated
// status, every non-skipped per-field diagnostic, and the generated summary.
type ValidationOutcome struct {
	OverallStatus string                   `json:"overall_status"`
	FieldResults  []map[string]interface{} `json:"field_results"`
	Summary       string                   `json:"summary"`
}

// Value implements driver.Valuer for JSONB
func (v ValidationOutcome) Value() (driver.Value, error) {
	return json.Marshal(v)
}

// Scan implements sql.Scanner for JSONB
func (v *ValidationOutcome) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch val := value.(type) {
	case []byte:
		bytes = val
	case string:
		bytes = []byte(val)
	default:
		return nil
	}

	if len(bytes) == 0 {
		return nil
	}

	return json.Unmarshal(bytes, v)
}

// Extraction represents one LLM extraction pass over a contract document,
// together with its validation verdict and review status
type Extraction struct {
	ID         uuid.UUID          `json:"id"`
	ContractID uuid.UUID          `json:"contract_id"`
	Status     ExtractionStatus   `json:"status"`
	Fields     ExtractedFields    `json:"fields"`
	Validation *ValidationOutcome `json:"validation,omitempty"`
	ReviewedBy *uuid.UUID         `json:"reviewed_by,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	ReviewedAt *time.Time         `json:"reviewed_at,omitempty"`
}
