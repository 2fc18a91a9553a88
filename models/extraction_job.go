package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExtractionJobStatus represents the status of an extraction job
type ExtractionJobStatus string

const (
	JobStatusPending    ExtractionJobStatus = "pending"
	JobStatusInProgress ExtractionJobStatus = "in_progress"
	JobStatusCompleted  ExtractionJobStatus = "completed"
	JobStatusFailed     ExtractionJobStatus = "failed"
)

// ExtractionStep represents a step in the extraction pipeline
type ExtractionStep struct {
	Name        string `json:"name"`
	Status      string `json:"status"` // "pending", "in_progress", "completed", "failed"
	Description string `json:"description,omitempty"`
}

// ExtractionSteps represents a list of extraction steps
type ExtractionSteps []ExtractionStep

// Value implements driver.Valuer for JSONB
func (s ExtractionSteps) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB
func (s *ExtractionSteps) Scan(value interface{}) error {
	if value == nil {
		*s = make(ExtractionSteps, 0)
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
		*s = make(ExtractionSteps, 0)
		return nil
	}

	if len(bytes) == 0 {
		*s = make(ExtractionSteps, 0)
		return nil
	}

	return json.Unmarshal(bytes, s)
}

// ExtractionJob tracks one asynchronous extract-and-validate run for a
// contract. Clients poll it while the background goroutine works.
type ExtractionJob struct {
	ID           uuid.UUID           `json:"id"`
	ContractID   uuid.UUID           `json:"contract_id"`
	ExtractionID *uuid.UUID          `json:"extraction_id,omitempty"`
	Status       ExtractionJobStatus `json:"status"`
	CurrentStep  *string             `json:"current_step,omitempty"`
	Steps        ExtractionSteps     `json:"steps"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
}
