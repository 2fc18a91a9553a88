package models

import (
	"time"

	"github.com/google/uuid"
)

// ContractStatus represents the review lifecycle of a contract
type ContractStatus string

const (
	ContractStatusPending  ContractStatus = "pending"
	ContractStatusActive   ContractStatus = "active"
	ContractStatusArchived ContractStatus = "archived"
)

// Contract represents a GAP insurance contract under review
type Contract struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"`
	Status         ContractStatus `json:"status"`
	ContractNumber string         `json:"contract_number"`
	DealerName     string         `json:"dealer_name"`
	ProviderName   string         `json:"provider_name"`
	DocumentFileID *uuid.UUID     `json:"document_file_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
