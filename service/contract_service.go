package service

import (
	"context"
	"errors"
	"time"

	"gapguard-backend/models"
	"gapguard-backend/repository"

	"github.com/google/uuid"
)

// ContractService handles business logic for contracts and their
// jurisdiction mappings
type ContractService struct {
	contractRepo     *repository.ContractRepository
	jurisdictionRepo *repository.JurisdictionRepository
}

// ContractServiceOption is a functional option for ContractService
type ContractServiceOption func(*ContractService)

// WithContractRepository sets the contract repository
func WithContractRepository(repo *repository.ContractRepository) ContractServiceOption {
	return func(s *ContractService) {
		s.contractRepo = repo
	}
}

// WithJurisdictionRepository sets the jurisdiction repository
func WithJurisdictionRepository(repo *repository.JurisdictionRepository) ContractServiceOption {
	return func(s *ContractService) {
		s.jurisdictionRepo = repo
	}
}

// NewContractService creates a new contract service
func NewContractService(opts ...ContractServiceOption) *ContractService {
	s := &ContractService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var ErrUnknownJurisdiction = errors.New("jurisdiction not found")

// CreateContractRequest represents a request to create a contract
type CreateContractRequest struct {
	UserID         uuid.UUID
	ContractNumber string
	DealerName     string
	ProviderName   string
	Status         models.ContractStatus
}

// CreateContractResult represents the result of creating a contract
type CreateContractResult struct {
	Contract *models.Contract
}

// CreateContract creates a new contract with default values
func (s *ContractService) CreateContract(ctx context.Context, req CreateContractRequest) (*CreateContractResult, error) {
	if s.contractRepo == nil {
		return nil, errors.New("contract repository not set")
	}

	contract := &models.Contract{
		UserID:         req.UserID,
		Status:         req.Status,
		ContractNumber: req.ContractNumber,
		DealerName:     req.DealerName,
		ProviderName:   req.ProviderName,
	}

	if contract.Status == "" {
		contract.Status = models.ContractStatusPending
	}

	if err := s.contractRepo.Create(ctx, contract); err != nil {
		return nil, err
	}

	return &CreateContractResult{Contract: contract}, nil
}

// GetContractRequest represents a request to get a contract
type GetContractRequest struct {
	ID uuid.UUID
}

// GetContractResult represents the result of getting a contract
type GetContractResult struct {
	Contract *models.Contract
}

// GetContract retrieves a contract by ID
func (s *ContractService) GetContract(ctx context.Context, req GetContractRequest) (*GetContractResult, error) {
	if s.contractRepo == nil {
		return nil, errors.New("contract repository not set")
	}

	contract, err := s.contractRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return &GetContractResult{Contract: contract}, nil
}

// UpdateContractRequest represents a request to update a contract
type UpdateContractRequest struct {
	Contract *models.Contract
}

// UpdateContractResult represents the result of updating a contract
type UpdateContractResult struct {
	Contract *models.Contract
}

// UpdateContract updates a contract
func (s *ContractService) UpdateContract(ctx context.Context, req UpdateContractRequest) (*UpdateContractResult, error) {
	if s.contractRepo == nil {
		return nil, errors.New("contract repository not set")
	}

	if err := s.contractRepo.Update(ctx, req.Contract); err != nil {
		return nil, err
	}

	return &UpdateContractResult{Contract: req.Contract}, nil
}

// ListContractsRequest represents a request to list contracts
type ListContractsRequest struct {
	UserID uuid.UUID
	Status *models.ContractStatus
	Limit  int
	Offset int
}

// ListContractsResult represents the result of listing contracts
type ListContractsResult struct {
	Contracts []*models.Contract
}

// ListContracts lists contracts for a user
func (s *ContractService) ListContracts(ctx context.Context, req ListContractsRequest) (*ListContractsResult, error) {
	if s.contractRepo == nil {
		return nil, errors.New("contract repository not set")
	}

	contracts, err := s.contractRepo.ListByUserID(ctx, req.UserID, req.Status, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}

	return &ListContractsResult{Contracts: contracts}, nil
}

// AssignJurisdictionRequest represents a request to map a contract to a
// jurisdiction
type AssignJurisdictionRequest struct {
	ContractID     uuid.UUID
	JurisdictionID string
	IsPrimary      bool
	EffectiveDate  *time.Time
	ExpirationDate *time.Time
}

// AssignJurisdictionResult represents the result of assigning a jurisdiction
type AssignJurisdictionResult struct {
	Mapping *models.ContractJurisdiction
}

// AssignJurisdiction maps a contract to a jurisdiction. The jurisdiction must
// already exist in the registry.
func (s *ContractService) AssignJurisdiction(ctx context.Context, req AssignJurisdictionRequest) (*AssignJurisdictionResult, error) {
	if s.contractRepo == nil {
		return nil, errors.New("contract repository not set")
	}
	if s.jurisdictionRepo == nil {
		return nil, errors.New("jurisdiction repository not set")
	}

	if _, err := s.contractRepo.GetByID(ctx, req.ContractID); err != nil {
		return nil, ErrContractNotFound
	}

	jurisdiction, err := s.jurisdictionRepo.GetByID(ctx, req.JurisdictionID)
	if err != nil {
		return nil, err
	}
	if jurisdiction == nil {
		return nil, ErrUnknownJurisdiction
	}

	mapping := &models.ContractJurisdiction{
		ID:             uuid.New(),
		ContractID:     req.ContractID,
		JurisdictionID: req.JurisdictionID,
		IsPrimary:      req.IsPrimary,
		EffectiveDate:  req.EffectiveDate,
		ExpirationDate: req.ExpirationDate,
	}

	if err := s.jurisdictionRepo.CreateMapping(ctx, mapping); err != nil {
		return nil, err
	}

	return &AssignJurisdictionResult{Mapping: mapping}, nil
}

// ContractJurisdictionsRequest represents a request to list a contract's
// jurisdiction mappings
type ContractJurisdictionsRequest struct {
	ContractID uuid.UUID
	AsOf       time.Time
}

// ContractJurisdictionsResult represents the result of listing mappings
type ContractJurisdictionsResult struct {
	Mappings []*models.ContractJurisdiction
}

// ContractJurisdictions lists the jurisdiction mappings valid for a contract
// at a given date
func (s *ContractService) ContractJurisdictions(ctx context.Context, req ContractJurisdictionsRequest) (*ContractJurisdictionsResult, error) {
	if s.jurisdictionRepo == nil {
		return nil, errors.New("jurisdiction repository not set")
	}

	mappings, err := s.jurisdictionRepo.ContractJurisdictions(ctx, req.ContractID, req.AsOf)
	if err != nil {
		return nil, err
	}

	return &ContractJurisdictionsResult{Mappings: mappings}, nil
}
