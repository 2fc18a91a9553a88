package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"gapguard-backend/models"
	"gapguard-backend/repository"
	"gapguard-backend/storage"
	"gapguard-backend/validation"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FieldValidator runs the validation pipeline over one extraction
type FieldValidator interface {
	Validate(
		ctx context.Context,
		contractID uuid.UUID,
		extractionID uuid.UUID,
		fields models.ExtractedFields,
		documentText string,
	) (*validation.Verdict, error)
}

// ExtractionService handles LLM field extraction and validation
type ExtractionService struct {
	contractRepo   *repository.ContractRepository
	extractionRepo *repository.ExtractionRepository
	jobRepo        *repository.ExtractionJobRepository
	fileRepo       *repository.FileRepository
	fileStorage    storage.DocumentStore
	validator      FieldValidator
	db             *pgxpool.Pool
	geminiClient   *genai.Client
}

// ExtractionServiceOption is a functional option for ExtractionService
type ExtractionServiceOption func(*ExtractionService)

// ExtractionWithContractRepository sets the contract repository
func ExtractionWithContractRepository(repo *repository.ContractRepository) ExtractionServiceOption {
	return func(s *ExtractionService) {
		s.contractRepo = repo
	}
}

// ExtractionWithExtractionRepository sets the extraction repository
func ExtractionWithExtractionRepository(repo *repository.ExtractionRepository) ExtractionServiceOption {
	return func(s *ExtractionService) {
		s.extractionRepo = repo
	}
}

// ExtractionWithJobRepository sets the extraction job repository
func ExtractionWithJobRepository(repo *repository.ExtractionJobRepository) ExtractionServiceOption {
	return func(s *ExtractionService) {
		s.jobRepo = repo
	}
}

// ExtractionWithFileRepository sets the file repository
func ExtractionWithFileRepository(repo *repository.FileRepository) ExtractionServiceOption {
	return func(s *ExtractionService) {
		s.fileRepo = repo
	}
}

// ExtractionWithStorage sets the document storage backend
func ExtractionWithStorage(fs storage.DocumentStore) ExtractionServiceOption {
	return func(s *ExtractionService) {
		s.fileStorage = fs
	}
}

// ExtractionWithValidator sets the validation pipeline
func ExtractionWithValidator(v FieldValidator) ExtractionServiceOption {
	return func(s *ExtractionService) {
		s.validator = v
	}
}

// ExtractionWithDatabase sets the database pool
func ExtractionWithDatabase(db *pgxpool.Pool) ExtractionServiceOption {
	return func(s *ExtractionService) {
		s.db = db
	}
}

// ExtractionWithGeminiClient sets the Gemini client
func ExtractionWithGeminiClient(client *genai.Client) ExtractionServiceOption {
	return func(s *ExtractionService) {
		s.geminiClient = client
	}
}

// NewExtractionService creates a new extraction service
func NewExtractionService(opts ...ExtractionServiceOption) *ExtractionService {
	s := &ExtractionService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartExtractionRequest represents a request to extract fields from a contract
type StartExtractionRequest struct {
	ContractID uuid.UUID
}

// StartExtractionResult represents the result of creating an extraction job
type StartExtractionResult struct {
	JobID uuid.UUID
}

// GetJobStatusRequest represents a request to get job status
type GetJobStatusRequest struct {
	JobID uuid.UUID
}

// GetJobStatusResult represents the result of getting job status
type GetJobStatusResult struct {
	Job *models.ExtractionJob
}

var (
	ErrContractNotFound   = errors.New("contract not found")
	ErrMissingDocument    = errors.New("contract has no document to extract from")
	ErrJobCreationFailed  = errors.New("failed to create extraction job")
	ErrExtractionFailed   = errors.New("failed to extract fields")
	ErrValidationFailed   = errors.New("failed to validate extraction")
	ErrJobNotFound        = errors.New("extraction job not found")
	ErrExtractionNotFound = errors.New("extraction not found")
	ErrAlreadyReviewed    = errors.New("extraction has already been reviewed")
)

const (
	generationAPI  = "https://generativelanguage.googleapis.com/v1beta/models/gemini-3-pro-preview:generateContent"
	maxRetries     = 3
	initialBackoff = time.Second

	// maxDocumentChars caps the document text sent to the model to stay
	// inside its context window
	maxDocumentChars = 30000
)

var extractionSteps = []string{
	"Reading Document",
	"Extracting Fields",
	"Validating Fields",
	"Storing Results",
}

// StartExtraction creates an extraction job and returns immediately
// This method must complete in <100ms to avoid HTTP timeouts
func (s *ExtractionService) StartExtraction(
	ctx context.Context,
	req StartExtractionRequest,
) (*StartExtractionResult, error) {
	if s.contractRepo == nil {
		return nil, errors.New("contract repository not set")
	}
	if s.jobRepo == nil {
		return nil, errors.New("extraction job repository not set")
	}

	contract, err := s.contractRepo.GetByID(ctx, req.ContractID)
	if err != nil {
		return nil, ErrContractNotFound
	}
	if contract.DocumentFileID == nil {
		return nil, ErrMissingDocument
	}

	job := &models.ExtractionJob{
		ID:         uuid.New(),
		ContractID: req.ContractID,
		Status:     models.JobStatusPending,
		Steps:      s.initializeSteps(),
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, ErrJobCreationFailed
	}

	return &StartExtractionResult{
		JobID: job.ID,
	}, nil
}

// GetJobStatus retrieves the status of an extraction job
func (s *ExtractionService) GetJobStatus(
	ctx context.Context,
	req GetJobStatusRequest,
) (*GetJobStatusResult, error) {
	if s.jobRepo == nil {
		return nil, errors.New("extraction job repository not set")
	}

	job, err := s.jobRepo.GetByID(ctx, req.JobID)
	if err != nil {
		return nil, ErrJobNotFound
	}

	return &GetJobStatusResult{
		Job: job,
	}, nil
}

// initializeSteps creates the initial pipeline steps for a new job
func (s *ExtractionService) initializeSteps() models.ExtractionSteps {
	steps := make(models.ExtractionSteps, 0, len(extractionSteps))
	for _, name := range extractionSteps {
		steps = append(steps, models.ExtractionStep{
			Name:   name,
			Status: "pending",
		})
	}
	return steps
}

// ProcessExtraction performs the actual extraction work in the background
// This method runs in a goroutine and can take 30-60 seconds
func (s *ExtractionService) ProcessExtraction(
	ctx context.Context,
	jobID uuid.UUID,
) error {
	if s.jobRepo == nil {
		return errors.New("extraction job repository not set")
	}
	if s.contractRepo == nil {
		return errors.New("contract repository not set")
	}
	if s.extractionRepo == nil {
		return errors.New("extraction repository not set")
	}
	if s.validator == nil {
		return errors.New("validator not set")
	}

	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load extraction job: %w", err)
	}

	contract, err := s.contractRepo.GetByID(ctx, job.ContractID)
	if err != nil {
		s.markJobFailed(ctx, jobID, "failed to load contract: "+err.Error())
		return err
	}

	if err := s.jobRepo.UpdateStatus(ctx, jobID, models.JobStatusInProgress); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	// 1. Read the contract document
	if err := s.updateStepStatus(ctx, jobID, "Reading Document", "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	documentText, err := s.readDocument(ctx, contract)
	if err != nil {
		s.markJobFailed(ctx, jobID, "failed to read document: "+err.Error())
		return err
	}

	if err := s.updateStepStatus(ctx, jobID, "Reading Document", "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	// 2. Extract the financial fields
	if err := s.updateStepStatus(ctx, jobID, "Extracting Fields", "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	fields, err := s.extractFields(ctx, documentText)
	if err != nil {
		s.markJobFailed(ctx, jobID, fmt.Sprintf("failed to extract fields: %v", err))
		return fmt.Errorf("failed to extract fields: %w", err)
	}

	if err := s.updateStepStatus(ctx, jobID, "Extracting Fields", "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	// 3. Validate the extracted fields
	if err := s.updateStepStatus(ctx, jobID, "Validating Fields", "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	extractionID := uuid.New()
	verdict, err := s.validator.Validate(ctx, contract.ID, extractionID, fields, documentText)
	if err != nil {
		s.markJobFailed(ctx, jobID, fmt.Sprintf("failed to validate fields: %v", err))
		return fmt.Errorf("failed to validate fields: %w", err)
	}

	if err := s.updateStepStatus(ctx, jobID, "Validating Fields", "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	// 4. Store the extraction with its verdict
	if err := s.updateStepStatus(ctx, jobID, "Storing Results", "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	outcome := verdict.Outcome()
	extraction := &models.Extraction{
		ID:         extractionID,
		ContractID: contract.ID,
		Status:     models.ExtractionStatusPendingReview,
		Fields:     fields,
		Validation: &outcome,
	}

	if err := s.extractionRepo.Create(ctx, extraction); err != nil {
		s.markJobFailed(ctx, jobID, "failed to store extraction: "+err.Error())
		return err
	}

	if err := s.updateStepStatus(ctx, jobID, "Storing Results", "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	if err := s.jobRepo.Complete(ctx, jobID, extraction.ID); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	return nil
}

// GetExtraction retrieves a stored extraction by ID
func (s *ExtractionService) GetExtraction(ctx context.Context, extractionID uuid.UUID) (*models.Extraction, error) {
	if s.extractionRepo == nil {
		return nil, errors.New("extraction repository not set")
	}

	extraction, err := s.extractionRepo.GetByID(ctx, extractionID)
	if err != nil || extraction == nil {
		return nil, ErrExtractionNotFound
	}
	return extraction, nil
}

// ListExtractions lists all extraction passes over a contract, newest first
func (s *ExtractionService) ListExtractions(ctx context.Context, contractID uuid.UUID) ([]*models.Extraction, error) {
	if s.extractionRepo == nil {
		return nil, errors.New("extraction repository not set")
	}

	return s.extractionRepo.ListByContractID(ctx, contractID)
}

// RevalidateExtraction re-runs the validation pipeline over a stored
// extraction, replacing its verdict. Used after rules change.
func (s *ExtractionService) RevalidateExtraction(
	ctx context.Context,
	extractionID uuid.UUID,
) (*models.Extraction, error) {
	if s.extractionRepo == nil {
		return nil, errors.New("extraction repository not set")
	}
	if s.validator == nil {
		return nil, errors.New("validator not set")
	}

	extraction, err := s.extractionRepo.GetByID(ctx, extractionID)
	if err != nil || extraction == nil {
		return nil, ErrExtractionNotFound
	}

	verdict, err := s.validator.Validate(ctx, extraction.ContractID, extraction.ID, extraction.Fields, "")
	if err != nil {
		return nil, ErrValidationFailed
	}

	outcome := verdict.Outcome()
	if err := s.extractionRepo.UpdateValidation(ctx, extraction.ID, outcome); err != nil {
		return nil, fmt.Errorf("failed to store validation: %w", err)
	}

	extraction.Validation = &outcome
	return extraction, nil
}

// ReviewExtraction records a human review decision on an extraction
func (s *ExtractionService) ReviewExtraction(
	ctx context.Context,
	extractionID uuid.UUID,
	approved bool,
	reviewedBy *uuid.UUID,
) (*models.Extraction, error) {
	if s.extractionRepo == nil {
		return nil, errors.New("extraction repository not set")
	}

	extraction, err := s.extractionRepo.GetByID(ctx, extractionID)
	if err != nil || extraction == nil {
		return nil, ErrExtractionNotFound
	}
	if extraction.Status != models.ExtractionStatusPendingReview {
		return nil, ErrAlreadyReviewed
	}

	status := models.ExtractionStatusRejected
	if approved {
		status = models.ExtractionStatusApproved
	}

	if err := s.extractionRepo.Review(ctx, extractionID, status, reviewedBy); err != nil {
		return nil, fmt.Errorf("failed to record review: %w", err)
	}

	return s.extractionRepo.GetByID(ctx, extractionID)
}

// readDocument fetches the contract's document from storage and returns its
// text, truncated to the model context budget
func (s *ExtractionService) readDocument(ctx context.Context, contract *models.Contract) (string, error) {
	if s.fileRepo == nil || s.fileStorage == nil {
		return "", errors.New("file repository or storage not set")
	}
	if contract.DocumentFileID == nil {
		return "", ErrMissingDocument
	}

	file, err := s.fileRepo.GetByID(ctx, *contract.DocumentFileID)
	if err != nil {
		return "", fmt.Errorf("failed to load file record: %w", err)
	}

	reader, err := s.fileStorage.Download(ctx, file.StoragePath)
	if err != nil {
		return "", fmt.Errorf("failed to download document: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, maxDocumentChars+1))
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}

	text := string(data)
	if len(text) > maxDocumentChars {
		log.Printf("Warning: Document too long (%d+ chars), truncating to %d chars", len(text), maxDocumentChars)
		text = text[:maxDocumentChars]
	}

	return text, nil
}

// updateStepStatus updates the status of a specific step in the extraction job
func (s *ExtractionService) updateStepStatus(ctx context.Context, jobID uuid.UUID, stepName, status string) error {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	steps := job.Steps
	var currentStep string
	if job.CurrentStep != nil {
		currentStep = *job.CurrentStep
	}

	for i := range steps {
		if steps[i].Name == stepName {
			steps[i].Status = status
			if status == "in_progress" {
				currentStep = stepName
			}
			break
		}
	}

	return s.jobRepo.UpdateProgress(ctx, jobID, currentStep, steps)
}

// markJobFailed marks a job as failed with an error message
func (s *ExtractionService) markJobFailed(ctx context.Context, jobID uuid.UUID, errorMessage string) {
	if err := s.jobRepo.Fail(ctx, jobID, errorMessage); err != nil {
		log.Printf("Warning: failed to mark job %s as failed: %v", jobID, err)
	}
}

// extractionResponse mirrors the JSON the model is asked to return
type extractionResponse struct {
	GapInsurancePremium     *extractedField `json:"gap_insurance_premium"`
	RefundCalculationMethod *extractedField `json:"refund_calculation_method"`
	CancellationFee         *extractedField `json:"cancellation_fee"`
}

type extractedField struct {
	Value      interface{} `json:"value"`
	Confidence float64     `json:"confidence"`
	Source     string      `json:"source"`
}

// extractFields asks Gemini to pull the three financial fields out of the
// contract text and parses the structured response
func (s *ExtractionService) extractFields(ctx context.Context, documentText string) (models.ExtractedFields, error) {
	if s.geminiClient == nil {
		return nil, errors.New("gemini client not set")
	}

	prompt := fmt.Sprintf(`You are an expert insurance contract analyst extracting financial terms from a GAP (Guaranteed Asset Protection) insurance contract.

CONTRACT TEXT:
%s

TASK:
Extract the following three fields from the contract text above:

1. gap_insurance_premium: The total premium charged for the GAP coverage, in dollars (numeric)
2. refund_calculation_method: The method used to calculate cancellation refunds (e.g., "pro-rata", "rule of 78s", "actuarial", "flat")
3. cancellation_fee: The fee charged for early cancellation, in dollars (numeric)

OUTPUT REQUIREMENTS:
- Respond with ONLY a JSON object, no prose and no markdown fences
- Each field is an object with three keys:
  - "value": the extracted value (number for dollar amounts, string for the refund method, null if not found in the text)
  - "confidence": your confidence in the extraction as a number from 0 to 100
  - "source": the exact sentence or phrase from the contract the value came from ("" if not found)
- Use the EXACT numbers from the contract. Do NOT estimate, round, or convert.
- If a field is genuinely absent from the text, set its value to null and confidence to 0. Never guess.

Example response:
{"gap_insurance_premium": {"value": 595.00, "confidence": 95, "source": "GAP Premium: $595.00"}, "refund_calculation_method": {"value": "pro-rata", "confidence": 90, "source": "Refunds are calculated on a pro-rata basis."}, "cancellation_fee": {"value": 25.00, "confidence": 85, "source": "A $25 processing fee applies to cancellations."}}`,
		documentText)

	var content string
	var err error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		content, err = s.callGenerationAPI(ctx, prompt, 0.1)
		if err != nil {
			if attempt == maxRetries-1 {
				return nil, fmt.Errorf("failed to extract fields after %d attempts: %w", maxRetries, err)
			}
			continue
		}

		if content != "" {
			break
		}

		if attempt == maxRetries-1 {
			return nil, ErrExtractionFailed
		}
	}

	if content == "" {
		return nil, ErrExtractionFailed
	}

	return parseExtractionResponse(content)
}

// parseExtractionResponse decodes the model output into the field map,
// tolerating markdown code fences the model sometimes adds anyway
func parseExtractionResponse(content string) (models.ExtractedFields, error) {
	cleaned := stripJSONFences(content)

	var resp extractionResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	fields := make(models.ExtractedFields, 3)
	assign := func(name string, f *extractedField) {
		if f == nil {
			fields[name] = models.FieldExtraction{}
			return
		}
		fields[name] = models.FieldExtraction{
			Value:      f.Value,
			Confidence: f.Confidence,
			Source:     f.Source,
		}
	}
	assign(models.FieldGapPremium, resp.GapInsurancePremium)
	assign(models.FieldRefundMethod, resp.RefundCalculationMethod)
	assign(models.FieldCancellationFee, resp.CancellationFee)

	return fields, nil
}

// stripJSONFences removes a surrounding markdown code fence if present
func stripJSONFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// callGenerationAPI calls the Gemini generation API directly via HTTP
func (s *ExtractionService) callGenerationAPI(ctx context.Context, prompt string, temperature float64) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY not set")
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature": temperature,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", generationAPI, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Printf("Gemini API error: Status %d, Body: %s", resp.StatusCode, string(bodyBytes))
		return "", fmt.Errorf("API error: %d - %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason,omitempty"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason,omitempty"`
		} `json:"promptFeedback,omitempty"`
		Error struct {
			Code    int    `json:"code,omitempty"`
			Message string `json:"message,omitempty"`
		} `json:"error,omitempty"`
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		log.Printf("Failed to decode response. Body: %s", string(bodyBytes))
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if apiResp.Error.Message != "" {
		return "", fmt.Errorf("API error: %s (code: %d)", apiResp.Error.Message, apiResp.Error.Code)
	}

	if apiResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("API blocked prompt: %s", apiResp.PromptFeedback.BlockReason)
	}

	if len(apiResp.Candidates) == 0 {
		log.Printf("API returned no candidates. Full response: %s", string(bodyBytes))
		return "", fmt.Errorf("API returned no candidates")
	}

	var responseText strings.Builder
	for i, candidate := range apiResp.Candidates {
		if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
			log.Printf("Warning: Candidate %d finished with reason: %s", i, candidate.FinishReason)
		}

		if len(candidate.Content.Parts) == 0 {
			candidateJSON, _ := json.Marshal(candidate)
			log.Printf("Error: Candidate %d has no parts. Candidate structure: %s", i, string(candidateJSON))
			return "", fmt.Errorf("API candidate has no parts (finish reason: %s)", candidate.FinishReason)
		}

		for j, part := range candidate.Content.Parts {
			if part.Text == "" {
				log.Printf("Warning: Candidate %d, part %d has empty text", i, j)
				continue
			}
			responseText.WriteString(part.Text)
		}
	}

	result := responseText.String()
	if result == "" {
		return "", fmt.Errorf("API returned empty content")
	}

	return result, nil
}
