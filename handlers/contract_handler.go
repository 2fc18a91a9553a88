package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"gapguard-backend/models"
	"gapguard-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContractHandler handles HTTP requests for contracts
type ContractHandler struct {
	contractService   *service.ContractService
	extractionService *service.ExtractionService
}

// NewContractHandler creates a new contract handler
func NewContractHandler(contractService *service.ContractService, extractionService *service.ExtractionService) *ContractHandler {
	return &ContractHandler{
		contractService:   contractService,
		extractionService: extractionService,
	}
}

// CreateContractRequest represents the request body for creating a contract
type CreateContractRequest struct {
	UserID         string `json:"user_id" binding:"required"`
	ContractNumber string `json:"contract_number"`
	DealerName     string `json:"dealer_name"`
	ProviderName   string `json:"provider_name"`
	Status         string `json:"status"`
}

// CreateContract handles POST /api/contracts
func (h *ContractHandler) CreateContract(c *gin.Context) {
	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_USER_ID",
				"message": "Invalid user_id format",
			},
		})
		return
	}

	serviceReq := service.CreateContractRequest{
		UserID:         userID,
		ContractNumber: req.ContractNumber,
		DealerName:     req.DealerName,
		ProviderName:   req.ProviderName,
		Status:         models.ContractStatus(req.Status),
	}

	result, err := h.contractService.CreateContract(c.Request.Context(), serviceReq)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CREATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result.Contract,
	})
}

// GetContract handles GET /api/contracts/:id
func (h *ContractHandler) GetContract(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid contract ID format",
			},
		})
		return
	}

	result, err := h.contractService.GetContract(c.Request.Context(), service.GetContractRequest{ID: id})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Contract not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Contract,
	})
}

// UpdateContractRequest represents the request body for updating a contract
type UpdateContractRequest struct {
	Status         string  `json:"status"`
	ContractNumber string  `json:"contract_number"`
	DealerName     string  `json:"dealer_name"`
	ProviderName   string  `json:"provider_name"`
	DocumentFileID *string `json:"document_file_id"`
}

// UpdateContract handles PUT /api/contracts/:id
func (h *ContractHandler) UpdateContract(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid contract ID format",
			},
		})
		return
	}

	getResult, err := h.contractService.GetContract(c.Request.Context(), service.GetContractRequest{ID: id})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Contract not found",
			},
		})
		return
	}

	contract := getResult.Contract

	var req UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	if req.Status != "" {
		contract.Status = models.ContractStatus(req.Status)
	}
	if req.ContractNumber != "" {
		contract.ContractNumber = req.ContractNumber
	}
	if req.DealerName != "" {
		contract.DealerName = req.DealerName
	}
	if req.ProviderName != "" {
		contract.ProviderName = req.ProviderName
	}
	if req.DocumentFileID != nil {
		fileID, err := uuid.Parse(*req.DocumentFileID)
		if err == nil {
			contract.DocumentFileID = &fileID
		}
	}

	updateResult, err := h.contractService.UpdateContract(c.Request.Context(), service.UpdateContractRequest{Contract: contract})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPDATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updateResult.Contract,
	})
}

// ListContracts handles GET /api/contracts
func (h *ContractHandler) ListContracts(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_USER_ID",
				"message": "user_id query parameter is required",
			},
		})
		return
	}

	var status *models.ContractStatus
	if s := c.Query("status"); s != "" {
		cs := models.ContractStatus(s)
		status = &cs
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	result, err := h.contractService.ListContracts(c.Request.Context(), service.ListContractsRequest{
		UserID: userID,
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Contracts,
	})
}

// AssignJurisdictionRequest represents the request body for mapping a
// contract to a jurisdiction
type AssignJurisdictionRequest struct {
	JurisdictionID string     `json:"jurisdiction_id" binding:"required"`
	IsPrimary      bool       `json:"is_primary"`
	EffectiveDate  *time.Time `json:"effective_date"`
	ExpirationDate *time.Time `json:"expiration_date"`
}

// AssignJurisdiction handles POST /api/contracts/:id/jurisdictions
func (h *ContractHandler) AssignJurisdiction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid contract ID format",
			},
		})
		return
	}

	var req AssignJurisdictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.contractService.AssignJurisdiction(c.Request.Context(), service.AssignJurisdictionRequest{
		ContractID:     id,
		JurisdictionID: req.JurisdictionID,
		IsPrimary:      req.IsPrimary,
		EffectiveDate:  req.EffectiveDate,
		ExpirationDate: req.ExpirationDate,
	})
	if err != nil {
		status := http.StatusInternalServerError
		code := "ASSIGN_FAILED"
		switch err {
		case service.ErrContractNotFound:
			status = http.StatusNotFound
			code = "NOT_FOUND"
		case service.ErrUnknownJurisdiction:
			status = http.StatusBadRequest
			code = "UNKNOWN_JURISDICTION"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result.Mapping,
	})
}

// ListJurisdictions handles GET /api/contracts/:id/jurisdictions
func (h *ContractHandler) ListJurisdictions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid contract ID format",
			},
		})
		return
	}

	asOf := time.Now()
	if d := c.Query("as_of"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_DATE",
					"message": "as_of must be formatted YYYY-MM-DD",
				},
			})
			return
		}
		asOf = parsed
	}

	result, err := h.contractService.ContractJurisdictions(c.Request.Context(), service.ContractJurisdictionsRequest{
		ContractID: id,
		AsOf:       asOf,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Mappings,
	})
}

// StartExtraction handles POST /api/contracts/:id/extract
func (h *ContractHandler) StartExtraction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid contract ID format",
			},
		})
		return
	}

	// Create job (synchronous, fast)
	result, err := h.extractionService.StartExtraction(c.Request.Context(), service.StartExtractionRequest{
		ContractID: id,
	})
	if err != nil {
		status := http.StatusInternalServerError
		code := "EXTRACTION_FAILED"
		switch err {
		case service.ErrContractNotFound:
			status = http.StatusNotFound
			code = "NOT_FOUND"
		case service.ErrMissingDocument:
			status = http.StatusBadRequest
			code = "MISSING_DOCUMENT"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	// Spawn background goroutine for actual processing
	// Use background context (not request context) to avoid cancellation
	go func() {
		bgCtx := context.Background()
		if err := h.extractionService.ProcessExtraction(bgCtx, result.JobID); err != nil {
			// Error is logged and stored in job.ErrorMessage
			// No need to return to HTTP client (they'll poll status)
			log.Printf("Extraction job %s failed: %v", result.JobID, err)
		}
	}()

	// Return immediately (within 100ms)
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"job_id":  result.JobID,
			"status":  "pending",
			"message": "Extraction job created. Poll /api/jobs/:id for updates.",
		},
	})
}

// GetJobStatus handles GET /api/jobs/:id
func (h *ContractHandler) GetJobStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid job ID format",
			},
		})
		return
	}

	result, err := h.extractionService.GetJobStatus(c.Request.Context(), service.GetJobStatusRequest{JobID: id})
	if err != nil {
		if err == service.ErrJobNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Extraction job not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Job,
	})
}
