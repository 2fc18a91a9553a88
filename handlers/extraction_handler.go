package handlers

import (
	"net/http"

	"gapguard-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExtractionHandler handles HTTP requests for extractions and their review
type ExtractionHandler struct {
	extractionService *service.ExtractionService
}

// NewExtractionHandler creates a new extraction handler
func NewExtractionHandler(extractionService *service.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{
		extractionService: extractionService,
	}
}

// GetExtraction handles GET /api/extractions/:id
func (h *ExtractionHandler) GetExtraction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid extraction ID format",
			},
		})
		return
	}

	extraction, err := h.extractionService.GetExtraction(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Extraction not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    extraction,
	})
}

// ListExtractions handles GET /api/contracts/:id/extractions
func (h *ExtractionHandler) ListExtractions(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
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

	extractions, err := h.extractionService.ListExtractions(c.Request.Context(), contractID)
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
		"data":    extractions,
	})
}

// ReviewExtractionRequest represents the request body for reviewing an
// extraction
type ReviewExtractionRequest struct {
	Approved   *bool   `json:"approved" binding:"required"`
	ReviewedBy *string `json:"reviewed_by"`
}

// ReviewExtraction handles POST /api/extractions/:id/review
func (h *ExtractionHandler) ReviewExtraction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid extraction ID format",
			},
		})
		return
	}

	var req ReviewExtractionRequest
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

	var reviewedBy *uuid.UUID
	if req.ReviewedBy != nil {
		parsed, err := uuid.Parse(*req.ReviewedBy)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_REVIEWER",
					"message": "Invalid reviewed_by format",
				},
			})
			return
		}
		reviewedBy = &parsed
	}

	extraction, err := h.extractionService.ReviewExtraction(c.Request.Context(), id, *req.Approved, reviewedBy)
	if err != nil {
		status := http.StatusInternalServerError
		code := "REVIEW_FAILED"
		switch err {
		case service.ErrExtractionNotFound:
			status = http.StatusNotFound
			code = "NOT_FOUND"
		case service.ErrAlreadyReviewed:
			status = http.StatusConflict
			code = "ALREADY_REVIEWED"
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

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    extraction,
	})
}

// RevalidateExtraction handles POST /api/extractions/:id/validate
func (h *ExtractionHandler) RevalidateExtraction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid extraction ID format",
			},
		})
		return
	}

	extraction, err := h.extractionService.RevalidateExtraction(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		code := "VALIDATION_FAILED"
		if err == service.ErrExtractionNotFound {
			status = http.StatusNotFound
			code = "NOT_FOUND"
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

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    extraction,
	})
}
