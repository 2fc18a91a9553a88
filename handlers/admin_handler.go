package handlers

import (
	"net/http"
	"time"

	"gapguard-backend/models"
	"gapguard-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler handles HTTP requests for the jurisdiction registry and the
// versioned validation rules
type AdminHandler struct {
	jurisdictionRepo *repository.JurisdictionRepository
	ruleRepo         *repository.ValidationRuleRepository
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(jurisdictionRepo *repository.JurisdictionRepository, ruleRepo *repository.ValidationRuleRepository) *AdminHandler {
	return &AdminHandler{
		jurisdictionRepo: jurisdictionRepo,
		ruleRepo:         ruleRepo,
	}
}

// CreateJurisdictionRequest represents the request body for registering a
// jurisdiction
type CreateJurisdictionRequest struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name" binding:"required"`
}

// CreateJurisdiction handles POST /api/jurisdictions
func (h *AdminHandler) CreateJurisdiction(c *gin.Context) {
	var req CreateJurisdictionRequest
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

	jurisdiction := &models.Jurisdiction{
		ID:       req.ID,
		Name:     req.Name,
		IsActive: true,
	}

	if err := h.jurisdictionRepo.Create(c.Request.Context(), jurisdiction); err != nil {
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
		"data":    jurisdiction,
	})
}

// ListJurisdictions handles GET /api/jurisdictions
func (h *AdminHandler) ListJurisdictions(c *gin.Context) {
	jurisdictions, err := h.jurisdictionRepo.ListActive(c.Request.Context())
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
		"data":    jurisdictions,
	})
}

// CreateRuleRequest represents the request body for publishing a rule version
type CreateRuleRequest struct {
	JurisdictionID string            `json:"jurisdiction_id" binding:"required"`
	Category       string            `json:"category" binding:"required"`
	Config         models.RuleConfig `json:"rule_config"`
	EffectiveDate  *time.Time        `json:"effective_date"`
}

// CreateRule handles POST /api/rules
// Publishing a rule never edits an existing row: the currently active version
// for the (jurisdiction, category) pair is expired and the new version
// inserted, so the full history stays queryable.
func (h *AdminHandler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
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

	category := models.RuleCategory(req.Category)
	switch category {
	case models.CategoryGapPremium, models.CategoryCancellationFee, models.CategoryRefundMethod:
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_CATEGORY",
				"message": "category must be gap_premium, cancellation_fee, or refund_method",
			},
		})
		return
	}

	jurisdiction, err := h.jurisdictionRepo.GetByID(c.Request.Context(), req.JurisdictionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LOOKUP_FAILED",
				"message": err.Error(),
			},
		})
		return
	}
	if jurisdiction == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNKNOWN_JURISDICTION",
				"message": "jurisdiction is not registered",
			},
		})
		return
	}

	effective := time.Now().UTC()
	if req.EffectiveDate != nil {
		effective = *req.EffectiveDate
	}

	rule := &models.ValidationRule{
		ID:             uuid.New(),
		JurisdictionID: req.JurisdictionID,
		Category:       category,
		Config:         req.Config,
		EffectiveDate:  effective,
		IsActive:       true,
	}

	if err := h.ruleRepo.Supersede(c.Request.Context(), rule); err != nil {
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
		"data":    rule,
	})
}

// GetRule handles GET /api/rules/:id
func (h *AdminHandler) GetRule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid rule ID format",
			},
		})
		return
	}

	rule, err := h.ruleRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LOOKUP_FAILED",
				"message": err.Error(),
			},
		})
		return
	}
	if rule == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Rule not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    rule,
	})
}

// ListRules handles GET /api/jurisdictions/:id/rules
// Returns every version, expired ones included, for auditability.
func (h *AdminHandler) ListRules(c *gin.Context) {
	jurisdictionID := c.Param("id")

	var category *models.RuleCategory
	if cat := c.Query("category"); cat != "" {
		rc := models.RuleCategory(cat)
		category = &rc
	}

	rules, err := h.ruleRepo.ListByJurisdiction(c.Request.Context(), jurisdictionID, category)
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
		"data":    rules,
	})
}
