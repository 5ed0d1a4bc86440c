package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"casebook-backend/models"
	"casebook-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EntitlementFunc reports whether a user may generate books. Wired to
// the billing layer in production; nil means everything is allowed.
type EntitlementFunc func(ctx context.Context, userID uuid.UUID) (bool, error)

// CaseHandler handles HTTP requests for cases, scoring, and books
type CaseHandler struct {
	caseService *service.CaseService
	bookService *service.BookService
	entitlement EntitlementFunc
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(caseService *service.CaseService, bookService *service.BookService, entitlement EntitlementFunc) *CaseHandler {
	return &CaseHandler{
		caseService: caseService,
		bookService: bookService,
		entitlement: entitlement,
	}
}

// CreateCaseRequest represents the request body for creating a case
type CreateCaseRequest struct {
	UserID  string             `json:"user_id" binding:"required"`
	Profile models.CaseProfile `json:"profile"`
}

// CreateCase handles POST /api/cases
func (h *CaseHandler) CreateCase(c *gin.Context) {
	var req CreateCaseRequest
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

	result, err := h.caseService.CreateCase(c.Request.Context(), service.CreateCaseRequest{
		UserID:  userID,
		Profile: req.Profile,
	})
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
		"data":    result,
	})
}

// GetCase handles GET /api/cases/:id
func (h *CaseHandler) GetCase(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid case ID format")
	if !ok {
		return
	}

	result, err := h.caseService.GetCase(c.Request.Context(), id, optionalUserID(c))
	if err != nil {
		respondCaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// UpdateCaseRequest represents the request body for updating a case
type UpdateCaseRequest struct {
	UserID  string              `json:"user_id"`
	Profile *models.CaseProfile `json:"profile"`
}

// UpdateCase handles PUT /api/cases/:id
func (h *CaseHandler) UpdateCase(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid case ID format")
	if !ok {
		return
	}

	var req UpdateCaseRequest
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

	var userID *uuid.UUID
	if req.UserID != "" {
		uid, err := uuid.Parse(req.UserID)
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
		userID = &uid
	}

	result, err := h.caseService.UpdateCase(c.Request.Context(), service.UpdateCaseRequest{
		CaseID:  id,
		UserID:  userID,
		Profile: req.Profile,
	})
	if err != nil {
		respondCaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// ListCases handles GET /api/cases
func (h *CaseHandler) ListCases(c *gin.Context) {
	userIDStr := c.Query("user_id")
	if userIDStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_USER_ID",
				"message": "user_id query parameter is required",
			},
		})
		return
	}

	userID, err := uuid.Parse(userIDStr)
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

	var status *models.CaseStatus
	if statusStr := c.Query("status"); statusStr != "" {
		st := models.CaseStatus(statusStr)
		status = &st
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	cases, err := h.caseService.ListCases(c.Request.Context(), userID, status, limit, offset)
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
		"data":    cases,
	})
}

// DeleteCase handles DELETE /api/cases/:id
func (h *CaseHandler) DeleteCase(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid case ID format")
	if !ok {
		return
	}

	if err := h.caseService.DeleteCase(c.Request.Context(), id, optionalUserID(c)); err != nil {
		respondCaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"message": "Case deleted",
		},
	})
}

// ScoreCase handles POST /api/cases/:id/score
func (h *CaseHandler) ScoreCase(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid case ID format")
	if !ok {
		return
	}

	var reqBody struct {
		UserID  string `json:"user_id"`
		Variant string `json:"variant"`
	}
	if err := c.ShouldBindJSON(&reqBody); err != nil && err != io.EOF {
		// JSON is optional, ignore binding errors if body is empty
	}

	var userID *uuid.UUID
	if reqBody.UserID != "" {
		uid, err := uuid.Parse(reqBody.UserID)
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
		userID = &uid
	}

	result, err := h.caseService.ScoreCase(c.Request.Context(), service.ScoreCaseRequest{
		CaseID:  id,
		UserID:  userID,
		Variant: models.MeritVariant(reqBody.Variant),
	})
	if err != nil {
		respondCaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Merit,
	})
}

// GetMerit handles GET /api/cases/:id/merit
func (h *CaseHandler) GetMerit(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid case ID format")
	if !ok {
		return
	}

	variant := models.MeritVariant(c.DefaultQuery("variant", string(models.VariantHeuristic)))

	result, err := h.caseService.GetMerit(c.Request.Context(), id, optionalUserID(c), variant)
	if err != nil {
		respondCaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GenerateBook handles POST /api/cases/:id/book
func (h *CaseHandler) GenerateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid case ID format")
	if !ok {
		return
	}

	var reqBody struct {
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&reqBody); err != nil && err != io.EOF {
		// JSON is optional, ignore binding errors if body is empty
	}

	var userID *uuid.UUID
	if reqBody.UserID != "" {
		uid, err := uuid.Parse(reqBody.UserID)
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
		userID = &uid
	}

	if h.entitlement != nil && userID != nil {
		allowed, err := h.entitlement(c.Request.Context(), *userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ENTITLEMENT_CHECK_FAILED",
					"message": err.Error(),
				},
			})
			return
		}
		if !allowed {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ENTITLEMENT_REQUIRED",
					"message": "Book generation requires an active plan",
				},
			})
			return
		}
	}

	// Create job (synchronous, fast)
	result, err := h.bookService.GenerateBook(c.Request.Context(), service.GenerateBookRequest{
		CaseID: id,
		UserID: userID,
	})
	if err != nil {
		respondBookError(c, err)
		return
	}

	// Spawn background goroutine for actual processing
	// Use background context (not request context) to avoid cancellation
	go func() {
		bgCtx := context.Background()
		if err := h.bookService.ProcessBook(bgCtx, result.JobID); err != nil {
			// Error is logged and stored in job.ErrorMessage
			// No need to return to HTTP client (they'll poll status)
			log.Printf("Book generation job %s failed: %v", result.JobID, err)
		}
	}()

	// Return immediately (within 100ms)
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"job_id":  result.JobID,
			"status":  "pending",
			"message": "Book generation job created. Poll /api/jobs/:id for updates.",
		},
	})
}

// GetBook handles GET /api/cases/:id/book
func (h *CaseHandler) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid case ID format")
	if !ok {
		return
	}

	result, err := h.bookService.GetBook(c.Request.Context(), service.GetBookRequest{CaseID: id})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Book result not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Book,
	})
}

// GetJobStatus handles GET /api/jobs/:id
func (h *CaseHandler) GetJobStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid job ID format")
	if !ok {
		return
	}

	result, err := h.bookService.GetJobStatus(c.Request.Context(), service.GetJobStatusRequest{JobID: id})
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Generation job not found",
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

// parseIDParam parses the :id path parameter, writing the error response
// itself on failure.
func parseIDParam(c *gin.Context, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": message,
			},
		})
		return uuid.Nil, false
	}
	return id, true
}

// optionalUserID reads the user_id query parameter when present
func optionalUserID(c *gin.Context) *uuid.UUID {
	userIDStr := c.Query("user_id")
	if userIDStr == "" {
		return nil
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil
	}
	return &uid
}

// respondCaseError maps service sentinel errors to HTTP responses
func respondCaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCaseNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Case not found",
			},
		})
	case errors.Is(err, service.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ACCESS_DENIED",
				"message": "You do not have access to this case",
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "OPERATION_FAILED",
				"message": err.Error(),
			},
		})
	}
}

// respondBookError maps book generation errors to HTTP responses
func respondBookError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCaseNotFound):
		respondCaseError(c, err)
	case errors.Is(err, service.ErrAccessDenied):
		respondCaseError(c, err)
	case errors.Is(err, service.ErrMissingRequiredData):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_REQUIRED_DATA",
				"message": "Case is missing required profile data (province and description)",
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "GENERATION_FAILED",
				"message": err.Error(),
			},
		})
	}
}
