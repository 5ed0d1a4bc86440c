package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"casebook-backend/models"
	"casebook-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EvidenceHandler handles HTTP requests for evidence operations
type EvidenceHandler struct {
	evidenceService  *service.EvidenceService
	maxFileSize      int64
	allowedMimeTypes map[string]bool
}

// NewEvidenceHandler creates a new evidence handler
func NewEvidenceHandler(evidenceService *service.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{
		evidenceService: evidenceService,
		maxFileSize:     25 * 1024 * 1024, // 25MB, photos of notices run large
		allowedMimeTypes: map[string]bool{
			"application/pdf":    true,
			"text/plain":         true,
			"application/msword": true, // .doc
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true, // .docx
			"image/jpeg": true,
			"image/png":  true,
			"image/heic": true,
			"image/webp": true,
		},
	}
}

// UploadEvidence handles POST /api/cases/:id/evidence
func (h *EvidenceHandler) UploadEvidence(c *gin.Context) {
	caseID, ok := parseIDParam(c, "Invalid case ID format")
	if !ok {
		return
	}

	userIDStr := c.PostForm("user_id")
	if userIDStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_USER_ID",
				"message": "user_id is required",
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

	// Get file from form
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > h.maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize),
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_OPEN_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = inferMimeType(fileHeader.Filename)
	}

	if !h.allowedMimeTypes[mimeType] && !strings.HasPrefix(mimeType, "text/") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "File type not allowed. Allowed types: PDF, TXT, DOC, DOCX, JPEG, PNG, HEIC, WEBP",
			},
		})
		return
	}

	meta := models.EvidenceMetadata{
		DocType:     c.PostForm("doc_type"),
		SourceParty: c.PostForm("source_party"),
	}
	if dateStr := c.PostForm("event_date"); dateStr != "" {
		eventDate, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_DATE",
					"message": "event_date must be formatted YYYY-MM-DD",
				},
			})
			return
		}
		meta.EventDate = &eventDate
	} else {
		meta.DateUnknown = true
	}
	if pcStr := c.PostForm("page_count"); pcStr != "" {
		if pc, err := strconv.Atoi(pcStr); err == nil && pc > 0 {
			meta.PageCount = pc
		}
	}
	if confStr := c.PostForm("confidence"); confStr != "" {
		if conf, err := strconv.ParseFloat(confStr, 64); err == nil {
			meta.Confidence = conf
		}
	}

	var tags []string
	if tagsStr := c.PostForm("tags"); tagsStr != "" {
		for _, t := range strings.Split(tagsStr, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	item, err := h.evidenceService.AddEvidence(c.Request.Context(), service.AddEvidenceRequest{
		CaseID:        caseID,
		UserID:        userID,
		FileName:      fileHeader.Filename,
		MediaType:     mimeType,
		Size:          fileHeader.Size,
		Data:          file,
		Description:   c.PostForm("description"),
		ExtractedText: c.PostForm("extracted_text"),
		Tags:          tags,
		Metadata:      meta,
	})
	if err != nil {
		respondEvidenceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    item,
	})
}

// ListEvidence handles GET /api/cases/:id/evidence
func (h *EvidenceHandler) ListEvidence(c *gin.Context) {
	caseID, ok := parseIDParam(c, "Invalid case ID format")
	if !ok {
		return
	}

	items, err := h.evidenceService.ListEvidence(c.Request.Context(), caseID, optionalUserID(c))
	if err != nil {
		respondEvidenceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
	})
}

// GetEvidence handles GET /api/evidence/:id
func (h *EvidenceHandler) GetEvidence(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid evidence ID format")
	if !ok {
		return
	}

	item, err := h.evidenceService.GetEvidence(c.Request.Context(), id, optionalUserID(c))
	if err != nil {
		respondEvidenceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// UpdateMetadataRequest represents the request body for metadata updates
type UpdateMetadataRequest struct {
	UserID   string                  `json:"user_id"`
	Metadata models.EvidenceMetadata `json:"metadata" binding:"required"`
}

// UpdateMetadata handles PUT /api/evidence/:id/metadata
func (h *EvidenceHandler) UpdateMetadata(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid evidence ID format")
	if !ok {
		return
	}

	var req UpdateMetadataRequest
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

	item, err := h.evidenceService.UpdateMetadata(c.Request.Context(), service.UpdateMetadataRequest{
		EvidenceID: id,
		UserID:     userID,
		Metadata:   req.Metadata,
	})
	if err != nil {
		respondEvidenceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    item,
	})
}

// DownloadEvidence handles GET /api/evidence/:id/download
func (h *EvidenceHandler) DownloadEvidence(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid evidence ID format")
	if !ok {
		return
	}

	reader, item, err := h.evidenceService.DownloadDocument(c.Request.Context(), id, optionalUserID(c))
	if err != nil {
		respondEvidenceError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", item.FileName))
	c.Header("Content-Type", item.MediaType)

	if _, err := io.Copy(c.Writer, reader); err != nil {
		// Headers already sent, nothing useful left to return
		return
	}
}

// DeleteEvidence handles DELETE /api/evidence/:id
func (h *EvidenceHandler) DeleteEvidence(c *gin.Context) {
	id, ok := parseIDParam(c, "Invalid evidence ID format")
	if !ok {
		return
	}

	if err := h.evidenceService.DeleteEvidence(c.Request.Context(), id, optionalUserID(c)); err != nil {
		respondEvidenceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"message": "Evidence deleted",
		},
	})
}

// inferMimeType guesses a MIME type from the filename extension
func inferMimeType(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(lower, ".txt"):
		return "text/plain"
	case strings.HasSuffix(lower, ".doc"):
		return "application/msword"
	case strings.HasSuffix(lower, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".heic"):
		return "image/heic"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// respondEvidenceError maps evidence service errors to HTTP responses
func respondEvidenceError(c *gin.Context, err error) {
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
				"message": "You do not have access to this evidence",
			},
		})
	case errors.Is(err, service.ErrDocumentFetchFailed):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOCUMENT_NOT_FOUND",
				"message": "Stored document could not be fetched",
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
