package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"casebook-backend/models"
	"casebook-backend/repository"
	"casebook-backend/storage"

	"github.com/google/uuid"
)

// EvidenceService handles evidence upload, metadata, and quality flags
type EvidenceService struct {
	caseRepo     *repository.CaseRepository
	evidenceRepo *repository.EvidenceRepository
	fileRepo     *repository.FileRepository
	fileStorage  storage.Storage
	quality      *QualityAssessor
}

// EvidenceServiceOption is a functional option for EvidenceService
type EvidenceServiceOption func(*EvidenceService)

// EvidenceWithCaseRepository sets the case repository
func EvidenceWithCaseRepository(repo *repository.CaseRepository) EvidenceServiceOption {
	return func(s *EvidenceService) {
		s.caseRepo = repo
	}
}

// EvidenceWithEvidenceRepository sets the evidence repository
func EvidenceWithEvidenceRepository(repo *repository.EvidenceRepository) EvidenceServiceOption {
	return func(s *EvidenceService) {
		s.evidenceRepo = repo
	}
}

// EvidenceWithFileRepository sets the file repository
func EvidenceWithFileRepository(repo *repository.FileRepository) EvidenceServiceOption {
	return func(s *EvidenceService) {
		s.fileRepo = repo
	}
}

// EvidenceWithStorage sets the document storage backend
func EvidenceWithStorage(st storage.Storage) EvidenceServiceOption {
	return func(s *EvidenceService) {
		s.fileStorage = st
	}
}

// NewEvidenceService creates a new evidence service
func NewEvidenceService(opts ...EvidenceServiceOption) *EvidenceService {
	s := &EvidenceService{
		quality: NewQualityAssessor(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddEvidenceRequest represents a request to add evidence to a case
type AddEvidenceRequest struct {
	CaseID        uuid.UUID
	UserID        uuid.UUID
	FileName      string
	MediaType     string
	Size          int64
	Data          io.Reader
	Description   string
	ExtractedText string
	Tags          []string
	Metadata      models.EvidenceMetadata
}

// AddEvidence stores the document, fingerprints its content, assesses
// quality, and records the evidence item.
func (s *EvidenceService) AddEvidence(ctx context.Context, req AddEvidenceRequest) (*models.EvidenceItem, error) {
	if s.caseRepo == nil || s.evidenceRepo == nil {
		return nil, errors.New("evidence service not fully configured")
	}
	if req.FileName == "" {
		return nil, errors.New("file name is required")
	}

	c, err := s.caseRepo.GetByID(ctx, req.CaseID)
	if err != nil {
		return nil, ErrCaseNotFound
	}
	if c.UserID != req.UserID {
		return nil, ErrAccessDenied
	}

	meta := req.Metadata

	var fileID *uuid.UUID
	if req.Data != nil {
		if s.fileStorage == nil || s.fileRepo == nil {
			return nil, errors.New("document storage not configured")
		}

		// Hash while uploading so the content fingerprint matches the
		// stored bytes exactly.
		hasher := sha256.New()
		tee := io.TeeReader(req.Data, hasher)

		storagePath, err := s.fileStorage.Upload(ctx, uuid.New(), req.FileName, tee)
		if err != nil {
			return nil, fmt.Errorf("failed to store document: %w", err)
		}

		file := &models.File{
			UserID:      req.UserID,
			CaseID:      &req.CaseID,
			Filename:    req.FileName,
			MimeType:    req.MediaType,
			Size:        req.Size,
			StoragePath: storagePath,
		}
		if err := s.fileRepo.Create(ctx, file); err != nil {
			if derr := s.fileStorage.Delete(ctx, storagePath); derr != nil {
				return nil, fmt.Errorf("failed to record document (%v) and cleanup failed: %w", err, derr)
			}
			return nil, fmt.Errorf("failed to record document: %w", err)
		}

		fileID = &file.ID
		meta.ContentHash = hex.EncodeToString(hasher.Sum(nil))
	} else if meta.ContentHash == "" && req.ExtractedText != "" {
		sum := sha256.Sum256([]byte(req.ExtractedText))
		meta.ContentHash = hex.EncodeToString(sum[:])
	}

	if meta.PageCount <= 0 {
		meta.PageCount = 1
	}
	meta.QualityFlags = s.quality.Assess(req.MediaType, meta, req.ExtractedText)

	item := &models.EvidenceItem{
		CaseID:        req.CaseID,
		FileID:        fileID,
		FileName:      req.FileName,
		MediaType:     req.MediaType,
		Description:   req.Description,
		ExtractedText: req.ExtractedText,
		Tags:          req.Tags,
		Metadata:      meta,
	}

	if err := s.evidenceRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create evidence item: %w", err)
	}

	return item, nil
}

// GetEvidence retrieves an evidence item, verifying case ownership
func (s *EvidenceService) GetEvidence(ctx context.Context, evidenceID uuid.UUID, userID *uuid.UUID) (*models.EvidenceItem, error) {
	if s.evidenceRepo == nil {
		return nil, errors.New("evidence repository not set")
	}

	item, err := s.evidenceRepo.GetByID(ctx, evidenceID)
	if err != nil {
		return nil, fmt.Errorf("evidence item not found: %w", err)
	}

	if userID != nil {
		c, err := s.caseRepo.GetByID(ctx, item.CaseID)
		if err != nil {
			return nil, ErrCaseNotFound
		}
		if c.UserID != *userID {
			return nil, ErrAccessDenied
		}
	}

	return item, nil
}

// ListEvidence lists evidence for a case, verifying ownership when
// userID is set
func (s *EvidenceService) ListEvidence(ctx context.Context, caseID uuid.UUID, userID *uuid.UUID) ([]models.EvidenceItem, error) {
	if s.caseRepo == nil || s.evidenceRepo == nil {
		return nil, errors.New("evidence service not fully configured")
	}

	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, ErrCaseNotFound
	}
	if userID != nil && c.UserID != *userID {
		return nil, ErrAccessDenied
	}

	return s.evidenceRepo.ListByCaseID(ctx, caseID)
}

// UpdateMetadataRequest represents a request to correct evidence metadata
type UpdateMetadataRequest struct {
	EvidenceID uuid.UUID
	UserID     *uuid.UUID
	Metadata   models.EvidenceMetadata
}

// UpdateMetadata replaces an item's metadata and recomputes its quality
// flags, so a corrected date clears the missing_date flag immediately.
func (s *EvidenceService) UpdateMetadata(ctx context.Context, req UpdateMetadataRequest) (*models.EvidenceItem, error) {
	item, err := s.GetEvidence(ctx, req.EvidenceID, req.UserID)
	if err != nil {
		return nil, err
	}

	meta := req.Metadata
	if meta.ContentHash == "" {
		meta.ContentHash = item.Metadata.ContentHash
	}
	if meta.PageCount <= 0 {
		meta.PageCount = item.Metadata.PageCount
	}
	meta.QualityFlags = s.quality.Assess(item.MediaType, meta, item.ExtractedText)

	if err := s.evidenceRepo.UpdateMetadata(ctx, item.ID, meta); err != nil {
		return nil, fmt.Errorf("failed to update metadata: %w", err)
	}

	item.Metadata = meta
	return item, nil
}

// DeleteEvidence removes an evidence item and its stored document
func (s *EvidenceService) DeleteEvidence(ctx context.Context, evidenceID uuid.UUID, userID *uuid.UUID) error {
	item, err := s.GetEvidence(ctx, evidenceID, userID)
	if err != nil {
		return err
	}

	if item.FileID != nil && s.fileStorage != nil && s.fileRepo != nil {
		file, err := s.fileRepo.GetByID(ctx, *item.FileID)
		if err == nil {
			if err := s.fileStorage.Delete(ctx, file.StoragePath); err != nil {
				return fmt.Errorf("failed to delete document: %w", err)
			}
			if err := s.fileRepo.Delete(ctx, file.ID); err != nil {
				return fmt.Errorf("failed to delete file record: %w", err)
			}
		}
	}

	return s.evidenceRepo.Delete(ctx, evidenceID)
}

// DownloadDocument streams the stored document backing an evidence item
func (s *EvidenceService) DownloadDocument(ctx context.Context, evidenceID uuid.UUID, userID *uuid.UUID) (io.ReadCloser, *models.EvidenceItem, error) {
	item, err := s.GetEvidence(ctx, evidenceID, userID)
	if err != nil {
		return nil, nil, err
	}
	if item.FileID == nil {
		return nil, nil, errors.New("evidence item has no stored document")
	}
	if s.fileStorage == nil || s.fileRepo == nil {
		return nil, nil, errors.New("document storage not configured")
	}

	file, err := s.fileRepo.GetByID(ctx, *item.FileID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDocumentFetchFailed, err)
	}

	reader, err := s.fileStorage.Download(ctx, file.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDocumentFetchFailed, err)
	}

	return reader, item, nil
}
