package service

import (
	"context"
	"errors"
	"fmt"

	"casebook-backend/models"
	"casebook-backend/repository"

	"github.com/google/uuid"
)

// CaseService handles case lifecycle and merit scoring
type CaseService struct {
	caseRepo     *repository.CaseRepository
	evidenceRepo *repository.EvidenceRepository
	meritRepo    *repository.MeritRepository
	scorer       *MeritScorer
}

// CaseServiceOption is a functional option for CaseService
type CaseServiceOption func(*CaseService)

// CaseWithCaseRepository sets the case repository
func CaseWithCaseRepository(repo *repository.CaseRepository) CaseServiceOption {
	return func(s *CaseService) {
		s.caseRepo = repo
	}
}

// CaseWithEvidenceRepository sets the evidence repository
func CaseWithEvidenceRepository(repo *repository.EvidenceRepository) CaseServiceOption {
	return func(s *CaseService) {
		s.evidenceRepo = repo
	}
}

// CaseWithMeritRepository sets the merit result repository
func CaseWithMeritRepository(repo *repository.MeritRepository) CaseServiceOption {
	return func(s *CaseService) {
		s.meritRepo = repo
	}
}

// CaseWithScorer sets the merit scorer
func CaseWithScorer(scorer *MeritScorer) CaseServiceOption {
	return func(s *CaseService) {
		s.scorer = scorer
	}
}

// NewCaseService creates a new case service
func NewCaseService(opts ...CaseServiceOption) *CaseService {
	s := &CaseService{
		scorer: NewMeritScorer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCaseRequest represents a request to create a case
type CreateCaseRequest struct {
	UserID  uuid.UUID
	Profile models.CaseProfile
}

// CreateCase creates a new case in draft status
func (s *CaseService) CreateCase(ctx context.Context, req CreateCaseRequest) (*models.Case, error) {
	if s.caseRepo == nil {
		return nil, errors.New("case repository not set")
	}

	c := &models.Case{
		UserID:  req.UserID,
		Status:  models.CaseStatusDraft,
		Profile: req.Profile,
	}

	if err := s.caseRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}

	return c, nil
}

// GetCase retrieves a case, verifying ownership when userID is set
func (s *CaseService) GetCase(ctx context.Context, caseID uuid.UUID, userID *uuid.UUID) (*models.Case, error) {
	if s.caseRepo == nil {
		return nil, errors.New("case repository not set")
	}

	c, err := s.caseRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, ErrCaseNotFound
	}

	if userID != nil && c.UserID != *userID {
		return nil, ErrAccessDenied
	}

	return c, nil
}

// UpdateCaseRequest represents a request to update a case
type UpdateCaseRequest struct {
	CaseID  uuid.UUID
	UserID  *uuid.UUID
	Profile *models.CaseProfile
}

// UpdateCase updates a case's profile
func (s *CaseService) UpdateCase(ctx context.Context, req UpdateCaseRequest) (*models.Case, error) {
	c, err := s.GetCase(ctx, req.CaseID, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.Profile != nil {
		c.Profile = *req.Profile
	}

	if err := s.caseRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update case: %w", err)
	}

	return c, nil
}

// ListCases lists cases for a user with optional status filter
func (s *CaseService) ListCases(ctx context.Context, userID uuid.UUID, status *models.CaseStatus, limit, offset int) ([]*models.Case, error) {
	if s.caseRepo == nil {
		return nil, errors.New("case repository not set")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.caseRepo.ListByUserID(ctx, userID, status, limit, offset)
}

// DeleteCase removes a case after verifying ownership
func (s *CaseService) DeleteCase(ctx context.Context, caseID uuid.UUID, userID *uuid.UUID) error {
	if _, err := s.GetCase(ctx, caseID, userID); err != nil {
		return err
	}
	return s.caseRepo.Delete(ctx, caseID)
}

// ScoreCaseRequest represents a request to compute a merit score
type ScoreCaseRequest struct {
	CaseID  uuid.UUID
	UserID  *uuid.UUID
	Variant models.MeritVariant
}

// ScoreCaseResult represents the result of merit scoring
type ScoreCaseResult struct {
	Merit *models.MeritResult
}

// ScoreCase computes and stores the merit score for a case. The case
// transitions draft/complete -> pending -> complete, or to error with a
// message on failure; it is never left pending.
func (s *CaseService) ScoreCase(ctx context.Context, req ScoreCaseRequest) (*ScoreCaseResult, error) {
	if s.meritRepo == nil || s.evidenceRepo == nil {
		return nil, errors.New("case service not fully configured")
	}

	c, err := s.GetCase(ctx, req.CaseID, req.UserID)
	if err != nil {
		return nil, err
	}

	variant := req.Variant
	if variant == "" {
		variant = models.VariantHeuristic
	}
	if variant != models.VariantHeuristic && variant != models.VariantFormal {
		return nil, fmt.Errorf("unknown merit variant: %s", variant)
	}

	if err := s.caseRepo.SetStatus(ctx, c.ID, models.CaseStatusPending, nil); err != nil {
		return nil, fmt.Errorf("failed to update case status: %w", err)
	}

	result, err := s.computeScore(ctx, c, variant)
	if err != nil {
		msg := err.Error()
		if serr := s.caseRepo.SetStatus(ctx, c.ID, models.CaseStatusError, &msg); serr != nil {
			return nil, fmt.Errorf("scoring failed (%v) and status update failed: %w", err, serr)
		}
		return nil, err
	}

	if err := s.caseRepo.SetStatus(ctx, c.ID, models.CaseStatusComplete, nil); err != nil {
		return nil, fmt.Errorf("failed to update case status: %w", err)
	}

	return &ScoreCaseResult{Merit: result}, nil
}

func (s *CaseService) computeScore(ctx context.Context, c *models.Case, variant models.MeritVariant) (*models.MeritResult, error) {
	items, err := s.evidenceRepo.ListByCaseID(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load evidence: %w", err)
	}

	var result *models.MeritResult
	if variant == models.VariantFormal {
		result = s.scorer.ScoreFormal(ctx, c.Profile, items)
	} else {
		result = s.scorer.ScoreHeuristic(c.Profile, items)
	}
	result.CaseID = c.ID

	if err := s.meritRepo.Upsert(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to store merit result: %w", err)
	}

	return result, nil
}

// GetMerit retrieves the stored merit result for a case
func (s *CaseService) GetMerit(ctx context.Context, caseID uuid.UUID, userID *uuid.UUID, variant models.MeritVariant) (*models.MeritResult, error) {
	if s.meritRepo == nil {
		return nil, errors.New("merit repository not set")
	}

	if _, err := s.GetCase(ctx, caseID, userID); err != nil {
		return nil, err
	}

	if variant == "" {
		variant = models.VariantHeuristic
	}

	result, err := s.meritRepo.GetByCaseID(ctx, caseID, variant)
	if err != nil {
		return nil, fmt.Errorf("merit result not found: %w", err)
	}

	return result, nil
}
