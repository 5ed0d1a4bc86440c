package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"casebook-backend/jurisdiction"
	"casebook-backend/models"
	"casebook-backend/repository"
	"casebook-backend/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrCaseNotFound        = errors.New("case not found")
	ErrMissingRequiredData = errors.New("case missing required data for generation")
	ErrAccessDenied        = errors.New("access denied")
	ErrJobCreationFailed   = errors.New("failed to create generation job")
	ErrJobNotFound         = errors.New("generation job not found")
	ErrDocumentFetchFailed = errors.New("failed to fetch evidence document")
	ErrNoEvidence          = errors.New("case has no evidence to assemble")
)

// Per-item quality assessment runs concurrently in batches of three,
// matching the evidence-upload analysis pattern.
const qualityParallelism = 3

// Book generation step names, in pipeline order.
const (
	stepQuality    = "Assessing Evidence Quality"
	stepDetectors  = "Detecting Duplicates and Conflicts"
	stepAssembly   = "Assembling Exhibits"
	stepCompliance = "Checking Compliance"
	stepFinalize   = "Finalizing Book"
)

// BookService orchestrates book generation: quality assessment, duplicate
// and conflict detection, exhibit assembly, compliance checking, and
// result shaping, tracked through a generation job.
type BookService struct {
	caseRepo     *repository.CaseRepository
	evidenceRepo *repository.EvidenceRepository
	jobRepo      *repository.GenerationJobRepository
	bookRepo     *repository.BookRepository
	fileRepo     *repository.FileRepository
	fileStorage  storage.Storage
	registry     jurisdiction.Registry

	quality    *QualityAssessor
	duplicates *DuplicateDetector
	conflicts  *ConflictDetector
	assembler  *ExhibitAssembler
	compliance *ComplianceChecker
	now        func() time.Time
}

// BookServiceOption is a functional option for BookService
type BookServiceOption func(*BookService)

// BookWithCaseRepository sets the case repository
func BookWithCaseRepository(repo *repository.CaseRepository) BookServiceOption {
	return func(s *BookService) {
		s.caseRepo = repo
	}
}

// BookWithEvidenceRepository sets the evidence repository
func BookWithEvidenceRepository(repo *repository.EvidenceRepository) BookServiceOption {
	return func(s *BookService) {
		s.evidenceRepo = repo
	}
}

// BookWithGenerationJobRepository sets the generation job repository
func BookWithGenerationJobRepository(repo *repository.GenerationJobRepository) BookServiceOption {
	return func(s *BookService) {
		s.jobRepo = repo
	}
}

// BookWithBookRepository sets the book result repository
func BookWithBookRepository(repo *repository.BookRepository) BookServiceOption {
	return func(s *BookService) {
		s.bookRepo = repo
	}
}

// BookWithFileRepository sets the file repository
func BookWithFileRepository(repo *repository.FileRepository) BookServiceOption {
	return func(s *BookService) {
		s.fileRepo = repo
	}
}

// BookWithStorage sets the document storage backend
func BookWithStorage(st storage.Storage) BookServiceOption {
	return func(s *BookService) {
		s.fileStorage = st
	}
}

// BookWithRegistry sets the jurisdiction registry
func BookWithRegistry(reg jurisdiction.Registry) BookServiceOption {
	return func(s *BookService) {
		s.registry = reg
	}
}

// BookWithClock sets the time source (tests pin it)
func BookWithClock(now func() time.Time) BookServiceOption {
	return func(s *BookService) {
		s.now = now
	}
}

// NewBookService creates a new book service
func NewBookService(opts ...BookServiceOption) *BookService {
	s := &BookService{
		registry:   jurisdiction.NewRegistry(),
		quality:    NewQualityAssessor(),
		duplicates: NewDuplicateDetector(),
		conflicts:  NewConflictDetector(),
		assembler:  NewExhibitAssembler(),
		compliance: NewComplianceChecker(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateBookRequest represents a request to generate a book
type GenerateBookRequest struct {
	CaseID uuid.UUID
	UserID *uuid.UUID // when set, ownership is verified
}

// GenerateBookResult represents the result of creating a generation job
type GenerateBookResult struct {
	JobID uuid.UUID
}

// GenerateBook validates the case, creates the generation job, and
// returns immediately; ProcessBook does the work in the background.
func (s *BookService) GenerateBook(ctx context.Context, req GenerateBookRequest) (*GenerateBookResult, error) {
	if s.caseRepo == nil {
		return nil, errors.New("case repository not set")
	}
	if s.jobRepo == nil {
		return nil, errors.New("generation job repository not set")
	}

	c, err := s.caseRepo.GetByID(ctx, req.CaseID)
	if err != nil {
		return nil, ErrCaseNotFound
	}

	if req.UserID != nil && c.UserID != *req.UserID {
		return nil, ErrAccessDenied
	}

	if c.Profile.Province == "" {
		return nil, ErrMissingRequiredData
	}
	if c.Profile.Description == "" {
		return nil, ErrMissingRequiredData
	}

	job := &models.GenerationJob{
		CaseID: req.CaseID,
		Status: models.JobStatusPending,
		Steps:  initializeSteps(),
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, ErrJobCreationFailed
	}

	return &GenerateBookResult{JobID: job.ID}, nil
}

func initializeSteps() models.GenerationSteps {
	names := []string{stepQuality, stepDetectors, stepAssembly, stepCompliance, stepFinalize}
	steps := make(models.GenerationSteps, 0, len(names))
	for _, name := range names {
		steps = append(steps, models.GenerationStep{Name: name, Status: "pending"})
	}
	return steps
}

// GetJobStatusRequest represents a request to get job status
type GetJobStatusRequest struct {
	JobID uuid.UUID
}

// GetJobStatusResult represents the result of getting job status
type GetJobStatusResult struct {
	Job *models.GenerationJob
}

// GetJobStatus retrieves the status of a generation job
func (s *BookService) GetJobStatus(ctx context.Context, req GetJobStatusRequest) (*GetJobStatusResult, error) {
	if s.jobRepo == nil {
		return nil, errors.New("generation job repository not set")
	}

	job, err := s.jobRepo.GetByID(ctx, req.JobID)
	if err != nil {
		return nil, ErrJobNotFound
	}

	return &GetJobStatusResult{Job: job}, nil
}

// GetBookRequest represents a request to fetch a stored book result
type GetBookRequest struct {
	CaseID uuid.UUID
}

// GetBookResult represents the result of fetching a stored book result
type GetBookResult struct {
	Book *models.BookGenerationResult
}

// GetBook retrieves the stored book result for a case
func (s *BookService) GetBook(ctx context.Context, req GetBookRequest) (*GetBookResult, error) {
	if s.bookRepo == nil {
		return nil, errors.New("book repository not set")
	}

	book, err := s.bookRepo.GetByCaseID(ctx, req.CaseID)
	if err != nil {
		return nil, ErrCaseNotFound
	}

	return &GetBookResult{Book: book}, nil
}

// ProcessBook performs the actual generation work in the background.
// Individual quality issues, duplicates, and conflicts are reported in
// the result, never treated as fatal; only missing case data or an
// unrecoverable document fetch fails the job.
func (s *BookService) ProcessBook(ctx context.Context, jobID uuid.UUID) error {
	if s.jobRepo == nil || s.caseRepo == nil || s.evidenceRepo == nil || s.bookRepo == nil {
		return errors.New("book service not fully configured")
	}

	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load generation job: %w", err)
	}

	c, err := s.caseRepo.GetByID(ctx, job.CaseID)
	if err != nil {
		s.markJobFailed(ctx, jobID, "failed to load case: "+err.Error())
		return err
	}

	if err := s.jobRepo.UpdateStatus(ctx, jobID, models.JobStatusInProgress); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	items, err := s.evidenceRepo.ListByCaseID(ctx, job.CaseID)
	if err != nil {
		s.markJobFailed(ctx, jobID, "failed to load evidence: "+err.Error())
		return err
	}
	if len(items) == 0 {
		s.markJobFailed(ctx, jobID, ErrNoEvidence.Error())
		return ErrNoEvidence
	}

	cfg := s.registry.Lookup(c.Profile.Province)

	// Step 1: per-item quality assessment, bounded parallelism.
	if err := s.updateStepStatus(ctx, jobID, stepQuality, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	qualityIssues, err := s.assessAll(ctx, items)
	if err != nil {
		s.markJobFailed(ctx, jobID, err.Error())
		return err
	}

	if err := s.updateStepStatus(ctx, jobID, stepQuality, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	// Step 2: duplicate and conflict detection over the complete set.
	if err := s.updateStepStatus(ctx, jobID, stepDetectors, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	duplicates := s.duplicates.Detect(items)
	conflicts := s.conflicts.Detect(items)
	flagPossibleDuplicates(items, duplicates)

	if err := s.updateStepStatus(ctx, jobID, stepDetectors, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	// Step 3: exhibit assembly.
	if err := s.updateStepStatus(ctx, jobID, stepAssembly, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	assembled := s.assembler.Assemble(items, cfg)

	if err := s.updateStepStatus(ctx, jobID, stepAssembly, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	result := &models.BookGenerationResult{
		CaseID:          c.ID,
		TableOfContents: assembled.TOC,
		Exhibits:        assembled.Exhibits,
		Groups:          assembled.Groups,
		Duplicates:      duplicates,
		Conflicts:       conflicts,
		QualityIssues:   qualityIssues,
		TotalPages:      assembled.TotalPages,
		GeneratedAt:     s.now(),
	}

	s.buildFrontMatter(result, c, cfg)

	// Step 4: compliance check.
	if err := s.updateStepStatus(ctx, jobID, stepCompliance, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	result.Compliance = s.compliance.Check(result, cfg)

	if err := s.updateStepStatus(ctx, jobID, stepCompliance, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	// Step 5: persist the whole result atomically and complete the job.
	if err := s.updateStepStatus(ctx, jobID, stepFinalize, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	if err := s.bookRepo.Upsert(ctx, result); err != nil {
		s.markJobFailed(ctx, jobID, "failed to store book result: "+err.Error())
		return err
	}

	if err := s.updateStepStatus(ctx, jobID, stepFinalize, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	if err := s.jobRepo.Complete(ctx, jobID); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	return nil
}

// assessAll runs quality assessment over every item with bounded
// parallelism, verifying each backing document is still fetchable. A
// fetch failure is the one per-document error that fails the whole run.
func (s *BookService) assessAll(ctx context.Context, items []models.EvidenceItem) ([]models.QualityIssue, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(qualityParallelism)

	flags := make([]models.QualityFlags, len(items))
	for i := range items {
		g.Go(func() error {
			item := &items[i]

			if s.fileStorage != nil && s.fileRepo != nil && item.FileID != nil {
				if err := s.verifyDocument(gctx, item); err != nil {
					return fmt.Errorf("%w: document %s (%s): %v",
						ErrDocumentFetchFailed, item.FileID, item.FileName, err)
				}
			}

			flags[i] = s.quality.Assess(item.MediaType, item.Metadata, item.ExtractedText)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	issues := make([]models.QualityIssue, 0)
	for i := range items {
		items[i].Metadata.QualityFlags = flags[i]
		if len(flags[i].Reasons) > 0 {
			issues = append(issues, models.QualityIssue{
				EvidenceID: items[i].ID,
				FileName:   items[i].FileName,
				Flags:      flags[i],
			})
		}
	}
	return issues, nil
}

// verifyDocument confirms the evidence item's backing document can still
// be fetched from storage.
func (s *BookService) verifyDocument(ctx context.Context, item *models.EvidenceItem) error {
	file, err := s.fileRepo.GetByID(ctx, *item.FileID)
	if err != nil {
		return err
	}
	reader, err := s.fileStorage.Download(ctx, file.StoragePath)
	if err != nil {
		return err
	}
	return reader.Close()
}

// flagPossibleDuplicates marks every item that appears in a duplicate
// pair so its exhibit carries the possible_duplicate flag.
func flagPossibleDuplicates(items []models.EvidenceItem, duplicates []models.DuplicateInfo) {
	flagged := make(map[uuid.UUID]bool, len(duplicates)*2)
	for _, d := range duplicates {
		flagged[d.EvidenceID] = true
		flagged[d.OtherEvidenceID] = true
	}
	for i := range items {
		if flagged[items[i].ID] {
			items[i].Metadata.QualityFlags.PossibleDuplicate = true
		}
	}
}

// buildFrontMatter attaches the cover page and, where the jurisdiction
// requires them, the key-facts and certification pages.
func (s *BookService) buildFrontMatter(result *models.BookGenerationResult, c *models.Case, cfg models.BookConfig) {
	now := s.now()

	if cfg.RequiresCoverPage {
		result.CoverPage = &models.CoverPage{
			TribunalName: cfg.TribunalName,
			Title:        "Book of Documents",
			Province:     c.Profile.Province,
			ExhibitCount: len(result.Exhibits),
			TotalPages:   result.TotalPages,
			PreparedAt:   now,
		}
	}

	if cfg.RequiresKeyFacts {
		incident := "Unknown"
		if c.Profile.IncidentDate != nil {
			incident = c.Profile.IncidentDate.Format("2006-01-02")
		}
		facts := []string{
			fmt.Sprintf("Issue type: %s", c.Profile.IssueType),
			fmt.Sprintf("Evidence items: %d", len(result.Exhibits)),
		}
		result.KeyFacts = &models.KeyFactsPage{
			IssueType:    c.Profile.IssueType,
			IncidentDate: incident,
			Facts:        facts,
		}
	}

	if cfg.RequiresCertification {
		result.Certification = &models.CertificationPage{
			Statement: fmt.Sprintf(
				"I certify that this Book of Documents contains %d exhibits across %d pages and that the contents are true copies of the originals.",
				len(result.Exhibits), result.TotalPages),
			PreparedAt: now,
		}
	}
}

// updateStepStatus updates the status of a specific pipeline step
func (s *BookService) updateStepStatus(ctx context.Context, jobID uuid.UUID, stepName, status string) error {
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
func (s *BookService) markJobFailed(ctx context.Context, jobID uuid.UUID, errorMessage string) {
	if err := s.jobRepo.Fail(ctx, jobID, errorMessage); err != nil {
		log.Printf("Warning: failed to mark job %s as failed: %v", jobID, err)
	}
}
