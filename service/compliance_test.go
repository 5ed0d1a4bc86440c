package service

import (
	"strings"
	"testing"
	"time"

	"casebook-backend/jurisdiction"
	"casebook-backend/models"

	"github.com/google/uuid"
)

func compliantBook() *models.BookGenerationResult {
	d := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	return &models.BookGenerationResult{
		CaseID:    uuid.New(),
		CoverPage: &models.CoverPage{TribunalName: "Landlord and Tenant Board"},
		Certification: &models.CertificationPage{
			Statement: "I certify that the contents are true copies.",
		},
		TableOfContents: []models.TOCEntry{{Label: "Exhibit A", Title: "Exhibit A"}},
		Exhibits: []models.ExhibitItem{
			{EvidenceID: uuid.New(), Label: "Exhibit A", Date: &d, PageStart: 1, PageEnd: 2},
		},
		TotalPages: 2,
	}
}

func ontarioConfig() models.BookConfig {
	return jurisdiction.NewRegistry().Lookup("ON")
}

func TestCheckCompliantBook(t *testing.T) {
	c := NewComplianceChecker()

	summary := c.Check(compliantBook(), ontarioConfig())
	if !summary.IsCompliant {
		t.Errorf("expected compliant, got issues %v", summary.Issues)
	}
	if len(summary.RulesApplied) == 0 {
		t.Error("rules_applied should record the evaluated rules")
	}
}

func TestCheckMaxPagesExceeded(t *testing.T) {
	c := NewComplianceChecker()

	book := compliantBook()
	book.TotalPages = 301

	summary := c.Check(book, ontarioConfig())
	if summary.IsCompliant {
		t.Error("expected non-compliant when over the page cap")
	}
	found := false
	for _, issue := range summary.Issues {
		if strings.Contains(issue, "301") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a page-cap issue naming the count, got %v", summary.Issues)
	}
}

func TestCheckMissingCertification(t *testing.T) {
	c := NewComplianceChecker()

	book := compliantBook()
	book.Certification = nil

	summary := c.Check(book, ontarioConfig())
	if summary.IsCompliant {
		t.Error("Ontario requires certification; expected non-compliant")
	}
}

func TestCheckCertificationNotRequired(t *testing.T) {
	c := NewComplianceChecker()

	book := compliantBook()
	book.Certification = nil
	book.KeyFacts = &models.KeyFactsPage{IssueType: "repairs"}

	cfg := jurisdiction.NewRegistry().Lookup("BC")
	summary := c.Check(book, cfg)
	if !summary.IsCompliant {
		t.Errorf("BC does not require certification; got issues %v", summary.Issues)
	}
	for _, rule := range summary.RulesApplied {
		if rule == RuleCertification {
			t.Error("certification rule should not be evaluated for BC")
		}
	}
}

func TestCheckChronologicalViolation(t *testing.T) {
	c := NewComplianceChecker()
	early := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	book := compliantBook()
	book.Exhibits = []models.ExhibitItem{
		{EvidenceID: uuid.New(), Label: "Exhibit A", Date: &late},
		{EvidenceID: uuid.New(), Label: "Exhibit B", Date: &early},
	}

	summary := c.Check(book, ontarioConfig())
	if summary.IsCompliant {
		t.Error("out-of-order exhibits should fail a chronological jurisdiction")
	}
}

func TestCheckUndatedMustTrail(t *testing.T) {
	c := NewComplianceChecker()
	d := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	book := compliantBook()
	book.Exhibits = []models.ExhibitItem{
		{EvidenceID: uuid.New(), Label: "Exhibit A", Date: nil},
		{EvidenceID: uuid.New(), Label: "Exhibit B", Date: &d},
	}

	summary := c.Check(book, ontarioConfig())
	if summary.IsCompliant {
		t.Error("an undated exhibit before dated ones should fail chronological ordering")
	}
}

func TestCheckAdvisoryWarnings(t *testing.T) {
	c := NewComplianceChecker()

	book := compliantBook()
	book.Duplicates = []models.DuplicateInfo{{MatchType: models.MatchTypeHash, Confidence: 1.0}}
	book.QualityIssues = []models.QualityIssue{{FileName: "blurry.jpg"}}

	summary := c.Check(book, ontarioConfig())
	if !summary.IsCompliant {
		t.Errorf("duplicates and quality flags are advisory, got issues %v", summary.Issues)
	}
	if len(summary.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %d: %v", len(summary.Warnings), summary.Warnings)
	}
}
