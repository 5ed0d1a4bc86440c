package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Duplicate match types
const (
	MatchTypeHash              = "hash"
	MatchTypeContentSimilarity = "content_similarity"
)

// Conflict types
const (
	ConflictSameDateSameType = "same_date_same_type"
)

// DuplicateInfo is a pairwise duplicate relation between two evidence
// items. The relation is symmetric; each pair is reported once.
type DuplicateInfo struct {
	EvidenceID      uuid.UUID `json:"evidence_id"`
	OtherEvidenceID uuid.UUID `json:"other_evidence_id"`
	FileName        string    `json:"file_name"`
	OtherFileName   string    `json:"other_file_name"`
	MatchType       string    `json:"match_type"`
	Confidence      float64   `json:"confidence"`
}

// ConflictInfo is a pairwise conflict relation between two evidence items.
type ConflictInfo struct {
	EvidenceID      uuid.UUID `json:"evidence_id"`
	OtherEvidenceID uuid.UUID `json:"other_evidence_id"`
	ConflictType    string    `json:"conflict_type"`
	Description     string    `json:"description"`
}

// QualityIssue surfaces an evidence item whose quality flags warrant
// reviewer attention in the generated book.
type QualityIssue struct {
	EvidenceID uuid.UUID    `json:"evidence_id"`
	FileName   string       `json:"file_name"`
	Flags      QualityFlags `json:"flags"`
}

// ExhibitItem is one labeled exhibit in the assembled book. Derived
// entirely from an evidence item plus its position in the assembled
// sequence; regenerated whenever the evidence set or ordering changes.
type ExhibitItem struct {
	EvidenceID     uuid.UUID    `json:"evidence_id"`
	Label          string       `json:"label"`
	Title          string       `json:"title"`
	Category       string       `json:"category"`
	Date           *time.Time   `json:"date,omitempty"`
	PageStart      int          `json:"page_start"`
	PageEnd        int          `json:"page_end"`
	Description    string       `json:"description"`
	GroupKey       string       `json:"group_key"`
	QualityFlags   QualityFlags `json:"quality_flags"`
	ImportanceTier string       `json:"importance_tier"`
}

// TOCEntry is one line of the table of contents. Group headers carry
// IsGroupHeader=true and no page reference.
type TOCEntry struct {
	Label         string `json:"label,omitempty"`
	Title         string `json:"title"`
	Category      string `json:"category,omitempty"`
	DateDisplay   string `json:"date_display,omitempty"`
	PageReference string `json:"page_reference,omitempty"`
	IsGroupHeader bool   `json:"is_group_header"`
}

// CoverPage is the display-ready front matter of a book.
type CoverPage struct {
	TribunalName string    `json:"tribunal_name"`
	Title        string    `json:"title"`
	Province     string    `json:"province"`
	ExhibitCount int       `json:"exhibit_count"`
	TotalPages   int       `json:"total_pages"`
	PreparedAt   time.Time `json:"prepared_at"`
}

// KeyFactsPage summarizes the case for tribunals that require one.
type KeyFactsPage struct {
	IssueType    string   `json:"issue_type"`
	IncidentDate string   `json:"incident_date"`
	Facts        []string `json:"facts"`
}

// CertificationPage is the signed truth-of-contents statement tribunals
// that require certification expect at the back of the book.
type CertificationPage struct {
	Statement  string    `json:"statement"`
	PreparedAt time.Time `json:"prepared_at"`
}

// ComplianceSummary records the outcome of validating an assembled book
// against its jurisdiction's structural rules. Issues block; warnings
// advise. RulesApplied lists every rule actually evaluated.
type ComplianceSummary struct {
	IsCompliant  bool     `json:"is_compliant"`
	Issues       []string `json:"issues"`
	Warnings     []string `json:"warnings"`
	RulesApplied []string `json:"rules_applied"`
}

// BookGenerationResult is the terminal, display-ready artifact of a book
// generation run. Recomputed on demand; regeneration always replaces the
// whole result.
type BookGenerationResult struct {
	CaseID          uuid.UUID                `json:"case_id"`
	CoverPage       *CoverPage               `json:"cover_page,omitempty"`
	KeyFacts        *KeyFactsPage            `json:"key_facts,omitempty"`
	Certification   *CertificationPage       `json:"certification,omitempty"`
	TableOfContents []TOCEntry               `json:"table_of_contents"`
	Exhibits        []ExhibitItem            `json:"exhibits"`
	Groups          map[string][]ExhibitItem `json:"groups"`
	Duplicates      []DuplicateInfo          `json:"duplicates"`
	Conflicts       []ConflictInfo           `json:"conflicts"`
	QualityIssues   []QualityIssue           `json:"quality_issues"`
	Compliance      ComplianceSummary        `json:"compliance"`
	TotalPages      int                      `json:"total_pages"`
	GeneratedAt     time.Time                `json:"generated_at"`
}

// Value implements driver.Valuer for JSONB
func (b BookGenerationResult) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan implements sql.Scanner for JSONB
func (b *BookGenerationResult) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	if len(bytes) == 0 {
		return nil
	}

	return json.Unmarshal(bytes, b)
}
