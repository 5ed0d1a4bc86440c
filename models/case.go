package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CaseStatus represents the lifecycle status of a case
type CaseStatus string

const (
	CaseStatusDraft    CaseStatus = "draft"
	CaseStatusPending  CaseStatus = "pending"
	CaseStatusComplete CaseStatus = "complete"
	CaseStatusError    CaseStatus = "error"
)

// CaseProfile holds the immutable facts the scoring engine consumes.
// Derived from intake; never mutated by the scorer or the assembler.
type CaseProfile struct {
	Province      string     `json:"province"`
	Venue         string     `json:"venue"`
	IssueType     string     `json:"issue_type"`
	Description   string     `json:"description"`
	IncidentDate  *time.Time `json:"incident_date,omitempty"`
	FilingDeadline *time.Time `json:"filing_deadline,omitempty"`
	CaseAgeDays   int        `json:"case_age_days"`
	TriageComplete bool      `json:"triage_complete"`
	LawSection    *string    `json:"law_section,omitempty"`
}

// Value implements driver.Valuer for JSONB
func (p CaseProfile) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB
func (p *CaseProfile) Scan(value interface{}) error {
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

	return json.Unmarshal(bytes, p)
}

// Case represents a case entity
type Case struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"user_id"`
	Status       CaseStatus  `json:"status"`
	Profile      CaseProfile `json:"profile"`
	ErrorMessage *string     `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}

// AgeDays returns the case age in days, preferring the recorded incident
// date over the intake-supplied value when both exist.
func (c *Case) AgeDays(now time.Time) int {
	if c.Profile.IncidentDate != nil {
		days := int(now.Sub(*c.Profile.IncidentDate).Hours() / 24)
		if days < 0 {
			return 0
		}
		return days
	}
	return c.Profile.CaseAgeDays
}
