package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GenerationJobStatus represents the status of a book generation job
type GenerationJobStatus string

const (
	JobStatusPending    GenerationJobStatus = "pending"
	JobStatusInProgress GenerationJobStatus = "in_progress"
	JobStatusCompleted  GenerationJobStatus = "completed"
	JobStatusFailed     GenerationJobStatus = "failed"
)

// GenerationStep represents one step of the book generation pipeline
type GenerationStep struct {
	Name        string `json:"name"`
	Status      string `json:"status"` // "pending", "in_progress", "completed", "failed"
	Description string `json:"description,omitempty"`
}

// GenerationSteps represents the ordered pipeline steps
type GenerationSteps []GenerationStep

// Value implements driver.Valuer for JSONB
func (g GenerationSteps) Value() (driver.Value, error) {
	return json.Marshal(g)
}

// Scan implements sql.Scanner for JSONB
func (g *GenerationSteps) Scan(value interface{}) error {
	if value == nil {
		*g = make(GenerationSteps, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*g = make(GenerationSteps, 0)
		return nil
	}

	if len(bytes) == 0 {
		*g = make(GenerationSteps, 0)
		return nil
	}

	return json.Unmarshal(bytes, g)
}

// GenerationJob represents a book generation job entity. A job moves from
// pending to in_progress and ends completed or failed; a failed job carries
// the message (and, when a document fetch failed, the document's identifier).
type GenerationJob struct {
	ID           uuid.UUID           `json:"id"`
	CaseID       uuid.UUID           `json:"case_id"`
	Status       GenerationJobStatus `json:"status"`
	CurrentStep  *string             `json:"current_step,omitempty"`
	Steps        GenerationSteps     `json:"steps"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
}
