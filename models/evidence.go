package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// QualityFlags holds quality findings derived from a single piece of
// evidence. Recomputed whenever the underlying metadata changes; never
// persisted apart from its evidence item.
type QualityFlags struct {
	BlurryImage       bool     `json:"blurry_image"`
	MissingDate       bool     `json:"missing_date"`
	LowTextConfidence bool     `json:"low_text_confidence"`
	PossibleDuplicate bool     `json:"possible_duplicate"`
	NeedsReplacement  bool     `json:"needs_replacement"`
	Reasons           []string `json:"reasons"`
}

// EvidenceMetadata is the canonical shape of a piece of evidence after
// external extraction (OCR, date detection, document classification).
type EvidenceMetadata struct {
	EventDate    *time.Time   `json:"event_date,omitempty"`
	DateUnknown  bool         `json:"date_unknown"`
	DocType      string       `json:"doc_type"`
	SourceParty  string       `json:"source_party,omitempty"`
	Confidence   float64      `json:"confidence"`
	PageCount    int          `json:"page_count"`
	ContentHash  string       `json:"content_hash,omitempty"`
	QualityFlags QualityFlags `json:"quality_flags"`
}

// Value implements driver.Valuer for JSONB
func (m EvidenceMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB
func (m *EvidenceMetadata) Scan(value interface{}) error {
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

	return json.Unmarshal(bytes, m)
}

// EvidenceItem represents a piece of evidence owned by a case. Created on
// upload, updated on re-analysis. The scorer and the assembler only read
// it and produce derived records.
type EvidenceItem struct {
	ID            uuid.UUID        `json:"id"`
	CaseID        uuid.UUID        `json:"case_id"`
	FileID        *uuid.UUID       `json:"file_id,omitempty"`
	FileName      string           `json:"file_name"`
	MediaType     string           `json:"media_type"`
	Description   string           `json:"description"`
	ExtractedText string           `json:"extracted_text"`
	Tags          []string         `json:"tags"`
	Metadata      EvidenceMetadata `json:"metadata"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// IsImage reports whether the underlying file is an image type.
func (e *EvidenceItem) IsImage() bool {
	return len(e.MediaType) >= 6 && e.MediaType[:6] == "image/"
}
