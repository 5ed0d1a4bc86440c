package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MeritVariant selects which scoring model produced a result
type MeritVariant string

const (
	VariantHeuristic MeritVariant = "heuristic"
	VariantFormal    MeritVariant = "formal"
)

// MeritBand buckets a total score into a human-readable strength band
type MeritBand string

const (
	BandVeryStrong MeritBand = "Very Strong"
	BandStrong     MeritBand = "Strong"
	BandModerate   MeritBand = "Moderate"
	BandFair       MeritBand = "Fair"
	BandWeak       MeritBand = "Weak"
)

// BandForScore maps a clamped total score to its band.
// Thresholds are inclusive on the lower bound.
func BandForScore(score int) MeritBand {
	switch {
	case score >= 80:
		return BandVeryStrong
	case score >= 65:
		return BandStrong
	case score >= 50:
		return BandModerate
	case score >= 35:
		return BandFair
	default:
		return BandWeak
	}
}

// MeritComponents holds the per-component scores. The heuristic variant
// fills evidence/legal/timeline/pattern/risk; the formal variant fills
// path_fit/elements/evidence/case_law/penalty. Each field is clamped to
// its declared range before summation.
type MeritComponents struct {
	Evidence int `json:"evidence"` // 0..40 heuristic, 0..25 formal
	Legal    int `json:"legal"`    // 0..25
	Timeline int `json:"timeline"` // 0..15
	Pattern  int `json:"pattern"`  // 0..10
	Risk     int `json:"risk"`     // -10..0
	PathFit  int `json:"path_fit"` // 0..15
	Elements int `json:"elements"` // 0..25
	CaseLaw  int `json:"case_law"` // 0..25
	Penalty  int `json:"penalty"`  // -15..0
}

// Value implements driver.Valuer for JSONB
func (c MeritComponents) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB
func (c *MeritComponents) Scan(value interface{}) error {
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

	return json.Unmarshal(bytes, c)
}

// MeritResult is the terminal scoring artifact for a case. Computed fresh
// on every invocation as a pure function of the case profile, the evidence
// set, and the analysis capability's output; persisted by whole-row upsert.
type MeritResult struct {
	CaseID     uuid.UUID       `json:"case_id"`
	Variant    MeritVariant    `json:"variant"`
	TotalScore int             `json:"total_score"`
	Band       MeritBand       `json:"band"`
	Components MeritComponents `json:"components"`
	Strengths  []string        `json:"strengths"`
	Weaknesses []string        `json:"weaknesses"`
	Gaps       []string        `json:"gaps"`
	Notes      []string        `json:"notes,omitempty"`
	ComputedAt time.Time       `json:"computed_at"`
}
