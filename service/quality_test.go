package service

import (
	"strings"
	"testing"
	"time"

	"casebook-backend/models"
)

func TestAssessMissingDate(t *testing.T) {
	q := NewQualityAssessor()

	flags := q.Assess("application/pdf", models.EvidenceMetadata{Confidence: 0.95}, strings.Repeat("x ", 100))
	if !flags.MissingDate {
		t.Error("expected missing_date flag when no event date is set")
	}
	if flags.NeedsReplacement {
		t.Error("one finding alone should not mark the item for replacement")
	}

	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	flags = q.Assess("application/pdf", models.EvidenceMetadata{EventDate: &date, Confidence: 0.95}, strings.Repeat("x ", 100))
	if flags.MissingDate {
		t.Error("missing_date flag set despite a present event date")
	}
	if len(flags.Reasons) != 0 {
		t.Errorf("expected no reasons, got %v", flags.Reasons)
	}
}

func TestAssessLowConfidence(t *testing.T) {
	q := NewQualityAssessor()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		confidence float64
		want       bool
	}{
		{"well below threshold", 0.40, true},
		{"just below threshold", 0.69, true},
		{"at threshold", 0.70, false},
		{"above threshold", 0.95, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := q.Assess("application/pdf",
				models.EvidenceMetadata{EventDate: &date, Confidence: tt.confidence},
				strings.Repeat("word ", 50))
			if flags.LowTextConfidence != tt.want {
				t.Errorf("confidence %.2f: low_text_confidence = %v, want %v",
					tt.confidence, flags.LowTextConfidence, tt.want)
			}
		})
	}
}

func TestAssessBlurryImage(t *testing.T) {
	q := NewQualityAssessor()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	meta := models.EvidenceMetadata{EventDate: &date, Confidence: 0.9}

	flags := q.Assess("image/jpeg", meta, "short")
	if !flags.BlurryImage {
		t.Error("expected blurry_image flag for an image with almost no extracted text")
	}

	flags = q.Assess("image/jpeg", meta, strings.Repeat("legible text ", 20))
	if flags.BlurryImage {
		t.Error("blurry_image flag set for an image with ample extracted text")
	}

	// The text-length rule only applies to images.
	flags = q.Assess("application/pdf", meta, "short")
	if flags.BlurryImage {
		t.Error("blurry_image flag set for a non-image document")
	}
}

func TestAssessNeedsReplacement(t *testing.T) {
	q := NewQualityAssessor()

	// No date, low confidence, blurry: three findings.
	flags := q.Assess("image/png", models.EvidenceMetadata{Confidence: 0.2}, "")
	if !flags.NeedsReplacement {
		t.Error("expected needs_replacement with multiple findings")
	}
	if len(flags.Reasons) != 3 {
		t.Errorf("expected 3 reasons, got %d: %v", len(flags.Reasons), flags.Reasons)
	}
}
