package service

import (
	"fmt"
	"strings"

	"casebook-backend/models"
)

// Minimum extracted-text length below which an image is presumed blurry.
const blurryTextThreshold = 50

// Confidence below which extraction output is flagged as unreliable.
const lowConfidenceThreshold = 0.70

// QualityAssessor derives quality flags from one evidence item's metadata
// and extracted text. Rules are applied independently and accumulated;
// there are no error conditions, missing inputs simply set more flags.
type QualityAssessor struct{}

// NewQualityAssessor creates a quality assessor.
func NewQualityAssessor() *QualityAssessor {
	return &QualityAssessor{}
}

// Assess computes the quality flags for a single evidence item.
func (q *QualityAssessor) Assess(mediaType string, meta models.EvidenceMetadata, extractedText string) models.QualityFlags {
	flags := models.QualityFlags{Reasons: []string{}}

	if meta.EventDate == nil {
		flags.MissingDate = true
		flags.Reasons = append(flags.Reasons, "No document date detected")
	}

	if meta.Confidence < lowConfidenceThreshold {
		flags.LowTextConfidence = true
		flags.Reasons = append(flags.Reasons,
			fmt.Sprintf("Text extraction confidence is low (%d%%)", int(meta.Confidence*100+0.5)))
	}

	if strings.HasPrefix(mediaType, "image/") && len(strings.TrimSpace(extractedText)) < blurryTextThreshold {
		flags.BlurryImage = true
		flags.Reasons = append(flags.Reasons, "Image may be blurry or unreadable")
	}

	// Two or more independent findings make the item a replacement
	// candidate. Purely advisory.
	if len(flags.Reasons) >= 2 {
		flags.NeedsReplacement = true
	}

	return flags
}
