package service

import (
	"fmt"
	"strings"

	"casebook-backend/models"

	"github.com/google/uuid"
)

// Content-similarity duplicate detection parameters. Items with less
// extracted text than the floor are skipped so near-empty OCR output
// does not pair everything with everything.
const (
	similarityThreshold = 0.85
	similarityShingle   = 3
	similarityTextFloor = 50
)

// DuplicateDetector finds pairwise duplicates across an evidence set.
// Exact matches come from content hashes; near matches from token-shingle
// similarity over the extracted text.
type DuplicateDetector struct{}

// NewDuplicateDetector creates a duplicate detector.
func NewDuplicateDetector() *DuplicateDetector {
	return &DuplicateDetector{}
}

// Detect reports each duplicate pair once. Items lacking a content hash
// are never hash-flagged; the relation is symmetric, so detection order
// does not change the reported pairs.
func (d *DuplicateDetector) Detect(items []models.EvidenceItem) []models.DuplicateInfo {
	duplicates := make([]models.DuplicateInfo, 0)

	seen := make(map[string]*models.EvidenceItem, len(items))
	hashed := make(map[uuid.UUID]bool, len(items))
	for i := range items {
		item := &items[i]
		hash := item.Metadata.ContentHash
		if hash == "" {
			continue
		}
		if first, ok := seen[hash]; ok {
			duplicates = append(duplicates, models.DuplicateInfo{
				EvidenceID:      first.ID,
				OtherEvidenceID: item.ID,
				FileName:        first.FileName,
				OtherFileName:   item.FileName,
				MatchType:       models.MatchTypeHash,
				Confidence:      1.0,
			})
			hashed[first.ID] = true
			hashed[item.ID] = true
			continue
		}
		seen[hash] = item
	}

	// Near-duplicate pass over pairs not already hash-matched.
	for i := 0; i < len(items); i++ {
		a := shingles(items[i].ExtractedText)
		if a == nil {
			continue
		}
		for j := i + 1; j < len(items); j++ {
			if hashed[items[i].ID] && hashed[items[j].ID] {
				continue
			}
			b := shingles(items[j].ExtractedText)
			if b == nil {
				continue
			}
			sim := jaccard(a, b)
			if sim >= similarityThreshold {
				duplicates = append(duplicates, models.DuplicateInfo{
					EvidenceID:      items[i].ID,
					OtherEvidenceID: items[j].ID,
					FileName:        items[i].FileName,
					OtherFileName:   items[j].FileName,
					MatchType:       models.MatchTypeContentSimilarity,
					Confidence:      sim,
				})
			}
		}
	}

	return duplicates
}

// shingles returns the set of overlapping word n-grams of the text, or
// nil when the text is too short to compare safely.
func shingles(text string) map[string]bool {
	if len(strings.TrimSpace(text)) < similarityTextFloor {
		return nil
	}
	words := strings.Fields(strings.ToLower(text))
	if len(words) < similarityShingle {
		return nil
	}
	set := make(map[string]bool, len(words))
	for i := 0; i+similarityShingle <= len(words); i++ {
		set[strings.Join(words[i:i+similarityShingle], " ")] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	intersection := 0
	for s := range small {
		if large[s] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// ConflictDetector finds evidence pairs that share the same event date
// and document type. Two "rent receipts" dated the same day cannot both
// stand without explanation.
type ConflictDetector struct{}

// NewConflictDetector creates a conflict detector.
func NewConflictDetector() *ConflictDetector {
	return &ConflictDetector{}
}

// Detect reports each conflicting pair once. Items missing a date or a
// document type cannot conflict by definition and are excluded.
func (d *ConflictDetector) Detect(items []models.EvidenceItem) []models.ConflictInfo {
	conflicts := make([]models.ConflictInfo, 0)

	type key struct {
		date    string
		docType string
	}
	seen := make(map[key]*models.EvidenceItem, len(items))

	for i := range items {
		item := &items[i]
		if item.Metadata.EventDate == nil || item.Metadata.DocType == "" {
			continue
		}
		k := key{
			date:    item.Metadata.EventDate.Format("2006-01-02"),
			docType: item.Metadata.DocType,
		}
		if first, ok := seen[k]; ok {
			conflicts = append(conflicts, models.ConflictInfo{
				EvidenceID:      first.ID,
				OtherEvidenceID: item.ID,
				ConflictType:    models.ConflictSameDateSameType,
				Description: fmt.Sprintf("%q and %q are both %s documents dated %s",
					first.FileName, item.FileName, item.Metadata.DocType, k.date),
			})
			continue
		}
		seen[k] = item
	}

	return conflicts
}
