package service

import (
	"strings"
	"testing"
	"time"

	"casebook-backend/models"

	"github.com/google/uuid"
)

func evidenceWithHash(name, hash string) models.EvidenceItem {
	return models.EvidenceItem{
		ID:       uuid.New(),
		FileName: name,
		Metadata: models.EvidenceMetadata{ContentHash: hash},
	}
}

func TestDetectHashDuplicates(t *testing.T) {
	d := NewDuplicateDetector()

	a := evidenceWithHash("lease.pdf", "abc123")
	b := evidenceWithHash("lease_copy.pdf", "abc123")
	c := evidenceWithHash("receipt.pdf", "def456")

	dups := d.Detect([]models.EvidenceItem{a, b, c})
	if len(dups) != 1 {
		t.Fatalf("expected 1 duplicate pair, got %d", len(dups))
	}
	if dups[0].MatchType != models.MatchTypeHash {
		t.Errorf("match type = %s, want %s", dups[0].MatchType, models.MatchTypeHash)
	}
	if dups[0].Confidence != 1.0 {
		t.Errorf("hash match confidence = %v, want 1.0", dups[0].Confidence)
	}
	if dups[0].EvidenceID != a.ID || dups[0].OtherEvidenceID != b.ID {
		t.Error("duplicate pair does not reference the two matching items")
	}
}

func TestDetectEmptyHashesNeverMatch(t *testing.T) {
	d := NewDuplicateDetector()

	a := evidenceWithHash("one.pdf", "")
	b := evidenceWithHash("two.pdf", "")

	dups := d.Detect([]models.EvidenceItem{a, b})
	if len(dups) != 0 {
		t.Errorf("items without content hashes were flagged as duplicates: %v", dups)
	}
}

func TestDetectContentSimilarity(t *testing.T) {
	d := NewDuplicateDetector()

	base := "the landlord entered the unit without any notice on march tenth and removed the tenant's belongings from the hallway closet"

	a := models.EvidenceItem{ID: uuid.New(), FileName: "scan1.pdf", ExtractedText: base}
	b := models.EvidenceItem{ID: uuid.New(), FileName: "scan2.pdf", ExtractedText: base}
	c := models.EvidenceItem{
		ID:            uuid.New(),
		FileName:      "unrelated.pdf",
		ExtractedText: "monthly rent receipt for april showing payment of fifteen hundred dollars received in full by the property manager",
	}

	dups := d.Detect([]models.EvidenceItem{a, b, c})
	if len(dups) != 1 {
		t.Fatalf("expected 1 similarity pair, got %d: %v", len(dups), dups)
	}
	if dups[0].MatchType != models.MatchTypeContentSimilarity {
		t.Errorf("match type = %s, want %s", dups[0].MatchType, models.MatchTypeContentSimilarity)
	}
	if dups[0].Confidence < similarityThreshold {
		t.Errorf("confidence %v below threshold %v", dups[0].Confidence, similarityThreshold)
	}
}

func TestDetectShortTextSkipped(t *testing.T) {
	d := NewDuplicateDetector()

	a := models.EvidenceItem{ID: uuid.New(), FileName: "a.jpg", ExtractedText: "same short text"}
	b := models.EvidenceItem{ID: uuid.New(), FileName: "b.jpg", ExtractedText: "same short text"}

	if dups := d.Detect([]models.EvidenceItem{a, b}); len(dups) != 0 {
		t.Errorf("near-empty extracted text should not produce similarity matches, got %v", dups)
	}
}

func TestDetectOrderIndependence(t *testing.T) {
	d := NewDuplicateDetector()

	a := evidenceWithHash("a.pdf", "h1")
	b := evidenceWithHash("b.pdf", "h1")

	forward := d.Detect([]models.EvidenceItem{a, b})
	reverse := d.Detect([]models.EvidenceItem{b, a})
	if len(forward) != 1 || len(reverse) != 1 {
		t.Fatalf("expected one pair in both orders, got %d and %d", len(forward), len(reverse))
	}

	pair := map[uuid.UUID]bool{forward[0].EvidenceID: true, forward[0].OtherEvidenceID: true}
	if !pair[reverse[0].EvidenceID] || !pair[reverse[0].OtherEvidenceID] {
		t.Error("the reported pair changed with detection order")
	}
}

func TestConflictSameDateSameType(t *testing.T) {
	det := NewConflictDetector()
	date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	otherDate := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)

	a := models.EvidenceItem{
		ID:       uuid.New(),
		FileName: "receipt_feb.pdf",
		Metadata: models.EvidenceMetadata{EventDate: &date, DocType: "rent_receipt"},
	}
	b := models.EvidenceItem{
		ID:       uuid.New(),
		FileName: "receipt_feb_v2.pdf",
		Metadata: models.EvidenceMetadata{EventDate: &date, DocType: "rent_receipt"},
	}
	c := models.EvidenceItem{
		ID:       uuid.New(),
		FileName: "receipt_next_day.pdf",
		Metadata: models.EvidenceMetadata{EventDate: &otherDate, DocType: "rent_receipt"},
	}

	conflicts := det.Detect([]models.EvidenceItem{a, b, c})
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	if conflicts[0].ConflictType != models.ConflictSameDateSameType {
		t.Errorf("conflict type = %s, want %s", conflicts[0].ConflictType, models.ConflictSameDateSameType)
	}
	if !strings.Contains(conflicts[0].Description, "receipt_feb.pdf") ||
		!strings.Contains(conflicts[0].Description, "receipt_feb_v2.pdf") {
		t.Errorf("description should name both files: %s", conflicts[0].Description)
	}
}

func TestConflictRequiresDateAndType(t *testing.T) {
	det := NewConflictDetector()
	date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)

	undatedA := models.EvidenceItem{ID: uuid.New(), Metadata: models.EvidenceMetadata{DocType: "photo"}}
	undatedB := models.EvidenceItem{ID: uuid.New(), Metadata: models.EvidenceMetadata{DocType: "photo"}}
	untypedA := models.EvidenceItem{ID: uuid.New(), Metadata: models.EvidenceMetadata{EventDate: &date}}
	untypedB := models.EvidenceItem{ID: uuid.New(), Metadata: models.EvidenceMetadata{EventDate: &date}}

	if conflicts := det.Detect([]models.EvidenceItem{undatedA, undatedB, untypedA, untypedB}); len(conflicts) != 0 {
		t.Errorf("items missing a date or type cannot conflict, got %v", conflicts)
	}
}
