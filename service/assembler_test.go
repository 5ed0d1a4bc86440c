package service

import (
	"reflect"
	"testing"
	"time"

	"casebook-backend/models"

	"github.com/google/uuid"
)

func assemblyConfig(format models.ExhibitLabelFormat) models.BookConfig {
	return models.BookConfig{
		Province:           "ON",
		TribunalName:       "Landlord and Tenant Board",
		ExhibitLabelFormat: format,
	}
}

func pagedItem(name string, date *time.Time, pages int) models.EvidenceItem {
	return models.EvidenceItem{
		ID:       uuid.New(),
		FileName: name,
		Metadata: models.EvidenceMetadata{EventDate: date, DocType: "correspondence", PageCount: pages},
	}
}

func TestAssembleChronologicalUndatedLast(t *testing.T) {
	a := NewExhibitAssembler()
	jan := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

	items := []models.EvidenceItem{
		pagedItem("march.pdf", &mar, 1),
		pagedItem("mystery.pdf", nil, 1),
		pagedItem("january.pdf", &jan, 1),
	}

	book := a.Assemble(items, assemblyConfig(models.LabelAlphabetical))
	if len(book.Exhibits) != 3 {
		t.Fatalf("expected 3 exhibits, got %d", len(book.Exhibits))
	}

	order := []string{"january.pdf", "march.pdf", "mystery.pdf"}
	for i, want := range order {
		got := ""
		for _, item := range items {
			if item.ID == book.Exhibits[i].EvidenceID {
				got = item.FileName
			}
		}
		if got != want {
			t.Errorf("position %d: got %s, want %s", i, got, want)
		}
	}
}

func TestAssembleContiguousPagination(t *testing.T) {
	a := NewExhibitAssembler()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	items := make([]models.EvidenceItem, 0, 4)
	pageCounts := []int{3, 1, 5, 2}
	for i, pages := range pageCounts {
		d := base.AddDate(0, 0, i)
		items = append(items, pagedItem("doc.pdf", &d, pages))
	}

	book := a.Assemble(items, assemblyConfig(models.LabelAlphabetical))

	if book.Exhibits[0].PageStart != 1 {
		t.Errorf("first exhibit starts at page %d, want 1", book.Exhibits[0].PageStart)
	}
	for i := 1; i < len(book.Exhibits); i++ {
		prev, cur := book.Exhibits[i-1], book.Exhibits[i]
		if cur.PageStart != prev.PageEnd+1 {
			t.Errorf("exhibit %d starts at page %d, want %d", i, cur.PageStart, prev.PageEnd+1)
		}
	}
	if book.TotalPages != 11 {
		t.Errorf("total pages = %d, want 11", book.TotalPages)
	}
}

func TestAssembleZeroPageCountDefaultsToOne(t *testing.T) {
	a := NewExhibitAssembler()
	d := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	book := a.Assemble([]models.EvidenceItem{pagedItem("doc.pdf", &d, 0)}, assemblyConfig(models.LabelAlphabetical))
	if book.Exhibits[0].PageStart != 1 || book.Exhibits[0].PageEnd != 1 {
		t.Errorf("zero page count: got pages %d-%d, want 1-1",
			book.Exhibits[0].PageStart, book.Exhibits[0].PageEnd)
	}
}

func TestExhibitLabels(t *testing.T) {
	tests := []struct {
		index  int
		format models.ExhibitLabelFormat
		want   string
	}{
		{0, models.LabelAlphabetical, "Exhibit A"},
		{25, models.LabelAlphabetical, "Exhibit Z"},
		{26, models.LabelAlphabetical, "Exhibit AA"},
		{51, models.LabelAlphabetical, "Exhibit AZ"},
		{52, models.LabelAlphabetical, "Exhibit BA"},
		{701, models.LabelAlphabetical, "Exhibit ZZ"},
		{702, models.LabelAlphabetical, "Exhibit AAA"},
		{0, models.LabelNumerical, "Exhibit 1"},
		{99, models.LabelNumerical, "Exhibit 100"},
	}

	for _, tt := range tests {
		if got := exhibitLabel(tt.index, tt.format); got != tt.want {
			t.Errorf("exhibitLabel(%d, %s) = %q, want %q", tt.index, tt.format, got, tt.want)
		}
	}
}

func TestAssembleLabelsUnique(t *testing.T) {
	a := NewExhibitAssembler()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	items := make([]models.EvidenceItem, 0, 30)
	for i := 0; i < 30; i++ {
		d := base.AddDate(0, 0, i)
		items = append(items, pagedItem("doc.pdf", &d, 1))
	}

	book := a.Assemble(items, assemblyConfig(models.LabelAlphabetical))
	seen := make(map[string]bool, len(book.Exhibits))
	for _, ex := range book.Exhibits {
		if seen[ex.Label] {
			t.Errorf("duplicate label %q", ex.Label)
		}
		seen[ex.Label] = true
	}
}

func TestAssembleGroupsPartitionExhibits(t *testing.T) {
	a := NewExhibitAssembler()
	jan := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	alsoJan := time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	items := []models.EvidenceItem{
		pagedItem("a.pdf", &jan, 1),
		pagedItem("b.pdf", &alsoJan, 1),
		pagedItem("c.pdf", &feb, 1),
		pagedItem("d.pdf", nil, 1),
	}

	book := a.Assemble(items, assemblyConfig(models.LabelAlphabetical))

	total := 0
	for _, group := range book.Groups {
		total += len(group)
	}
	if total != len(book.Exhibits) {
		t.Errorf("groups hold %d exhibits, want %d", total, len(book.Exhibits))
	}
	if len(book.Groups["January 2026"]) != 2 {
		t.Errorf("January 2026 group has %d exhibits, want 2", len(book.Groups["January 2026"]))
	}
	if len(book.Groups["undated"]) != 1 {
		t.Errorf("undated group has %d exhibits, want 1", len(book.Groups["undated"]))
	}
}

func TestAssembleTOCHasGroupHeaders(t *testing.T) {
	a := NewExhibitAssembler()
	jan := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	items := []models.EvidenceItem{
		pagedItem("a.pdf", &jan, 2),
		pagedItem("b.pdf", &feb, 1),
	}

	book := a.Assemble(items, assemblyConfig(models.LabelAlphabetical))

	headers := 0
	entries := 0
	for _, e := range book.TOC {
		if e.IsGroupHeader {
			headers++
		} else {
			entries++
		}
	}
	if headers != 2 {
		t.Errorf("TOC has %d group headers, want 2", headers)
	}
	if entries != 2 {
		t.Errorf("TOC has %d exhibit entries, want 2", entries)
	}

	if book.TOC[1].PageReference != "pp. 1–2" {
		t.Errorf("multi-page reference = %q, want %q", book.TOC[1].PageReference, "pp. 1–2")
	}
	if book.TOC[3].PageReference != "p. 3" {
		t.Errorf("single-page reference = %q, want %q", book.TOC[3].PageReference, "p. 3")
	}
}

func TestAssembleDeterministic(t *testing.T) {
	a := NewExhibitAssembler()
	jan := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	items := []models.EvidenceItem{
		pagedItem("a.pdf", &jan, 2),
		pagedItem("b.pdf", nil, 1),
	}

	first := a.Assemble(items, assemblyConfig(models.LabelAlphabetical))
	second := a.Assemble(items, assemblyConfig(models.LabelAlphabetical))
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different books")
	}
}

func TestSmartTitle(t *testing.T) {
	d := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	item := models.EvidenceItem{
		Metadata: models.EvidenceMetadata{EventDate: &d, DocType: "eviction_notice", SourceParty: "Landlord"},
	}
	want := "Exhibit A — Eviction Notice — 2026-03-10 — Landlord"
	if got := smartTitle("Exhibit A", &item); got != want {
		t.Errorf("smartTitle = %q, want %q", got, want)
	}

	bare := models.EvidenceItem{Metadata: models.EvidenceMetadata{DocType: "witness_statement"}}
	want = "Exhibit B — Witness Statement — Date Unknown"
	if got := smartTitle("Exhibit B", &bare); got != want {
		t.Errorf("smartTitle = %q, want %q", got, want)
	}
}
