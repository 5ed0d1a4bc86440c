package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"casebook-backend/models"
)

// AssembledBook is the assembler's output: the ordered exhibits, the
// grouped view, the table of contents, and the total page count. All
// three views are internally consistent: same count, unique labels,
// contiguous pages.
type AssembledBook struct {
	Exhibits   []models.ExhibitItem
	Groups     map[string][]models.ExhibitItem
	TOC        []models.TOCEntry
	TotalPages int
}

// ExhibitAssembler orders, labels, titles, groups, and paginates an
// evidence set into exhibits per a jurisdiction's BookConfig.
type ExhibitAssembler struct{}

// NewExhibitAssembler creates an exhibit assembler.
func NewExhibitAssembler() *ExhibitAssembler {
	return &ExhibitAssembler{}
}

// Assemble produces the exhibit list, group map, and TOC for an evidence
// set. Default ordering is chronological by event date with undated items
// last. Assembly is deterministic: the same input yields byte-identical
// labels, titles, groups, and page numbers.
func (a *ExhibitAssembler) Assemble(items []models.EvidenceItem, cfg models.BookConfig) *AssembledBook {
	ordered := make([]models.EvidenceItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := ordered[i].Metadata.EventDate, ordered[j].Metadata.EventDate
		if di == nil {
			return false
		}
		if dj == nil {
			return true
		}
		return di.Before(*dj)
	})

	book := &AssembledBook{
		Exhibits: make([]models.ExhibitItem, 0, len(ordered)),
		Groups:   make(map[string][]models.ExhibitItem),
		TOC:      make([]models.TOCEntry, 0, len(ordered)),
	}

	nextPage := 1
	prevGroup := ""
	for i := range ordered {
		item := &ordered[i]

		label := exhibitLabel(i, cfg.ExhibitLabelFormat)
		group := groupKey(item.Metadata.EventDate)

		pages := item.Metadata.PageCount
		if pages < 1 {
			pages = 1
		}
		start := nextPage
		end := start + pages - 1
		nextPage = end + 1

		exhibit := models.ExhibitItem{
			EvidenceID:     item.ID,
			Label:          label,
			Title:          smartTitle(label, item),
			Category:       docCategory(item.Metadata.DocType),
			Date:           item.Metadata.EventDate,
			PageStart:      start,
			PageEnd:        end,
			Description:    item.Description,
			GroupKey:       group,
			QualityFlags:   item.Metadata.QualityFlags,
			ImportanceTier: importanceTier(item),
		}

		book.Exhibits = append(book.Exhibits, exhibit)
		book.Groups[group] = append(book.Groups[group], exhibit)

		if group != prevGroup {
			book.TOC = append(book.TOC, models.TOCEntry{
				Title:         groupHeading(group),
				IsGroupHeader: true,
			})
			prevGroup = group
		}
		book.TOC = append(book.TOC, models.TOCEntry{
			Label:         label,
			Title:         exhibit.Title,
			Category:      exhibit.Category,
			DateDisplay:   dateDisplay(item.Metadata.EventDate),
			PageReference: pageReference(start, end),
		})
	}

	book.TotalPages = nextPage - 1
	return book
}

// exhibitLabel computes the label for the exhibit at index i.
// Alphabetical labels are bijective base-26 (A..Z, AA..ZZ, AAA..) and
// extend to arbitrary length rather than wrapping or erroring.
func exhibitLabel(i int, format models.ExhibitLabelFormat) string {
	if format == models.LabelNumerical {
		return fmt.Sprintf("Exhibit %d", i+1)
	}

	n := i + 1
	var letters []byte
	for n > 0 {
		n--
		letters = append([]byte{byte('A' + n%26)}, letters...)
		n /= 26
	}
	return "Exhibit " + string(letters)
}

// smartTitle joins the label, doc-type display name, date (or "Date
// Unknown"), and source party, omitting the party segment when empty.
func smartTitle(label string, item *models.EvidenceItem) string {
	parts := []string{
		label,
		docTypeDisplay(item.Metadata.DocType),
		dateDisplay(item.Metadata.EventDate),
	}
	if item.Metadata.SourceParty != "" {
		parts = append(parts, item.Metadata.SourceParty)
	}
	return strings.Join(parts, " — ")
}

func dateDisplay(d *time.Time) string {
	if d == nil {
		return "Date Unknown"
	}
	return d.Format("2006-01-02")
}

// groupKey buckets an exhibit by month and year, or "undated".
func groupKey(d *time.Time) string {
	if d == nil {
		return "undated"
	}
	return d.Format("January 2006")
}

func groupHeading(group string) string {
	if group == "undated" {
		return "Undated Documents"
	}
	return group
}

func pageReference(start, end int) string {
	if start == end {
		return fmt.Sprintf("p. %d", start)
	}
	return fmt.Sprintf("pp. %d–%d", start, end)
}

// docTypeDisplay maps document-type codes to display names.
func docTypeDisplay(docType string) string {
	displays := map[string]string{
		"lease_agreement":   "Lease Agreement",
		"eviction_notice":   "Eviction Notice",
		"rent_receipt":      "Rent Receipt",
		"repair_request":    "Repair Request",
		"inspection_report": "Inspection Report",
		"correspondence":    "Correspondence",
		"text_message":      "Text Message Record",
		"email":             "Email",
		"photo":             "Photograph",
		"invoice":           "Invoice",
		"medical_record":    "Medical Record",
		"employment_record": "Employment Record",
	}
	if display, ok := displays[docType]; ok {
		return display
	}
	if docType == "" {
		return "Document"
	}
	// Title-case unknown codes: "witness_statement" -> "Witness Statement"
	words := strings.Split(docType, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// docCategory buckets document types for the TOC and the exhibit list.
func docCategory(docType string) string {
	categories := map[string]string{
		"eviction_notice":   "notice",
		"repair_request":    "communication",
		"correspondence":    "communication",
		"text_message":      "communication",
		"email":             "communication",
		"rent_receipt":      "financial",
		"invoice":           "financial",
		"photo":             "photo",
		"lease_agreement":   "contract",
		"inspection_report": "report",
		"medical_record":    "report",
		"employment_record": "report",
	}
	if cat, ok := categories[docType]; ok {
		return cat
	}
	return "other"
}

// importanceTier ranks an exhibit for reviewer attention: official
// notices and contracts first, dated items next, the rest standard.
func importanceTier(item *models.EvidenceItem) string {
	switch docCategory(item.Metadata.DocType) {
	case "notice", "contract":
		return "high"
	}
	if item.Metadata.EventDate != nil {
		return "medium"
	}
	return "standard"
}
