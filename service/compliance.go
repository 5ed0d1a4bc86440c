package service

import (
	"fmt"

	"casebook-backend/jurisdiction"
	"casebook-backend/models"
)

// Compliance rule names, reported in RulesApplied for auditability.
const (
	RuleMaxPages         = "max_pages_per_book"
	RuleRequiredSections = "required_sections"
	RuleChronological    = "chronological_order"
	RuleCoverPage        = "cover_page_present"
	RuleCertification    = "certification_present"
)

// ComplianceChecker validates an assembled book against a jurisdiction's
// structural rules, producing blocking issues and advisory warnings.
type ComplianceChecker struct{}

// NewComplianceChecker creates a compliance checker.
func NewComplianceChecker() *ComplianceChecker {
	return &ComplianceChecker{}
}

// Check evaluates every applicable rule. Issues block; warnings advise.
// RulesApplied records which rules were actually evaluated.
func (c *ComplianceChecker) Check(result *models.BookGenerationResult, cfg models.BookConfig) models.ComplianceSummary {
	summary := models.ComplianceSummary{
		Issues:       []string{},
		Warnings:     []string{},
		RulesApplied: []string{},
	}

	// Max pages
	summary.RulesApplied = append(summary.RulesApplied, RuleMaxPages)
	if cfg.MaxPagesPerBook > 0 && result.TotalPages > cfg.MaxPagesPerBook {
		summary.Issues = append(summary.Issues,
			fmt.Sprintf("Book is %d pages; %s allows at most %d",
				result.TotalPages, cfg.TribunalName, cfg.MaxPagesPerBook))
	}

	// Required sections in declared order
	summary.RulesApplied = append(summary.RulesApplied, RuleRequiredSections)
	for _, section := range cfg.RequiredSections {
		if !sectionPresent(result, section) {
			summary.Issues = append(summary.Issues,
				fmt.Sprintf("Required section %q is missing", section))
		}
	}

	// Chronological ordering
	if cfg.ChronologicalRequired {
		summary.RulesApplied = append(summary.RulesApplied, RuleChronological)
		if !chronological(result.Exhibits) {
			summary.Issues = append(summary.Issues,
				"Exhibits are not in chronological order as this tribunal requires")
		}
	}

	// Cover page
	if cfg.RequiresCoverPage {
		summary.RulesApplied = append(summary.RulesApplied, RuleCoverPage)
		if result.CoverPage == nil {
			summary.Issues = append(summary.Issues, "Cover page is required but missing")
		}
	}

	// Certification
	if cfg.RequiresCertification {
		summary.RulesApplied = append(summary.RulesApplied, RuleCertification)
		if !sectionPresent(result, jurisdiction.SectionCertification) {
			summary.Issues = append(summary.Issues,
				"Certification page is required but missing")
		}
	}

	// Advisory findings
	if len(result.Duplicates) > 0 {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("%d possible duplicate document(s) in the book", len(result.Duplicates)))
	}
	if len(result.QualityIssues) > 0 {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("%d document(s) have quality flags a reviewer should check", len(result.QualityIssues)))
	}

	summary.IsCompliant = len(summary.Issues) == 0
	return summary
}

// sectionPresent reports whether the book contains a named section.
func sectionPresent(result *models.BookGenerationResult, section string) bool {
	switch section {
	case jurisdiction.SectionCover:
		return result.CoverPage != nil
	case jurisdiction.SectionIndex:
		return len(result.TableOfContents) > 0
	case jurisdiction.SectionKeyFacts:
		return result.KeyFacts != nil
	case jurisdiction.SectionExhibits:
		return len(result.Exhibits) > 0
	case jurisdiction.SectionCertification:
		return result.Certification != nil
	default:
		return false
	}
}

// chronological reports whether dated exhibits are non-decreasing by
// date with all undated exhibits at the end.
func chronological(exhibits []models.ExhibitItem) bool {
	sawUndated := false
	for i := range exhibits {
		if exhibits[i].Date == nil {
			sawUndated = true
			continue
		}
		if sawUndated {
			return false
		}
		if i > 0 && exhibits[i-1].Date != nil && exhibits[i].Date.Before(*exhibits[i-1].Date) {
			return false
		}
	}
	return true
}
