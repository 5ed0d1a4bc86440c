package service

import (
	"fmt"
	"strings"

	"casebook-backend/analysis"
)

// elementKey combines a venue category and an issue type.
func elementKey(venue, issueType string) string {
	return fmt.Sprintf("%s/%s", venueCategory(venue), strings.ToLower(strings.TrimSpace(issueType)))
}

// venueCategory collapses tribunal codes into the categories the element
// tables are keyed by.
func venueCategory(venue string) string {
	switch strings.ToLower(strings.TrimSpace(venue)) {
	case "ltb", "rtdrs", "tal", "crt":
		return "tenancy"
	case "hrto":
		return "human_rights"
	case "small_claims":
		return "civil"
	default:
		return "general"
	}
}

// legalElements maps (venue-category, issue-type) pairs to the legal
// elements the formal scorer assesses.
var legalElements = map[string][]analysis.Element{
	"tenancy/repairs": {
		{ID: "landlord_notified", Description: "The landlord was notified of the problem and given a chance to fix it"},
		{ID: "disrepair_exists", Description: "The unit is in a state of disrepair or fails a health and safety standard"},
		{ID: "impact_documented", Description: "The disrepair caused documented loss of use, expense, or harm"},
		{ID: "tenant_not_cause", Description: "The tenant did not cause the damage through willful or negligent conduct"},
	},
	"tenancy/eviction": {
		{ID: "notice_validity", Description: "The eviction notice is defective or served in bad faith"},
		{ID: "grounds_disputed", Description: "The stated grounds for eviction are factually disputed"},
		{ID: "retaliation", Description: "The eviction followed the tenant asserting a legal right"},
	},
	"tenancy/harassment": {
		{ID: "conduct_pattern", Description: "A pattern of interference with reasonable enjoyment exists"},
		{ID: "landlord_attribution", Description: "The conduct is attributable to the landlord or their agent"},
		{ID: "impact_documented", Description: "The conduct caused documented distress, expense, or loss of use"},
	},
	"tenancy/rent_increase": {
		{ID: "increase_above_guideline", Description: "The increase exceeds the lawful guideline without approval"},
		{ID: "notice_period", Description: "Proper written notice of the increase was not given"},
	},
	"human_rights/discrimination": {
		{ID: "protected_ground", Description: "The treatment relates to a protected ground"},
		{ID: "adverse_treatment", Description: "The claimant suffered adverse treatment in a covered area"},
		{ID: "nexus", Description: "A nexus links the protected ground to the adverse treatment"},
	},
	"civil/wrongful_dismissal": {
		{ID: "employment_relationship", Description: "An employment relationship existed"},
		{ID: "dismissal_without_cause", Description: "The dismissal was without cause or proper notice"},
		{ID: "damages", Description: "Quantifiable damages flow from the dismissal"},
	},
}

// defaultElements is used when no table entry matches, so the formal
// variant always has something to assess.
var defaultElements = []analysis.Element{
	{ID: "duty_exists", Description: "The opposing party owed the claimant a legal duty"},
	{ID: "breach_occurred", Description: "That duty was breached"},
	{ID: "harm_documented", Description: "The breach caused documented harm or loss"},
}

// ElementsFor returns the legal elements for a (venue, issue-type) pair,
// falling back to the general elements when the pair is unknown.
func ElementsFor(venue, issueType string) []analysis.Element {
	if elements, ok := legalElements[elementKey(venue, issueType)]; ok {
		return elements
	}
	return defaultElements
}
