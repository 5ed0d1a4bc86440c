// Package analysis defines the legal-text-analysis capability the merit
// scorer consumes. The scorer never talks to a model directly: it goes
// through the Analyzer port, and every returned number is clamped by the
// caller before use.
package analysis

import "context"

// Element is one jurisdiction-specific legal element to be assessed
// against the case facts and evidence.
type Element struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Request carries the case facts, the legal elements of the claimed path,
// and one-line summaries of the uploaded evidence.
type Request struct {
	CaseFacts         string    `json:"case_facts"`
	IssueType         string    `json:"issue_type"`
	Elements          []Element `json:"elements"`
	EvidenceSummaries []string  `json:"evidence_summaries"`
}

// ElementScore is the capability's assessment of a single legal element.
// Score is 0–3; Matched reports whether any evidence speaks to the element.
type ElementScore struct {
	ElementID string `json:"element_id"`
	Score     int    `json:"score"`
	Matched   bool   `json:"matched"`
}

// Result is the capability's full output. Callers must treat every field
// as untrusted and clamp it into range.
type Result struct {
	ElementScores  []ElementScore `json:"element_scores"`
	EvidenceScore  int            `json:"evidence_score"`  // 0..25
	CaseLawScore   int            `json:"case_law_score"`  // 0..25
	CaseLawMatches []string       `json:"case_law_matches"`
	Strengths      []string       `json:"strengths"`
	Risks          []string       `json:"risks"`
	NextActions    []string       `json:"next_actions"`
}

// Analyzer is the legal-text-analysis port.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Result, error)

	// Name identifies the implementation for result notes and logs.
	Name() string
}
