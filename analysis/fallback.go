package analysis

import "context"

// FallbackAnalyzer is the deterministic degraded mode used when the
// network-backed capability is absent, times out, or errors. Every
// element scores 1 with matched=false; the evidence score is a count
// tier; case-law alignment is unknowable offline and scores 0.
type FallbackAnalyzer struct{}

// NewFallbackAnalyzer creates the deterministic fallback analyzer.
func NewFallbackAnalyzer() *FallbackAnalyzer {
	return &FallbackAnalyzer{}
}

// Name implements Analyzer
func (a *FallbackAnalyzer) Name() string {
	return "deterministic-fallback"
}

// Analyze implements Analyzer. Never fails.
func (a *FallbackAnalyzer) Analyze(_ context.Context, req Request) (*Result, error) {
	scores := make([]ElementScore, 0, len(req.Elements))
	for _, el := range req.Elements {
		scores = append(scores, ElementScore{
			ElementID: el.ID,
			Score:     1,
			Matched:   false,
		})
	}

	return &Result{
		ElementScores:  scores,
		EvidenceScore:  evidenceTier(len(req.EvidenceSummaries)),
		CaseLawScore:   0,
		CaseLawMatches: []string{},
		Strengths:      []string{},
		Risks:          []string{"Semantic analysis unavailable; element coverage scored in degraded mode"},
		NextActions:    []string{},
	}, nil
}

func evidenceTier(count int) int {
	switch {
	case count >= 7:
		return 18
	case count >= 4:
		return 12
	case count >= 2:
		return 8
	case count >= 1:
		return 4
	default:
		return 0
	}
}
