package analysis

import (
	"context"
	"testing"
)

func TestFallbackElementScores(t *testing.T) {
	a := NewFallbackAnalyzer()

	result, err := a.Analyze(context.Background(), Request{
		Elements: []Element{
			{ID: "landlord_notified"},
			{ID: "disrepair_exists"},
			{ID: "impact_documented"},
		},
	})
	if err != nil {
		t.Fatalf("fallback must never fail: %v", err)
	}

	if len(result.ElementScores) != 3 {
		t.Fatalf("expected 3 element scores, got %d", len(result.ElementScores))
	}
	for _, es := range result.ElementScores {
		if es.Score != 1 {
			t.Errorf("element %s scored %d, want 1 in degraded mode", es.ElementID, es.Score)
		}
		if es.Matched {
			t.Errorf("element %s reported matched; degraded mode cannot match evidence", es.ElementID)
		}
	}
	if result.CaseLawScore != 0 {
		t.Errorf("case-law score = %d, want 0 offline", result.CaseLawScore)
	}
	if len(result.Risks) == 0 {
		t.Error("degraded mode should disclose itself as a risk")
	}
}

func TestFallbackEvidenceTiers(t *testing.T) {
	a := NewFallbackAnalyzer()

	tests := []struct {
		count int
		want  int
	}{
		{0, 0},
		{1, 4},
		{2, 8},
		{3, 8},
		{4, 12},
		{6, 12},
		{7, 18},
		{20, 18},
	}

	for _, tt := range tests {
		summaries := make([]string, tt.count)
		result, err := a.Analyze(context.Background(), Request{EvidenceSummaries: summaries})
		if err != nil {
			t.Fatalf("fallback must never fail: %v", err)
		}
		if result.EvidenceScore != tt.want {
			t.Errorf("%d summaries: evidence score = %d, want %d", tt.count, result.EvidenceScore, tt.want)
		}
	}
}
