package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"casebook-backend/analysis"
	"casebook-backend/models"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func datedItem(name, docType string, date time.Time) models.EvidenceItem {
	return models.EvidenceItem{
		ID:       uuid.New(),
		FileName: name,
		Metadata: models.EvidenceMetadata{EventDate: &date, DocType: docType},
	}
}

func strongProfile() models.CaseProfile {
	section := "RTA s. 20"
	incident := testNow.AddDate(0, 0, -10)
	return models.CaseProfile{
		Province:       "ON",
		Venue:          "ltb",
		IssueType:      "repairs",
		Description:    "The landlord has refused to repair the broken heating system despite repeated written requests over several weeks",
		IncidentDate:   &incident,
		CaseAgeDays:    10,
		TriageComplete: true,
		LawSection:     &section,
	}
}

func TestScoreHeuristicBounds(t *testing.T) {
	s := NewMeritScorer(ScorerWithClock(fixedClock))

	profiles := []models.CaseProfile{
		{},
		strongProfile(),
		{Description: "eviction notice n4 served", CaseAgeDays: 400},
	}
	evidenceSets := [][]models.EvidenceItem{
		nil,
		{datedItem("notice_of_hearing.pdf", "eviction_notice", testNow.AddDate(0, 0, -5))},
	}

	for _, p := range profiles {
		for _, items := range evidenceSets {
			result := s.ScoreHeuristic(p, items)
			if result.TotalScore < 0 || result.TotalScore > 100 {
				t.Errorf("total score %d out of range for profile %+v", result.TotalScore, p)
			}
			if result.Band != models.BandForScore(result.TotalScore) {
				t.Errorf("band %s does not match score %d", result.Band, result.TotalScore)
			}
		}
	}
}

func TestScoreHeuristicDeterministic(t *testing.T) {
	s := NewMeritScorer(ScorerWithClock(fixedClock))
	profile := strongProfile()
	items := []models.EvidenceItem{
		datedItem("repair_letter.pdf", "correspondence", testNow.AddDate(0, 0, -8)),
		datedItem("photo1.jpg", "photo", testNow.AddDate(0, 0, -7)),
	}

	first := s.ScoreHeuristic(profile, items)
	second := s.ScoreHeuristic(profile, items)
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different results")
	}
}

func TestScoreHeuristicNoEvidence(t *testing.T) {
	s := NewMeritScorer(ScorerWithClock(fixedClock))

	result := s.ScoreHeuristic(strongProfile(), nil)
	if result.Components.Evidence != 0 {
		t.Errorf("evidence component = %d, want 0 with no items", result.Components.Evidence)
	}

	found := false
	for _, gap := range result.Gaps {
		if strings.Contains(gap, "No evidence uploaded") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a no-evidence gap, got %v", result.Gaps)
	}
}

func TestScoreEvidenceCap(t *testing.T) {
	s := NewMeritScorer(ScorerWithClock(fixedClock))

	// Eight items with every bonus: 25 + 5 + 5 + 5 caps at 40.
	items := make([]models.EvidenceItem, 0, 8)
	for i := 0; i < 7; i++ {
		items = append(items, datedItem("statement.pdf", "correspondence", testNow.AddDate(0, 0, -i)))
	}
	photo := datedItem("notice_photo.jpg", "photo", testNow.AddDate(0, 0, -1))
	photo.MediaType = "image/jpeg"
	items = append(items, photo)

	result := s.ScoreHeuristic(strongProfile(), items)
	if result.Components.Evidence != maxEvidenceHeuristic {
		t.Errorf("evidence component = %d, want capped %d", result.Components.Evidence, maxEvidenceHeuristic)
	}
}

func TestScoreTimelineDecay(t *testing.T) {
	s := NewMeritScorer(ScorerWithClock(fixedClock))

	tests := []struct {
		ageDays int
		want    int
	}{
		{5, 10},
		{29, 10},
		{30, 7},
		{89, 7},
		{90, 4},
		{179, 4},
		{180, 0},
		{500, 0},
	}

	for _, tt := range tests {
		profile := models.CaseProfile{CaseAgeDays: tt.ageDays}
		result := s.ScoreHeuristic(profile, nil)
		if result.Components.Timeline != tt.want {
			t.Errorf("age %d days: timeline = %d, want %d", tt.ageDays, result.Components.Timeline, tt.want)
		}
	}
}

func TestScoreRiskFloor(t *testing.T) {
	s := NewMeritScorer(ScorerWithClock(fixedClock))

	// No venue, no evidence, over a year old: every deduction at once.
	profile := models.CaseProfile{CaseAgeDays: 400, Description: "old dispute"}
	result := s.ScoreHeuristic(profile, nil)
	if result.Components.Risk != minRisk {
		t.Errorf("risk = %d, want floor %d", result.Components.Risk, minRisk)
	}
}

func TestScoreFormalFallback(t *testing.T) {
	// No analyzer configured: the deterministic fallback supplies element
	// scores of 1 and leaves every element unmatched.
	s := NewMeritScorer(ScorerWithClock(fixedClock))

	profile := strongProfile()
	result := s.ScoreFormal(context.Background(), profile, nil)

	// tenancy/repairs has 4 elements, all scored 1: round(4/12*25) = 8.
	if result.Components.Elements != 8 {
		t.Errorf("elements component = %d, want 8", result.Components.Elements)
	}
	if result.Components.CaseLaw != 0 {
		t.Errorf("case-law component = %d, want 0 in degraded mode", result.Components.CaseLaw)
	}

	// Every unmatched element becomes a gap.
	gapCount := 0
	for _, gap := range result.Gaps {
		if strings.Contains(gap, "No evidence addresses element") {
			gapCount++
		}
	}
	if gapCount != 4 {
		t.Errorf("expected 4 element gaps, got %d: %v", gapCount, result.Gaps)
	}
}

type erroringAnalyzer struct{}

func (a *erroringAnalyzer) Name() string { return "erroring" }

func (a *erroringAnalyzer) Analyze(context.Context, analysis.Request) (*analysis.Result, error) {
	return nil, errors.New("upstream unavailable")
}

func TestScoreFormalAnalyzerFailureDegrades(t *testing.T) {
	s := NewMeritScorer(ScorerWithClock(fixedClock), ScorerWithAnalyzer(&erroringAnalyzer{}))

	result := s.ScoreFormal(context.Background(), strongProfile(), nil)
	if result.TotalScore < 0 || result.TotalScore > 100 {
		t.Errorf("total score %d out of range after degradation", result.TotalScore)
	}

	found := false
	for _, note := range result.Notes {
		if strings.Contains(note, "fallback") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a degraded-mode note, got %v", result.Notes)
	}
}

type cannedAnalyzer struct {
	result analysis.Result
}

func (a *cannedAnalyzer) Name() string { return "canned" }

func (a *cannedAnalyzer) Analyze(context.Context, analysis.Request) (*analysis.Result, error) {
	r := a.result
	return &r, nil
}

func TestScoreFormalClampsAnalyzerOutput(t *testing.T) {
	// Out-of-range capability output must not leak into components.
	s := NewMeritScorer(ScorerWithClock(fixedClock), ScorerWithAnalyzer(&cannedAnalyzer{
		result: analysis.Result{
			ElementScores: []analysis.ElementScore{
				{ElementID: "landlord_notified", Score: 99, Matched: true},
				{ElementID: "disrepair_exists", Score: -5, Matched: true},
				{ElementID: "impact_documented", Score: 3, Matched: true},
				{ElementID: "tenant_not_cause", Score: 3, Matched: true},
			},
			EvidenceScore: 500,
			CaseLawScore:  -40,
		},
	}))

	result := s.ScoreFormal(context.Background(), strongProfile(), nil)
	if result.Components.Evidence != maxEvidenceFormal {
		t.Errorf("evidence component = %d, want clamped %d", result.Components.Evidence, maxEvidenceFormal)
	}
	if result.Components.CaseLaw != 0 {
		t.Errorf("case-law component = %d, want clamped 0", result.Components.CaseLaw)
	}
	// Scores clamp to 3, 0, 3, 3: round(9/12*25) = 19.
	if result.Components.Elements != 19 {
		t.Errorf("elements component = %d, want 19", result.Components.Elements)
	}
	if result.TotalScore > 100 {
		t.Errorf("total score %d exceeds 100", result.TotalScore)
	}
}

func TestScorePenaltyDeadlines(t *testing.T) {
	s := NewMeritScorer(ScorerWithClock(fixedClock))

	tests := []struct {
		name     string
		deadline time.Time
		want     int
	}{
		{"deadline passed", testNow.AddDate(0, 0, -1), -15},
		{"under a week away", testNow.AddDate(0, 0, 3), -7},
		{"under a month away", testNow.AddDate(0, 0, 20), -3},
		{"far away", testNow.AddDate(0, 3, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := strongProfile()
			profile.FilingDeadline = &tt.deadline
			result := s.ScoreFormal(context.Background(), profile, nil)
			if result.Components.Penalty != tt.want {
				t.Errorf("penalty = %d, want %d", result.Components.Penalty, tt.want)
			}
		})
	}
}

func TestScorePenaltyStaleIncident(t *testing.T) {
	s := NewMeritScorer(ScorerWithClock(fixedClock))

	profile := strongProfile()
	old := testNow.AddDate(-3, 0, 0)
	profile.IncidentDate = &old
	// A mild deadline penalty must lose to the harsher staleness one.
	soon := testNow.AddDate(0, 0, 20)
	profile.FilingDeadline = &soon

	result := s.ScoreFormal(context.Background(), profile, nil)
	if result.Components.Penalty != -15 {
		t.Errorf("penalty = %d, want -15 for a three-year-old incident", result.Components.Penalty)
	}
}

func TestBandForScore(t *testing.T) {
	tests := []struct {
		score int
		want  models.MeritBand
	}{
		{100, models.BandVeryStrong},
		{80, models.BandVeryStrong},
		{79, models.BandStrong},
		{65, models.BandStrong},
		{64, models.BandModerate},
		{50, models.BandModerate},
		{49, models.BandFair},
		{35, models.BandFair},
		{34, models.BandWeak},
		{0, models.BandWeak},
	}

	for _, tt := range tests {
		if got := models.BandForScore(tt.score); got != tt.want {
			t.Errorf("BandForScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestElementsForFallback(t *testing.T) {
	if got := ElementsFor("ltb", "repairs"); len(got) != 4 {
		t.Errorf("tenancy/repairs: %d elements, want 4", len(got))
	}
	if got := ElementsFor("hrto", "discrimination"); len(got) != 3 {
		t.Errorf("human_rights/discrimination: %d elements, want 3", len(got))
	}

	// Unknown pairs fall back to the general elements.
	got := ElementsFor("unknown_venue", "unknown_issue")
	if !reflect.DeepEqual(got, defaultElements) {
		t.Errorf("unknown pair should return the default elements, got %v", got)
	}

	// Tribunal codes collapse to shared categories.
	if !reflect.DeepEqual(ElementsFor("crt", "repairs"), ElementsFor("ltb", "repairs")) {
		t.Error("crt and ltb should share the tenancy element table")
	}
}
