package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"casebook-backend/analysis"
	"casebook-backend/models"
)

// Component bounds. Each component is clamped independently before
// summation; the total is clamped to 0..100.
const (
	maxEvidenceHeuristic = 40
	maxLegal             = 25
	maxTimeline          = 15
	maxPattern           = 10
	minRisk              = -10
	maxPathFit           = 15
	maxElements          = 25
	maxEvidenceFormal    = 25
	maxCaseLaw           = 25
	minPenalty           = -15
)

// Default timeout for the external analysis capability. On timeout or
// error the scorer falls back to the deterministic path.
const defaultAnalysisTimeout = 45 * time.Second

// MeritScorer converts a case profile and its evidence set into a 0–100
// merit score. The heuristic variant is fully deterministic; the formal
// variant additionally consumes the legal-text-analysis capability for
// element coverage, evidence strength, and case-law alignment.
type MeritScorer struct {
	analyzer analysis.Analyzer
	fallback analysis.Analyzer
	timeout  time.Duration
	now      func() time.Time
}

// MeritScorerOption is a functional option for MeritScorer
type MeritScorerOption func(*MeritScorer)

// ScorerWithAnalyzer sets the external analysis capability
func ScorerWithAnalyzer(a analysis.Analyzer) MeritScorerOption {
	return func(s *MeritScorer) {
		s.analyzer = a
	}
}

// ScorerWithTimeout sets the analysis call timeout
func ScorerWithTimeout(d time.Duration) MeritScorerOption {
	return func(s *MeritScorer) {
		s.timeout = d
	}
}

// ScorerWithClock sets the time source (tests pin it)
func ScorerWithClock(now func() time.Time) MeritScorerOption {
	return func(s *MeritScorer) {
		s.now = now
	}
}

// NewMeritScorer creates a merit scorer
func NewMeritScorer(opts ...MeritScorerOption) *MeritScorer {
	s := &MeritScorer{
		fallback: analysis.NewFallbackAnalyzer(),
		timeout:  defaultAnalysisTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreHeuristic computes the deterministic heuristic merit result.
// Pure function of (profile, items); no I/O.
func (s *MeritScorer) ScoreHeuristic(profile models.CaseProfile, items []models.EvidenceItem) *models.MeritResult {
	result := &models.MeritResult{
		Variant:    models.VariantHeuristic,
		Strengths:  []string{},
		Weaknesses: []string{},
		Gaps:       []string{},
		ComputedAt: s.now(),
	}

	result.Components.Evidence = s.scoreEvidence(items, result)
	result.Components.Legal = s.scoreLegal(profile, result)
	result.Components.Timeline = s.scoreTimeline(profile, items, result)
	result.Components.Pattern = s.scorePattern(profile, result)
	result.Components.Risk = s.scoreRisk(profile, items, result)

	total := result.Components.Evidence +
		result.Components.Legal +
		result.Components.Timeline +
		result.Components.Pattern +
		result.Components.Risk

	result.TotalScore = clamp(total, 0, 100)
	result.Band = models.BandForScore(result.TotalScore)
	return result
}

// scoreEvidence computes the 0–40 evidence component: a tier from the
// item count plus bonuses for an image, an official-looking document, and
// dated metadata.
func (s *MeritScorer) scoreEvidence(items []models.EvidenceItem, result *models.MeritResult) int {
	var score int
	switch {
	case len(items) >= 7:
		score = 25
	case len(items) >= 4:
		score = 18
	case len(items) >= 2:
		score = 10
	case len(items) >= 1:
		score = 5
	default:
		score = 0
	}

	if len(items) == 0 {
		result.Gaps = append(result.Gaps, "No evidence uploaded — add documents, photos, or correspondence")
		return 0
	}

	if len(items) >= 4 {
		result.Strengths = append(result.Strengths, fmt.Sprintf("Substantial evidence set (%d items)", len(items)))
	} else {
		result.Weaknesses = append(result.Weaknesses, "Limited evidence set — more documentation would strengthen the case")
	}

	hasImage := false
	hasOfficialDoc := false
	hasDated := false
	for i := range items {
		if items[i].IsImage() {
			hasImage = true
		}
		if isOfficialFilename(items[i].FileName) {
			hasOfficialDoc = true
		}
		if items[i].Metadata.EventDate != nil {
			hasDated = true
		}
	}

	if hasImage {
		score += 5
		result.Strengths = append(result.Strengths, "Photographic evidence present")
	}
	if hasOfficialDoc {
		score += 5
		result.Strengths = append(result.Strengths, "Official notice or form on file")
	}
	if hasDated {
		score += 5
		result.Strengths = append(result.Strengths, "Evidence carries extracted date metadata")
	} else {
		result.Gaps = append(result.Gaps, "No evidence item has a confirmed document date")
	}

	return clamp(score, 0, maxEvidenceHeuristic)
}

// isOfficialFilename reports whether a filename suggests an official
// notice, letter, or form.
func isOfficialFilename(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range []string{"notice", "letter", "form", "order"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// scoreLegal computes the 0–25 legal component from case completeness.
func (s *MeritScorer) scoreLegal(profile models.CaseProfile, result *models.MeritResult) int {
	score := 0

	if profile.Venue != "" {
		score += 8
		result.Strengths = append(result.Strengths, "Venue identified")
	} else {
		result.Gaps = append(result.Gaps, "No tribunal or venue selected")
	}

	if len(profile.Description) > 50 {
		score += 7
		result.Strengths = append(result.Strengths, "Detailed case description provided")
	} else {
		result.Weaknesses = append(result.Weaknesses, "Case description is too brief to assess fully")
	}

	if profile.TriageComplete {
		score += 5
		result.Strengths = append(result.Strengths, "Intake triage completed")
	}

	if profile.LawSection != nil && *profile.LawSection != "" {
		score += 5
		result.Strengths = append(result.Strengths, fmt.Sprintf("Specific law section recorded (%s)", *profile.LawSection))
	}

	return clamp(score, 0, maxLegal)
}

// scoreTimeline computes the 0–15 timeline component: freshness decay
// plus a bonus for a documented evidence trail.
func (s *MeritScorer) scoreTimeline(profile models.CaseProfile, items []models.EvidenceItem, result *models.MeritResult) int {
	age := profile.CaseAgeDays

	var score int
	switch {
	case age < 30:
		score = 10
		result.Strengths = append(result.Strengths, "Recent incident — timeline is fresh")
	case age < 90:
		score = 7
	case age < 180:
		score = 4
		result.Weaknesses = append(result.Weaknesses, "Several months have passed since the incident")
	default:
		score = 0
		result.Weaknesses = append(result.Weaknesses, "Significant delay since the incident weakens the timeline")
	}

	if len(items) >= 3 {
		score += 5
		result.Strengths = append(result.Strengths, "Multiple evidence items support the timeline")
	}

	return clamp(score, 0, maxTimeline)
}

// patternCategory pairs a claim category's keywords with its fixed score.
// Ordered: the first matching category wins.
type patternCategory struct {
	name     string
	keywords []string
	score    int
}

var patternCategories = []patternCategory{
	{"repairs and maintenance", []string{"repair", "maintenance", "mould", "mold", "heat", "plumbing"}, 7},
	{"harassment", []string{"harass", "threat", "intimidat"}, 8},
	{"eviction notice", []string{"eviction", "evict", "n4", "n5", "n12", "n13"}, 10},
	{"rent increase", []string{"rent increase", "raise the rent", "above guideline"}, 6},
	{"discrimination", []string{"discriminat", "human rights"}, 9},
	{"wrongful dismissal", []string{"wrongful dismissal", "terminated", "fired", "severance"}, 8},
}

// scorePattern computes the 0–10 pattern component by matching the
// description against known claim categories.
func (s *MeritScorer) scorePattern(profile models.CaseProfile, result *models.MeritResult) int {
	desc := strings.ToLower(profile.Description)
	for _, cat := range patternCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(desc, kw) {
				result.Strengths = append(result.Strengths,
					fmt.Sprintf("Claim matches a recognized category (%s)", cat.name))
				return clamp(cat.score, 0, maxPattern)
			}
		}
	}
	result.Weaknesses = append(result.Weaknesses, "Claim does not match a recognized category")
	return 0
}

// scoreRisk computes the −10..0 risk component.
func (s *MeritScorer) scoreRisk(profile models.CaseProfile, items []models.EvidenceItem, result *models.MeritResult) int {
	deduction := 0

	if profile.Venue == "" {
		deduction += 3
		result.Weaknesses = append(result.Weaknesses, "Unclear venue adds procedural risk")
	}
	if len(items) == 0 {
		deduction += 5
		result.Weaknesses = append(result.Weaknesses, "A case without evidence is unlikely to succeed")
	}
	if profile.CaseAgeDays > 365 {
		deduction += 5
		result.Weaknesses = append(result.Weaknesses, "Case is over a year old — limitation periods may apply")
	}

	return clamp(-deduction, minRisk, 0)
}

// ScoreFormal computes the formal element-coverage merit result. The
// analysis capability is consumed with a timeout; on error the scorer
// degrades to the deterministic fallback and records a note instead of
// failing.
func (s *MeritScorer) ScoreFormal(ctx context.Context, profile models.CaseProfile, items []models.EvidenceItem) *models.MeritResult {
	result := &models.MeritResult{
		Variant:    models.VariantFormal,
		Strengths:  []string{},
		Weaknesses: []string{},
		Gaps:       []string{},
		Notes:      []string{},
		ComputedAt: s.now(),
	}

	result.Components.PathFit = s.scorePathFit(profile, result)

	elements := ElementsFor(profile.Venue, profile.IssueType)
	analyzed := s.analyze(ctx, profile, items, elements, result)

	result.Components.Elements = normalizeElements(analyzed.ElementScores, len(elements))
	result.Components.Evidence = clamp(analyzed.EvidenceScore, 0, maxEvidenceFormal)
	result.Components.CaseLaw = clamp(analyzed.CaseLawScore, 0, maxCaseLaw)
	result.Components.Penalty = s.scorePenalty(profile, result)

	result.Strengths = append(result.Strengths, analyzed.Strengths...)
	result.Weaknesses = append(result.Weaknesses, analyzed.Risks...)
	for _, es := range analyzed.ElementScores {
		if !es.Matched {
			result.Gaps = append(result.Gaps, fmt.Sprintf("No evidence addresses element %q", es.ElementID))
		}
	}

	total := result.Components.PathFit +
		result.Components.Elements +
		result.Components.Evidence +
		result.Components.CaseLaw +
		result.Components.Penalty

	result.TotalScore = clamp(total, 0, 100)
	result.Band = models.BandForScore(result.TotalScore)
	return result
}

// knownVenues is the whitelist of tribunal codes the path-fit check
// recognizes.
var knownVenues = map[string]bool{
	"ltb":          true,
	"crt":          true,
	"rtdrs":        true,
	"tal":          true,
	"hrto":         true,
	"small_claims": true,
}

// scorePathFit computes the 0–15 structural path-fit component.
func (s *MeritScorer) scorePathFit(profile models.CaseProfile, result *models.MeritResult) int {
	score := 0
	if profile.Province != "" {
		score += 3
	} else {
		result.Gaps = append(result.Gaps, "Province not set")
	}
	if knownVenues[strings.ToLower(profile.Venue)] {
		score += 4
		result.Strengths = append(result.Strengths, "Filed path matches a known tribunal")
	} else {
		result.Weaknesses = append(result.Weaknesses, "Venue is not a recognized tribunal code")
	}
	if profile.IssueType != "" {
		score += 4
	} else {
		result.Gaps = append(result.Gaps, "Issue type not set")
	}
	if len(profile.Description) > 50 {
		score += 4
	}
	return clamp(score, 0, maxPathFit)
}

// analyze runs the external capability with a timeout, degrading to the
// deterministic fallback on any failure.
func (s *MeritScorer) analyze(
	ctx context.Context,
	profile models.CaseProfile,
	items []models.EvidenceItem,
	elements []analysis.Element,
	result *models.MeritResult,
) *analysis.Result {
	req := analysis.Request{
		CaseFacts:         profile.Description,
		IssueType:         profile.IssueType,
		Elements:          elements,
		EvidenceSummaries: summarizeEvidence(items),
	}

	if s.analyzer != nil {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		analyzed, err := s.analyzer.Analyze(callCtx, req)
		if err == nil {
			return analyzed
		}
		log.Printf("Warning: analysis capability %q failed, using fallback: %v", s.analyzer.Name(), err)
		result.Notes = append(result.Notes, "Semantic analysis unavailable; deterministic fallback scoring applied")
	}

	fallback, _ := s.fallback.Analyze(ctx, req)
	return fallback
}

// summarizeEvidence produces the one-line evidence summaries the
// capability contract expects.
func summarizeEvidence(items []models.EvidenceItem) []string {
	summaries := make([]string, 0, len(items))
	for i := range items {
		item := &items[i]
		date := "date unknown"
		if item.Metadata.EventDate != nil {
			date = item.Metadata.EventDate.Format("2006-01-02")
		}
		desc := item.Description
		if desc == "" {
			desc = item.FileName
		}
		summaries = append(summaries, fmt.Sprintf("%s (%s, %s)", desc, item.Metadata.DocType, date))
	}
	return summaries
}

// normalizeElements converts per-element 0–3 scores into the 0–25
// component: round((Σ / (3·n)) · 25). Raw scores are clamped first.
func normalizeElements(scores []analysis.ElementScore, elementCount int) int {
	if elementCount == 0 {
		return 0
	}
	sum := 0
	for _, es := range scores {
		sum += clamp(es.Score, 0, 3)
	}
	normalized := math.Round(float64(sum) / float64(3*elementCount) * float64(maxElements))
	return clamp(int(normalized), 0, maxElements)
}

// scorePenalty computes the −15..0 deadline/staleness penalty, taking the
// more severe of the filing-deadline and elapsed-time deductions.
func (s *MeritScorer) scorePenalty(profile models.CaseProfile, result *models.MeritResult) int {
	now := s.now()
	deadlinePenalty := 0
	if profile.FilingDeadline != nil {
		until := profile.FilingDeadline.Sub(now)
		switch {
		case until < 0:
			deadlinePenalty = -15
			result.Weaknesses = append(result.Weaknesses, "Filing deadline has passed")
		case until < 7*24*time.Hour:
			deadlinePenalty = -7
			result.Weaknesses = append(result.Weaknesses, "Filing deadline is less than a week away")
		case until < 30*24*time.Hour:
			deadlinePenalty = -3
			result.Weaknesses = append(result.Weaknesses, "Filing deadline is approaching")
		}
	}

	elapsedPenalty := 0
	if profile.IncidentDate != nil {
		elapsed := now.Sub(*profile.IncidentDate)
		switch {
		case elapsed > 2*365*24*time.Hour:
			elapsedPenalty = -15
			result.Weaknesses = append(result.Weaknesses, "More than two years have passed since the incident")
		case elapsed > 18*30*24*time.Hour:
			elapsedPenalty = -7
			result.Weaknesses = append(result.Weaknesses, "More than eighteen months have passed since the incident")
		}
	}

	penalty := deadlinePenalty
	if elapsedPenalty < penalty {
		penalty = elapsedPenalty
	}
	return clamp(penalty, minPenalty, 0)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
