package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	generationAPI  = "https://generativelanguage.googleapis.com/v1beta/models/gemini-3-pro-preview:generateContent"
	maxRetries     = 3
	initialBackoff = time.Second
)

// GeminiAnalyzer implements Analyzer against the Gemini generation API.
// Calls go through raw HTTP so the response (finish reasons, block
// reasons, malformed candidates) can be inspected before trusting it.
type GeminiAnalyzer struct {
	client     *genai.Client
	httpClient *http.Client
	apiKey     string
}

// NewGeminiAnalyzer creates a Gemini-backed analyzer. The API key comes
// from GEMINI_API_KEY.
func NewGeminiAnalyzer(ctx context.Context) (*GeminiAnalyzer, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		log.Println("Warning: GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &GeminiAnalyzer{
		client:     client,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
	}, nil
}

// Name implements Analyzer
func (a *GeminiAnalyzer) Name() string {
	return "gemini"
}

// Analyze implements Analyzer. The model is asked for a single JSON
// object; the raw output is decoded defensively and returned un-clamped
// (the scorer normalizes every field).
func (a *GeminiAnalyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	prompt := buildAnalysisPrompt(req)

	var raw string
	var err error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		raw, err = a.callGenerationAPI(ctx, prompt)
		if err == nil && raw != "" {
			break
		}
		if attempt == maxRetries-1 {
			return nil, fmt.Errorf("analysis failed after %d attempts: %w", maxRetries, err)
		}
	}

	result, err := decodeAnalysisResult(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode analysis output: %w", err)
	}
	return result, nil
}

func buildAnalysisPrompt(req Request) string {
	var elements strings.Builder
	for _, el := range req.Elements {
		elements.WriteString(fmt.Sprintf("- %s: %s\n", el.ID, el.Description))
	}

	var summaries strings.Builder
	for i, s := range req.EvidenceSummaries {
		summaries.WriteString(fmt.Sprintf("%d. %s\n", i+1, s))
	}

	return fmt.Sprintf(`You are a legal analyst assessing a self-represented party's case.

CASE FACTS:
%s

ISSUE TYPE: %s

LEGAL ELEMENTS TO ASSESS:
%s
EVIDENCE SUMMARIES:
%s
TASK:
Score each legal element 0-3 for how well the case facts and evidence
support it (0 = no support, 3 = strong documented support) and report
whether any evidence matches the element. Then score the overall evidence
strength 0-25 and the case-law alignment 0-25, listing any well-known
decisions that support the claim.

OUTPUT REQUIREMENTS:
- Respond with exactly one JSON object, no markdown fences, no commentary
- Schema: {"element_scores":[{"element_id":string,"score":int,"matched":bool}],
  "evidence_score":int,"case_law_score":int,"case_law_matches":[string],
  "strengths":[string],"risks":[string],"next_actions":[string]}
- Use only element IDs from the list above
- Never invent evidence that was not summarized`,
		req.CaseFacts, req.IssueType, elements.String(), summaries.String())
}

// callGenerationAPI calls the Gemini generation API directly via HTTP
func (a *GeminiAnalyzer) callGenerationAPI(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature":      0.1,
			"responseMimeType": "application/json",
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", generationAPI, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Printf("Gemini API error: Status %d, Body: %s", resp.StatusCode, truncate(string(bodyBytes), 500))
		return "", fmt.Errorf("API error: %d", resp.StatusCode)
	}

	var apiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason,omitempty"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason,omitempty"`
		} `json:"promptFeedback,omitempty"`
	}

	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if apiResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("API blocked prompt: %s", apiResp.PromptFeedback.BlockReason)
	}

	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("API returned no candidates")
	}

	var text strings.Builder
	for i, candidate := range apiResp.Candidates {
		if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
			log.Printf("Warning: Candidate %d finished with reason: %s", i, candidate.FinishReason)
		}
		for _, part := range candidate.Content.Parts {
			text.WriteString(part.Text)
		}
	}

	result := text.String()
	if result == "" {
		return "", fmt.Errorf("API returned empty content")
	}
	return result, nil
}

// decodeAnalysisResult parses the model's JSON output, tolerating stray
// markdown fences some responses still carry.
func decodeAnalysisResult(raw string) (*Result, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
