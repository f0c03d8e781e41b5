package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/argussec/argusgo/internal/config"
	"github.com/argussec/argusgo/internal/models"
)

// Triage asks Gemini for a structured incident assessment. It is an
// optional helper; the agent runs fine without a configured key.
type Triage struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// Assessment is the structured triage verdict
type Assessment struct {
	Severity   models.Severity `json:"severity"`
	Rationale  string          `json:"rationale"`
	Tags       []string        `json:"tags,omitempty"`
	Playbook   []string        `json:"playbook,omitempty"`
	Confidence float64         `json:"confidence"`
}

// NewTriage creates the Gemini-backed triage helper
func NewTriage(ctx context.Context, cfg config.AIConfig) (*Triage, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	return &Triage{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Close closes the client connection
func (t *Triage) Close() {
	if t.client != nil {
		t.client.Close()
	}
}

// Assess runs a single-shot triage of the incident
func (t *Triage) Assess(ctx context.Context, inc models.Incident) (*Assessment, error) {
	prompt := buildTriagePrompt(inc)

	resp, err := t.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	var fullText string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			fullText += string(txt)
		}
	}

	return parseAssessment(fullText)
}

// parseAssessment turns raw model output into a validated Assessment
func parseAssessment(raw string) (*Assessment, error) {
	cleaned := sanitizeJSON(raw)

	var out Assessment
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("triage output is not valid JSON: %w", err)
	}

	out.Severity = models.Severity(strings.ToLower(string(out.Severity)))
	if !out.Severity.Valid() {
		return nil, fmt.Errorf("triage returned unknown severity %q", out.Severity)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		return nil, fmt.Errorf("triage confidence %v out of range", out.Confidence)
	}

	return &out, nil
}

// sanitizeJSON cleans raw model output to extract valid JSON.
// It removes Markdown code blocks (```json ... ```) and whitespace.
func sanitizeJSON(input string) string {
	cleaned := strings.TrimSpace(input)

	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}

	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSuffix(cleaned, "```")
	}

	return strings.TrimSpace(cleaned)
}
