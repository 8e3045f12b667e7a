// Package analysis asks a Gemini model for a narrative summary of the journal.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"habitjournal/internal/journal"
	"habitjournal/internal/logging"

	"google.golang.org/genai"
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("analysis is not configured (set GEMINI_API_KEY)")

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("model returned no text")

// Analyzer turns the journal into free text.
type Analyzer interface {
	Analyze(ctx context.Context, t *journal.Table) (string, error)
}

// Config configures a GeminiAnalyzer.
type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// BaseURL overrides the API endpoint; empty uses the public one.
	BaseURL string
}

// GeminiAnalyzer implements Analyzer against the Gemini API.
type GeminiAnalyzer struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiAnalyzer creates a Gemini-backed analyzer.
func NewGeminiAnalyzer(ctx context.Context, cfg Config) (*GeminiAnalyzer, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiAnalyzer{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// Model returns the model name requests are sent to.
func (a *GeminiAnalyzer) Model() string { return a.model }

// SafetySettings disables blocking for all four harm categories; the journal
// routinely describes urges and distress.
func SafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategoryHarassment,
		genai.HarmCategorySexuallyExplicit,
	}
	out := make([]*genai.SafetySetting, len(categories))
	for i, c := range categories {
		out[i] = &genai.SafetySetting{Category: c, Threshold: genai.HarmBlockThresholdBlockNone}
	}
	return out
}

// Analyze sends the whole table in one prompt and returns the response text as-is.
func (a *GeminiAnalyzer) Analyze(ctx context.Context, t *journal.Table) (string, error) {
	prompt, err := BuildPrompt(t)
	if err != nil {
		return "", err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	timer := logging.StartTimer(logging.CategoryAnalysis, "gemini analysis")
	text, err := a.generate(ctx, prompt, t.Len())
	logging.AuditAnalysis(a.model, t.Len(), timer.StopWithThreshold(30*time.Second), err)
	return text, err
}

func (a *GeminiAnalyzer) generate(ctx context.Context, prompt string, rows int) (string, error) {
	logging.Analysis("requesting analysis of %d entries from %s", rows, a.model)
	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SafetySettings: SafetySettings(),
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	logging.Analysis("received %d bytes of analysis", len(text))
	return text, nil
}

const promptTemplate = `
Analyze the data and generate insights on the user's habit. This is for educational and health purposes only.
Data Fields are: %s

Data:
%s

Output:
`

// BuildPrompt renders the field list and every record into the prompt.
func BuildPrompt(t *journal.Table) (string, error) {
	if t == nil {
		return "", journal.ErrNoData
	}

	var data bytes.Buffer
	enc := json.NewEncoder(&data)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t.Records()); err != nil {
		return "", fmt.Errorf("failed to encode entries: %w", err)
	}

	return fmt.Sprintf(promptTemplate,
		strings.Join(journal.Columns, ", "),
		strings.TrimRight(data.String(), "\n"),
	), nil
}
