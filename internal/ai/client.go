// Package ai wraps the Gemini API behind typed operations with prompt
// templates, JSON-mode responses and defined fallbacks.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/resumatch/apiserver/config"
	"github.com/resumatch/apiserver/types"
	"google.golang.org/api/option"
)

const structuredSchemaVersion = 1

// Client calls the Gemini API for resume structuring, job scoring and
// interview question generation.
type Client struct {
	client    *genai.Client
	modelName string
}

// NewClient constructs a Gemini-backed client from config.
func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	modelName := cfg.Model
	if strings.TrimSpace(modelName) == "" {
		modelName = "gemini-2.5-flash"
	}

	return &Client{
		client:    client,
		modelName: modelName,
	}, nil
}

// Close releases resources held by the client.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// generateJSON runs a prompt in JSON mode and returns the cleaned text.
func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.modelName)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractText(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", errors.New("no text parts in response")
	}
	return strings.Join(parts, ""), nil
}

// StructureResume asks the model to structure raw resume text. On any
// failure the caller falls back to FallbackStructure rather than failing
// the upload.
func (c *Client) StructureResume(ctx context.Context, rawText string) (types.StructuredResume, types.ParseMetadata, error) {
	text, err := c.generateJSON(ctx, structureResumePrompt(rawText))
	if err != nil {
		return types.StructuredResume{}, types.ParseMetadata{}, err
	}

	var payload struct {
		types.StructuredResume
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return types.StructuredResume{}, types.ParseMetadata{}, fmt.Errorf("unparseable structuring response: %w", err)
	}

	meta := types.ParseMetadata{
		Model:      c.modelName,
		Confidence: payload.Confidence,
		Version:    structuredSchemaVersion,
	}
	return payload.StructuredResume, meta, nil
}

// JobScore is the structured result of scoring one posting.
type JobScore struct {
	Score          int      `json:"match_score"`
	Reason         string   `json:"match_reason"`
	MatchingSkills []string `json:"matching_skills"`
	MissingSkills  []string `json:"missing_skills"`
	Strengths      []string `json:"strengths"`
	Improvements   []string `json:"improvements"`
}

// ScoreJob scores one job posting against a skill list. Callers
// substitute a zero score with an explanatory reason on failure instead
// of dropping the job.
func (c *Client) ScoreJob(ctx context.Context, title, description string, skills []string) (JobScore, error) {
	text, err := c.generateJSON(ctx, scoreJobPrompt(title, description, skills))
	if err != nil {
		return JobScore{}, err
	}

	var score JobScore
	if err := json.Unmarshal([]byte(text), &score); err != nil {
		return JobScore{}, fmt.Errorf("unparseable scoring response: %w", err)
	}
	score.Score = types.ClampScore(score.Score)
	return score, nil
}

// InterviewRequest describes the target role for question generation.
type InterviewRequest struct {
	Company         string
	Role            string
	Technologies    []string
	ExperienceLevel string
	QuestionCount   int
}

// GenerateInterview produces company research and a question bank for
// the requested role. Each question receives a fresh identifier and
// zeroed practice state.
func (c *Client) GenerateInterview(ctx context.Context, req InterviewRequest) (string, []types.Question, error) {
	text, err := c.generateJSON(ctx, generateInterviewPrompt(req))
	if err != nil {
		return "", nil, err
	}

	var payload struct {
		CompanyResearch string `json:"company_research"`
		Questions       []struct {
			Question    string   `json:"question"`
			Type        string   `json:"type"`
			Difficulty  string   `json:"difficulty"`
			Topic       string   `json:"topic"`
			ModelAnswer string   `json:"model_answer"`
			Hints       []string `json:"hints"`
			KeyPoints   []string `json:"key_points"`
			FollowUps   []string `json:"follow_ups"`
		} `json:"questions"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return "", nil, fmt.Errorf("unparseable generation response: %w", err)
	}
	if len(payload.Questions) == 0 {
		return "", nil, errors.New("generation returned no questions")
	}

	questions := make([]types.Question, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		questions = append(questions, types.Question{
			ID:          uuid.NewString(),
			Question:    q.Question,
			Type:        q.Type,
			Difficulty:  q.Difficulty,
			Topic:       q.Topic,
			ModelAnswer: q.ModelAnswer,
			Hints:       q.Hints,
			KeyPoints:   q.KeyPoints,
			FollowUps:   q.FollowUps,
		})
	}
	return payload.CompanyResearch, questions, nil
}
