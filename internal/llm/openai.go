package llm

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider and Moderator using the OpenAI Chat
// Completions and Moderations APIs.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithBaseURL(apiKey, model, "")
}

// NewOpenAIProviderWithBaseURL creates a provider that talks to an
// OpenAI-compatible endpoint. An empty baseURL uses the public API.
func NewOpenAIProviderWithBaseURL(apiKey, model, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: apiTemperature(req.Temperature),
	}

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	var content, finishReason string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		finishReason = string(resp.Choices[0].FinishReason)
	}

	return &CompletionResponse{
		Content:      content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Model:        resp.Model,
		FinishReason: finishReason,
	}, nil
}

// apiTemperature converts a temperature for the wire. The client omits a
// zero temperature, which the API would read as its default of 1.
func apiTemperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func (p *OpenAIProvider) Moderate(ctx context.Context, input string) (*ModerationResult, error) {
	resp, err := p.client.Moderations(ctx, openai.ModerationRequest{Input: input})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("moderation returned no results")
	}

	r := resp.Results[0]
	s := r.CategoryScores
	byName := map[string]float32{
		"harassment":             s.Harassment,
		"harassment/threatening": s.HarassmentThreatening,
		"hate":                   s.Hate,
		"hate/threatening":       s.HateThreatening,
		"self-harm":              s.SelfHarm,
		"self-harm/instructions": s.SelfHarmInstructions,
		"self-harm/intent":       s.SelfHarmIntent,
		"sexual":                 s.Sexual,
		"sexual/minors":          s.SexualMinors,
		"violence":               s.Violence,
		"violence/graphic":       s.ViolenceGraphic,
	}

	scores := make([]CategoryScore, 0, len(ModerationCategories))
	for _, name := range ModerationCategories {
		scores = append(scores, CategoryScore{Category: name, Score: float64(byName[name])})
	}

	return &ModerationResult{Flagged: r.Flagged, Scores: scores}, nil
}
