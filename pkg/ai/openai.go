package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dctmfoo/HitchensRhetoricTransform/pkg/domain"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o"

	// Fixed sampling parameters.
	openAITemperature = 0.85
	openAIMaxTokens   = 5000
)

// OpenAIGenerator calls any OpenAI-compatible /v1/chat/completions endpoint.
type OpenAIGenerator struct {
	baseURL    string
	apiKey     string
	model      string
	personas   *PersonaSet
	httpClient *http.Client
}

// NewOpenAIGenerator builds an OpenAI-backed Generator.
// baseURL defaults to the public OpenAI API and should include the /v1 prefix.
func NewOpenAIGenerator(apiKey, baseURL, model string, personas *PersonaSet) (*OpenAIGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingCredential)
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIGenerator{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		personas:   personas,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Name implements Generator.
func (g *OpenAIGenerator) Name() string { return "openai" }

// Generate implements Generator using the chat completions API.
func (g *OpenAIGenerator) Generate(ctx context.Context, text, persona string, verbosity domain.VerbosityLevel) (Result, error) {
	systemPrompt, ok := g.personas.SystemPrompt(persona)
	if !ok {
		return Result{}, fmt.Errorf("openai: %w: %s", ErrUnknownPersona, persona)
	}
	reqBody := oaiChatRequest{
		Model: g.model,
		Messages: []oaiMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: UserPrompt(text, verbosity)},
		},
		MaxTokens:   openAIMaxTokens,
		Temperature: openAITemperature,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp oaiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return Result{}, fmt.Errorf("openai api error: %s", errResp.Error.Message)
		}
		return Result{}, fmt.Errorf("openai api error: %s", resp.Status)
	}

	var chatResp oaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return Result{}, fmt.Errorf("openai decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return Result{}, fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	generated := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if generated == "" {
		return Result{}, fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	return Result{Text: generated}, nil
}

// OpenAI-compatible request/response types.

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiChatRequest struct {
	Model       string       `json:"model"`
	Messages    []oaiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature float64      `json:"temperature"`
}

type oaiChatResponse struct {
	Choices []struct {
		Message oaiMessage `json:"message"`
	} `json:"choices"`
}

type oaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
