package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dctmfoo/HitchensRhetoricTransform/pkg/domain"
)

const (
	defaultOllamaModel = "llama3.1"

	ollamaTemperature = 0.7
	ollamaNumPredict  = 1024
)

// OllamaGenerator calls a local Ollama instance via /api/chat. It carries no
// API key; availability is controlled by configuring the base URL.
type OllamaGenerator struct {
	baseURL    string
	model      string
	personas   *PersonaSet
	httpClient *http.Client
}

// NewOllamaGenerator builds an Ollama-backed Generator.
func NewOllamaGenerator(baseURL, model string, personas *PersonaSet) (*OllamaGenerator, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("ollama: %w", ErrMissingCredential)
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaGenerator{
		baseURL:    baseURL,
		model:      model,
		personas:   personas,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

// Name implements Generator.
func (g *OllamaGenerator) Name() string { return "ollama" }

// Generate implements Generator using the Ollama chat API.
func (g *OllamaGenerator) Generate(ctx context.Context, text, persona string, verbosity domain.VerbosityLevel) (Result, error) {
	systemPrompt, ok := g.personas.SystemPrompt(persona)
	if !ok {
		return Result{}, fmt.Errorf("ollama: %w: %s", ErrUnknownPersona, persona)
	}
	reqBody := ollamaChatRequest{
		Model: g.model,
		Messages: []ollamaChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: UserPrompt(text, verbosity)},
		},
		Stream: false,
		Options: ollamaOptions{
			Temperature: ollamaTemperature,
			NumPredict:  ollamaNumPredict,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("ollama api error: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return Result{}, fmt.Errorf("ollama decode: %w", err)
	}
	generated := strings.TrimSpace(chatResp.Message.Content)
	if generated == "" {
		return Result{}, fmt.Errorf("ollama: %w", ErrEmptyResponse)
	}
	return Result{Text: generated}, nil
}

// Ollama /api/chat request/response types.

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  ollamaOptions       `json:"options"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
}
