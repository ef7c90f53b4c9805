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
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-1.5-pro-002"

	// Fixed sampling parameters.
	geminiTemperature     = 0.7
	geminiTopP            = 1
	geminiTopK            = 40
	geminiMaxOutputTokens = 1024
)

// GeminiGenerator calls the Google AI Studio (Gemini) API with Google Search
// grounding enabled. Grounding metadata, when the backend returns it, is
// passed through on the Result.
type GeminiGenerator struct {
	apiKey     string
	baseURL    string
	model      string
	personas   *PersonaSet
	httpClient *http.Client
}

// NewGeminiGenerator builds a Gemini-backed Generator.
func NewGeminiGenerator(apiKey, model string, personas *PersonaSet) (*GeminiGenerator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingCredential)
	}
	model = normalizeGeminiModel(model)
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiGenerator{
		apiKey:     apiKey,
		baseURL:    defaultGeminiBaseURL,
		model:      model,
		personas:   personas,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Name implements Generator.
func (g *GeminiGenerator) Name() string { return "gemini" }

// Generate implements Generator using generateContent.
func (g *GeminiGenerator) Generate(ctx context.Context, text, persona string, verbosity domain.VerbosityLevel) (Result, error) {
	systemPrompt, ok := g.personas.SystemPrompt(persona)
	if !ok {
		return Result{}, fmt.Errorf("gemini: %w: %s", ErrUnknownPersona, persona)
	}
	reqBody := geminiGenerateRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: GroundedUserPrompt(text, verbosity)}},
			},
		},
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     geminiTemperature,
			TopP:            geminiTopP,
			TopK:            geminiTopK,
			MaxOutputTokens: geminiMaxOutputTokens,
		},
		Tools: []geminiTool{{GoogleSearch: &struct{}{}}},
	}

	var resp geminiGenerateResponse
	if err := g.doJSON(ctx, fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey), reqBody, &resp); err != nil {
		return Result{}, err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return Result{}, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	candidate := resp.Candidates[0]
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	generated := strings.TrimSpace(sb.String())
	if generated == "" {
		return Result{}, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return Result{
		Text:      generated,
		Grounding: groundingFromMetadata(candidate.GroundingMetadata),
	}, nil
}

func groundingFromMetadata(meta *geminiGroundingMetadata) *domain.Grounding {
	if meta == nil {
		return nil
	}
	grounding := &domain.Grounding{
		SearchQueries: meta.WebSearchQueries,
	}
	for _, support := range meta.GroundingSupports {
		item := domain.GroundingSupport{Text: support.Segment.Text}
		if len(support.ConfidenceScores) > 0 {
			score := support.ConfidenceScores[0]
			item.Confidence = &score
		}
		for _, idx := range support.GroundingChunkIndices {
			if idx >= 0 && idx < len(meta.GroundingChunks) {
				item.Sources = append(item.Sources, meta.GroundingChunks[idx].Web.URI)
			}
		}
		grounding.Supports = append(grounding.Supports, item)
	}
	if meta.SearchEntryPoint != nil {
		grounding.SearchSuggestionsUI = meta.SearchEntryPoint.RenderedContent
	}
	if len(grounding.SearchQueries) == 0 && len(grounding.Supports) == 0 && grounding.SearchSuggestionsUI == "" {
		return nil
	}
	return grounding
}

func (g *GeminiGenerator) doJSON(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp geminiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return fmt.Errorf("gemini api error: %s", errResp.Error.Message)
		}
		return fmt.Errorf("gemini api error: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("gemini decode: %w", err)
	}
	return nil
}

func normalizeGeminiModel(model string) string {
	model = strings.TrimSpace(model)
	return strings.TrimPrefix(model, "models/")
}

// Gemini v1beta request/response types.

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type geminiGenerateRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
	Tools             []geminiTool            `json:"tools,omitempty"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content           geminiContent            `json:"content"`
		GroundingMetadata *geminiGroundingMetadata `json:"groundingMetadata"`
	} `json:"candidates"`
}

type geminiGroundingMetadata struct {
	WebSearchQueries []string `json:"webSearchQueries"`
	GroundingChunks  []struct {
		Web struct {
			URI   string `json:"uri"`
			Title string `json:"title"`
		} `json:"web"`
	} `json:"groundingChunks"`
	GroundingSupports []struct {
		Segment struct {
			Text string `json:"text"`
		} `json:"segment"`
		GroundingChunkIndices []int     `json:"groundingChunkIndices"`
		ConfidenceScores      []float64 `json:"confidenceScores"`
	} `json:"groundingSupports"`
	SearchEntryPoint *struct {
		RenderedContent string `json:"renderedContent"`
	} `json:"searchEntryPoint"`
}

type geminiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
