package ai

import (
	"context"
	"errors"

	"github.com/dctmfoo/HitchensRhetoricTransform/pkg/domain"
)

var (
	// ErrMissingCredential means the backend's required secret is not configured.
	ErrMissingCredential = errors.New("provider credential not configured")
	// ErrEmptyResponse means the backend returned no generated text.
	ErrEmptyResponse = errors.New("empty response from provider")
	// ErrUnknownPersona means the persona is not in the persona set.
	ErrUnknownPersona = errors.New("unknown persona")
)

// Result is the outcome of one generation call.
type Result struct {
	Text      string
	Grounding *domain.Grounding
}

// Generator turns (text, persona, verbosity) into styled text via one external
// text-generation backend. All backends (OpenAI-compatible, Gemini, Ollama)
// implement this interface; the transform pipeline never sees which one.
type Generator interface {
	Name() string
	Generate(ctx context.Context, text, persona string, verbosity domain.VerbosityLevel) (Result, error)
}
