package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dctmfoo/HitchensRhetoricTransform/internal/usertoken"
	"github.com/dctmfoo/HitchensRhetoricTransform/internal/util"
	"github.com/dctmfoo/HitchensRhetoricTransform/pkg/ai"
	"github.com/dctmfoo/HitchensRhetoricTransform/pkg/auth"
	"github.com/dctmfoo/HitchensRhetoricTransform/pkg/domain"
	"github.com/dctmfoo/HitchensRhetoricTransform/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	TokenSecret string
	TokenTTL    time.Duration
	SessionTTL  time.Duration

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiAPIKey  string
	GeminiModel   string
	OllamaBaseURL string
	OllamaModel   string

	DefaultProvider   string
	GenerationTimeout time.Duration
	PersonasFile      string

	// Injection points for tests; built from the fields above when nil.
	Store    store.Store
	Sessions store.SessionStore
	Tokens   *usertoken.Issuer
	Personas *ai.PersonaSet
	Registry *ai.Registry
}

// App is the core application service wiring together storage, auth, and the
// text-transformation pipeline.
type App struct {
	store      store.Store
	sessions   store.SessionStore
	tokens     *usertoken.Issuer
	personas   *ai.PersonaSet
	registry   *ai.Registry
	genTimeout time.Duration
}

// New constructs the application. The provider registry is computed once from
// the configured credentials: a backend without its credential simply does
// not appear in the available set.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.GenerationTimeout == 0 {
		cfg.GenerationTimeout = 60 * time.Second
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessions := cfg.Sessions
	if sessions == nil {
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, fmt.Errorf("redisAddr is required for the session store")
		}
		sessions = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
	}

	tokens := cfg.Tokens
	if tokens == nil {
		var err error
		tokens, err = usertoken.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("init token issuer: %w", err)
		}
	}

	personas := cfg.Personas
	if personas == nil {
		personas = ai.DefaultPersonas()
		if cfg.PersonasFile != "" {
			if err := personas.MergeFile(cfg.PersonasFile); err != nil {
				return nil, err
			}
		}
	}

	registry := cfg.Registry
	if registry == nil {
		var err error
		registry, err = buildRegistry(cfg, personas)
		if err != nil {
			return nil, err
		}
	}

	return &App{
		store:      dataStore,
		sessions:   sessions,
		tokens:     tokens,
		personas:   personas,
		registry:   registry,
		genTimeout: cfg.GenerationTimeout,
	}, nil
}

func buildRegistry(cfg Config, personas *ai.PersonaSet) (*ai.Registry, error) {
	var generators []ai.Generator
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		gen, err := ai.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, personas)
		if err != nil {
			return nil, fmt.Errorf("init openai provider: %w", err)
		}
		generators = append(generators, gen)
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gen, err := ai.NewGeminiGenerator(cfg.GeminiAPIKey, cfg.GeminiModel, personas)
		if err != nil {
			return nil, fmt.Errorf("init gemini provider: %w", err)
		}
		generators = append(generators, gen)
	}
	if strings.TrimSpace(cfg.OllamaBaseURL) != "" {
		gen, err := ai.NewOllamaGenerator(cfg.OllamaBaseURL, cfg.OllamaModel, personas)
		if err != nil {
			return nil, fmt.Errorf("init ollama provider: %w", err)
		}
		generators = append(generators, gen)
	}
	defaultProvider := cfg.DefaultProvider
	if defaultProvider == "" {
		defaultProvider = "openai"
	}
	return ai.NewRegistry(defaultProvider, generators...)
}

// Register creates a new user and, like Login, issues a bearer token plus a
// server-side session.
func (a *App) Register(username, email, password string) (domain.User, string, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" || password == "" {
		return domain.User{}, "", "", ErrMissingFields
	}
	exists, err := a.store.HasUsername(username)
	if err != nil {
		return domain.User{}, "", "", fmt.Errorf("check username: %w", err)
	}
	if exists {
		return domain.User{}, "", "", ErrUsernameExists
	}
	exists, err = a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, "", "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, "", "", ErrEmailExists
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", "", fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           util.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.SaveUser(user); err != nil {
		// The pre-check above is not atomic with the insert; a concurrent
		// registration can land here via the uniqueness constraint.
		if errors.Is(err, store.ErrDuplicateUser) {
			if taken, checkErr := a.store.HasUsername(username); checkErr == nil && taken {
				return domain.User{}, "", "", ErrUsernameExists
			}
			return domain.User{}, "", "", ErrEmailExists
		}
		return domain.User{}, "", "", fmt.Errorf("save user: %w", err)
	}
	return a.issueCredentials(user)
}

// Login validates credentials and issues a bearer token plus a session.
func (a *App) Login(username, password string) (domain.User, string, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, "", "", ErrMissingFields
	}
	user, ok, err := a.store.GetUserByUsername(username)
	if err != nil {
		return domain.User{}, "", "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", "", ErrInvalidCredentials
	}
	return a.issueCredentials(user)
}

func (a *App) issueCredentials(user domain.User) (domain.User, string, string, error) {
	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		return domain.User{}, "", "", fmt.Errorf("issue token: %w", err)
	}
	session, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", "", fmt.Errorf("create session: %w", err)
	}
	return user, token, session, nil
}

// UserFromToken resolves a user from a bearer token. Missing, malformed, or
// expired tokens resolve to false, never to an error.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	userID, err := a.tokens.Verify(token)
	if err != nil {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(userID)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// UserFromSession resolves a user from a server-side session token.
func (a *App) UserFromSession(sessionToken string) (domain.User, bool) {
	userID, ok, err := a.sessions.GetUserIDByToken(sessionToken)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(userID)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// Logout invalidates the server-side session. Bearer tokens are stateless
// and simply expire.
func (a *App) Logout(sessionToken string) error {
	if strings.TrimSpace(sessionToken) == "" {
		return nil
	}
	return a.sessions.DeleteSession(sessionToken)
}

// TransformRequest carries the validated-to-be inputs of one transform call.
type TransformRequest struct {
	Text        string
	Verbosity   domain.VerbosityLevel
	Persona     string
	APIProvider string
}

// TransformResult is the response shape of a successful transform.
type TransformResult struct {
	TransformedText string            `json:"transformed_text"`
	ID              string            `json:"id"`
	APIProvider     string            `json:"api_provider"`
	Grounding       *domain.Grounding `json:"grounding,omitempty"`
}

// Transform validates the request, calls the selected provider, persists the
// outcome, and shapes the response. A provider failure aborts the request
// with nothing persisted; a persistence failure is surfaced to the caller
// rather than silently returning the generated text.
func (a *App) Transform(ctx context.Context, user domain.User, req TransformRequest) (TransformResult, error) {
	if a.registry.Empty() {
		return TransformResult{}, ErrNoProviders
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return TransformResult{}, ErrEmptyInput
	}
	if !req.Verbosity.Valid() {
		return TransformResult{}, ErrInvalidVerbosity
	}
	persona := strings.ToLower(strings.TrimSpace(req.Persona))
	if !a.personas.Has(persona) {
		return TransformResult{}, fmt.Errorf("%w: %s", ErrInvalidPersona, persona)
	}
	providerName := strings.ToLower(strings.TrimSpace(req.APIProvider))
	if providerName == "" {
		providerName = a.registry.DefaultName()
	}
	generator, ok := a.registry.Get(providerName)
	if !ok {
		return TransformResult{}, fmt.Errorf("%w: %s", ErrInvalidProvider, providerName)
	}

	genCtx, cancel := context.WithTimeout(ctx, a.genTimeout)
	defer cancel()
	result, err := generator.Generate(genCtx, text, persona, req.Verbosity)
	if err != nil {
		return TransformResult{}, fmt.Errorf("generate text: %w", err)
	}

	transformation := domain.Transformation{
		ID:             util.NewID(),
		InputText:      text,
		OutputText:     result.Text,
		VerbosityLevel: req.Verbosity,
		Persona:        persona,
		APIProvider:    providerName,
		UserID:         user.ID,
		Grounding:      result.Grounding,
		CreatedAt:      time.Now().UTC(),
	}
	if err := a.store.SaveTransformation(transformation); err != nil {
		return TransformResult{}, fmt.Errorf("save transformation: %w", err)
	}
	return TransformResult{
		TransformedText: result.Text,
		ID:              transformation.ID,
		APIProvider:     providerName,
		Grounding:       result.Grounding,
	}, nil
}

// Providers lists available provider names and the default provider.
func (a *App) Providers() ([]string, string, error) {
	if a.registry.Empty() {
		return nil, "", ErrNoProviders
	}
	return a.registry.Names(), a.registry.DefaultName(), nil
}

// History returns the caller's transformations, newest first.
func (a *App) History(user domain.User) ([]domain.Transformation, error) {
	return a.store.ListTransformationsByUser(user.ID)
}

// AdminListTransformations returns all transformations system-wide.
func (a *App) AdminListTransformations() ([]domain.Transformation, error) {
	return a.store.ListTransformations()
}

// AdminListUsers returns all users.
func (a *App) AdminListUsers() ([]domain.User, error) {
	return a.store.ListUsers()
}

// AdminSetAdmin flips the target user's admin flag. An admin cannot remove
// their own access.
func (a *App) AdminSetAdmin(admin domain.User, userID string, isAdmin bool) (domain.User, error) {
	target, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	if target.ID == admin.ID && !isAdmin {
		return domain.User{}, ErrSelfDemotion
	}
	target.IsAdmin = isAdmin
	if err := a.store.SaveUser(target); err != nil {
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return target, nil
}
