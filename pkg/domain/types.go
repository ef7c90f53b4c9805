package domain

import "time"

// VerbosityLevel controls the requested length and detail of generated text.
type VerbosityLevel int

const (
	VerbosityBrief         VerbosityLevel = 1
	VerbosityModerate      VerbosityLevel = 2
	VerbosityComprehensive VerbosityLevel = 3
)

// Valid reports whether the level is one of the three defined levels.
func (v VerbosityLevel) Valid() bool {
	return v >= VerbosityBrief && v <= VerbosityComprehensive
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Transformation is one persisted request/response pair plus its parameters.
// Rows are append-only: created once per successful transform, never mutated.
type Transformation struct {
	ID             string         `json:"id"`
	InputText      string         `json:"input_text"`
	OutputText     string         `json:"output_text"`
	VerbosityLevel VerbosityLevel `json:"verbosity_level"`
	Persona        string         `json:"persona"`
	APIProvider    string         `json:"api_provider"`
	UserID         string         `json:"user_id"`
	Grounding      *Grounding     `json:"grounding,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Grounding carries optional citation/search-query metadata some providers
// attach to generated output. Passed through verbatim when present.
type Grounding struct {
	SearchQueries       []string           `json:"search_queries,omitempty"`
	Supports            []GroundingSupport `json:"supports,omitempty"`
	SearchSuggestionsUI string             `json:"search_suggestions_ui,omitempty"`
}

type GroundingSupport struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence,omitempty"`
	Sources    []string `json:"sources,omitempty"`
}
