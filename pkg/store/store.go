package store

import (
	"errors"

	"github.com/dctmfoo/HitchensRhetoricTransform/pkg/domain"
)

// ErrDuplicateUser is returned when saving a user collides with an existing
// username or email. Concurrent registrations that pass the pre-check surface
// here via the storage engine's uniqueness constraints.
var ErrDuplicateUser = errors.New("username or email already exists")

// Store defines persistence operations for users and transformations.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUsername(username string) (bool, error)
	HasUserEmail(email string) (bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	ListUsers() ([]domain.User, error)

	// transformations (append-only)
	SaveTransformation(domain.Transformation) error
	ListTransformationsByUser(userID string) ([]domain.Transformation, error)
	ListTransformations() ([]domain.Transformation, error)
}

// SessionStore persists server-side session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
