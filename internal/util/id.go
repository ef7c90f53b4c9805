package util

import "github.com/google/uuid"

// NewID returns a random identifier for new entities.
func NewID() string {
	return uuid.NewString()
}
