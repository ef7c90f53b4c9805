package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	IsAdmin      bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"not null"`
}

type TransformationModel struct {
	ID             string `gorm:"primaryKey"`
	InputText      string `gorm:"type:text;not null"`
	OutputText     string `gorm:"type:text;not null"`
	VerbosityLevel int    `gorm:"not null"`
	Persona        string `gorm:"not null"`
	APIProvider    string `gorm:"not null"`
	UserID         string `gorm:"not null;index"`
	Grounding      datatypes.JSON
	CreatedAt      time.Time `gorm:"not null;index"`
}
