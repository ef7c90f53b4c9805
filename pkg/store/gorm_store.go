package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dctmfoo/HitchensRhetoricTransform/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations. TranslateError is on so
// unique-constraint violations surface as gorm.ErrDuplicatedKey.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &TransformationModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser registers or updates a user. Username/email collisions from
// concurrent registration are reported as ErrDuplicateUser.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "email", "password_hash", "is_admin"}),
	}).Create(&model).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateUser
	}
	return err
}

// HasUsername checks if username exists.
func (s *GormStore) HasUsername(username string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByUsername looks up a user by username.
func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("username = ?", username).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsers returns all users ordered by created_at.
func (s *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// SaveTransformation appends a transformation row.
func (s *GormStore) SaveTransformation(t domain.Transformation) error {
	model, err := transformationToModel(t)
	if err != nil {
		return err
	}
	return s.db.Create(&model).Error
}

// ListTransformationsByUser returns the user's transformations, newest first.
func (s *GormStore) ListTransformationsByUser(userID string) ([]domain.Transformation, error) {
	return s.listTransformations("user_id = ?", userID)
}

// ListTransformations returns all transformations system-wide, newest first.
func (s *GormStore) ListTransformations() ([]domain.Transformation, error) {
	return s.listTransformations()
}

func (s *GormStore) listTransformations(conds ...any) ([]domain.Transformation, error) {
	var models []TransformationModel
	tx := s.db.Order("created_at DESC")
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Transformation, 0, len(models))
	for _, m := range models {
		t, err := transformationFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		IsAdmin:      m.IsAdmin,
		CreatedAt:    m.CreatedAt,
	}
}

func transformationToModel(t domain.Transformation) (TransformationModel, error) {
	model := TransformationModel{
		ID:             t.ID,
		InputText:      t.InputText,
		OutputText:     t.OutputText,
		VerbosityLevel: int(t.VerbosityLevel),
		Persona:        t.Persona,
		APIProvider:    t.APIProvider,
		UserID:         t.UserID,
		CreatedAt:      t.CreatedAt,
	}
	if t.Grounding != nil {
		raw, err := json.Marshal(t.Grounding)
		if err != nil {
			return TransformationModel{}, fmt.Errorf("marshal grounding: %w", err)
		}
		model.Grounding = raw
	}
	return model, nil
}

func transformationFromModel(m TransformationModel) (domain.Transformation, error) {
	t := domain.Transformation{
		ID:             m.ID,
		InputText:      m.InputText,
		OutputText:     m.OutputText,
		VerbosityLevel: domain.VerbosityLevel(m.VerbosityLevel),
		Persona:        m.Persona,
		APIProvider:    m.APIProvider,
		UserID:         m.UserID,
		CreatedAt:      m.CreatedAt,
	}
	if len(m.Grounding) > 0 {
		var grounding domain.Grounding
		if err := json.Unmarshal(m.Grounding, &grounding); err != nil {
			return domain.Transformation{}, fmt.Errorf("unmarshal grounding: %w", err)
		}
		t.Grounding = &grounding
	}
	return t, nil
}
