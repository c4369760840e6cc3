package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/techupgradenow/edumanage/internal/models"
	"github.com/techupgradenow/edumanage/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Institution is the institution type a request operates under.
type Institution struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type InstitutionService struct {
	db *gorm.DB
}

func NewInstitutionService(db *gorm.DB) *InstitutionService {
	return &InstitutionService{db: db}
}

// Resolve returns the effective institution type. An empty name falls back to
// the institution_type setting, then to "School". A name without a matching
// row resolves to id 1.
func (s *InstitutionService) Resolve(ctx context.Context, name string) (*Institution, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		current, err := s.GetWithDefault(ctx, models.SettingInstitutionType, models.DefaultInstitutionType)
		if err != nil {
			return nil, err
		}
		name = current
	}

	var row models.InstitutionType
	err := s.db.WithContext(ctx).Select("id", "name").Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Institution{ID: models.FallbackInstitutionTypeID, Name: name}, nil
	}
	if err != nil {
		return nil, response.NewDataAccess("Error resolving institution type", err)
	}
	return &Institution{ID: row.ID, Name: name}, nil
}

func (s *InstitutionService) Get(ctx context.Context, key string) (string, error) {
	var setting models.InstitutionSetting
	if err := s.db.WithContext(ctx).Where("setting_key = ?", key).First(&setting).Error; err != nil {
		return "", err
	}
	return setting.SettingValue, nil
}

// GetWithDefault returns defaultValue when the key is unset. Storage failures
// are still reported.
func (s *InstitutionService) GetWithDefault(ctx context.Context, key, defaultValue string) (string, error) {
	value, err := s.Get(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultValue, nil
	}
	if err != nil {
		return "", response.NewDataAccess("Error reading settings", err)
	}
	return value, nil
}

func (s *InstitutionService) Set(ctx context.Context, key, value string) error {
	return upsertSetting(s.db.WithContext(ctx), key, value)
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := models.InstitutionSetting{SettingKey: key, SettingValue: value}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"setting_value", "updated_at"}),
	}).Create(&setting).Error
}

// Settings returns every setting as key → value.
func (s *InstitutionService) Settings(ctx context.Context) (map[string]string, error) {
	var rows []models.InstitutionSetting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, response.NewDataAccess("Error fetching settings", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.SettingKey] = r.SettingValue
	}
	return out, nil
}

// UpdateSettings upserts every pair in one transaction. Non-string values are
// stored as their JSON text.
func (s *InstitutionService) UpdateSettings(ctx context.Context, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return response.NewValidation("Settings data is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, raw := range settings {
			key = strings.TrimSpace(key)
			if key == "" {
				return response.NewValidation("Setting keys cannot be empty")
			}
			value, err := settingText(raw)
			if err != nil {
				return response.NewValidation(fmt.Sprintf("Invalid value for %s", key))
			}
			if err := upsertSetting(tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var appErr *response.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return response.NewDataAccess("Error updating settings", err)
	}
	return nil
}

func settingText(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

// ListTypes returns active institution types ordered by id.
func (s *InstitutionService) ListTypes(ctx context.Context) ([]models.InstitutionType, error) {
	var types []models.InstitutionType
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&types).Error; err != nil {
		return nil, response.NewDataAccess("Error fetching institution types", err)
	}
	return types, nil
}

type CurrentTypeResponse struct {
	Type       string                  `json:"type"`
	Details    *models.InstitutionType `json:"details"`
	Categories []CategoryInfo          `json:"categories"`
}

// CurrentType reports the configured type, its row (nil when the name is
// unknown) and the active categories it can see.
func (s *InstitutionService) CurrentType(ctx context.Context) (*CurrentTypeResponse, error) {
	name, err := s.GetWithDefault(ctx, models.SettingInstitutionType, models.DefaultInstitutionType)
	if err != nil {
		return nil, err
	}

	resp := &CurrentTypeResponse{Type: name}
	typeID := models.FallbackInstitutionTypeID

	var row models.InstitutionType
	err = s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	switch {
	case err == nil:
		resp.Details = &row
		typeID = row.ID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, response.NewDataAccess("Error fetching current type", err)
	}

	resp.Categories, err = visibleCategories(ctx, s.db, typeID)
	if err != nil {
		return nil, response.NewDataAccess("Error fetching current type", err)
	}
	return resp, nil
}

type SetTypeResponse struct {
	Type       string         `json:"type"`
	TypeID     uint           `json:"type_id"`
	Categories []CategoryInfo `json:"categories"`
}

// SetType switches the active institution type. Only active types are accepted.
func (s *InstitutionService) SetType(ctx context.Context, name string) (*SetTypeResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, response.NewValidation("Institution type is required")
	}

	var row models.InstitutionType
	err := s.db.WithContext(ctx).Where("name = ? AND is_active = ?", name, true).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewValidation("Invalid institution type")
	}
	if err != nil {
		return nil, response.NewDataAccess("Error setting institution type", err)
	}

	if err := s.Set(ctx, models.SettingInstitutionType, row.Name); err != nil {
		return nil, response.NewDataAccess("Error setting institution type", err)
	}

	categories, err := visibleCategories(ctx, s.db, row.ID)
	if err != nil {
		return nil, response.NewDataAccess("Error setting institution type", err)
	}
	return &SetTypeResponse{Type: row.Name, TypeID: row.ID, Categories: categories}, nil
}
