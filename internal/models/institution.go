package models

import "time"

// InstitutionType is an operating mode ("School", "College") that scopes
// which dropdown categories are visible.
type InstitutionType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func (InstitutionType) TableName() string { return "institution_types" }

// InstitutionSetting is a single global key/value pair.
type InstitutionSetting struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SettingKey   string    `gorm:"uniqueIndex;size:100;not null" json:"setting_key"`
	SettingValue string    `gorm:"type:text" json:"setting_value"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (InstitutionSetting) TableName() string { return "institution_settings" }

const (
	SettingInstitutionType = "institution_type"
	DefaultInstitutionType = "School"
	// FallbackInstitutionTypeID is used when the configured type name has no row.
	FallbackInstitutionTypeID uint = 1
)
