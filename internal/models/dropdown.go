package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DropdownCategory groups selectable values. A nil InstitutionTypeID makes the
// category visible to every institution type.
type DropdownCategory struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	CategoryKey       string `gorm:"size:100;not null;uniqueIndex:uq_dropdown_category_scope,priority:1" json:"category_key"`
	CategoryName      string `gorm:"size:150;not null" json:"category_name"`
	InstitutionTypeID *uint  `gorm:"index" json:"institution_type_id"`
	// ScopeID mirrors InstitutionTypeID with 0 for shared categories so the
	// unique index also rejects two shared rows with the same key.
	ScopeID     uint      `gorm:"not null;default:0;uniqueIndex:uq_dropdown_category_scope,priority:2" json:"-"`
	Description string    `gorm:"size:255" json:"description"`
	IsSystem    bool      `gorm:"not null;default:false" json:"is_system"`
	IsActive    bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Values []DropdownValue `gorm:"foreignKey:CategoryID" json:"values,omitempty"`
}

func (DropdownCategory) TableName() string { return "dropdown_categories" }

// BeforeSave keeps ScopeID in step with InstitutionTypeID.
func (c *DropdownCategory) BeforeSave(tx *gorm.DB) error {
	c.ScopeID = CategoryScope(c.InstitutionTypeID)
	return nil
}

// CategoryScope returns the unique-index scope for an optional institution type.
func CategoryScope(institutionTypeID *uint) uint {
	if institutionTypeID == nil {
		return 0
	}
	return *institutionTypeID
}

// DropdownValue is one selectable entry of a category. Values are never hard
// deleted through the API; IsActive=false hides them.
type DropdownValue struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	CategoryID   uint   `gorm:"not null;index:idx_dropdown_value_order,priority:1;uniqueIndex:uq_dropdown_value_key,priority:1" json:"category_id"`
	Value        string `gorm:"size:255;not null" json:"value"`
	ValueKey     string `gorm:"size:255;not null;uniqueIndex:uq_dropdown_value_key,priority:2" json:"-"`
	DisplayOrder int    `gorm:"not null;default:0;index:idx_dropdown_value_order,priority:2" json:"display_order"`
	// ParentID points at another value of the same category.
	ParentID  *uint          `gorm:"index" json:"parent_id"`
	Metadata  datatypes.JSON `json:"metadata"`
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`

	Category *DropdownCategory `gorm:"foreignKey:CategoryID" json:"-"`
}

func (DropdownValue) TableName() string { return "dropdown_values" }

func (v *DropdownValue) BeforeCreate(tx *gorm.DB) error {
	if v.ValueKey == "" {
		v.ValueKey = strings.ToLower(strings.TrimSpace(v.Value))
	}
	return nil
}
