package models

import (
	"errors"
	"fmt"

	"github.com/techupgradenow/edumanage/internal/config"
	"github.com/techupgradenow/edumanage/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedReport counts what a seeding run changed.
type SeedReport struct {
	TypesCreated      int
	SettingsCreated   int
	CategoriesCreated int
	ValuesInserted    int
	ValuesSkipped     int
	AdminCreated      bool
}

var defaultInstitutionTypes = []InstitutionType{
	{Name: "School", Description: "Primary and Secondary Education Institution", IsActive: true},
	{Name: "College", Description: "Higher Education Institution", IsActive: true},
}

var defaultSettings = []InstitutionSetting{
	{SettingKey: SettingInstitutionType, SettingValue: DefaultInstitutionType},
	{SettingKey: "institution_name", SettingValue: "EduManage Pro"},
	{SettingKey: "institution_address", SettingValue: ""},
	{SettingKey: "institution_phone", SettingValue: ""},
	{SettingKey: "institution_email", SettingValue: ""},
	{SettingKey: "institution_logo", SettingValue: ""},
	{SettingKey: "academic_year", SettingValue: "2024-2025"},
}

// SeedDefaultData creates institution types, settings, the system dropdown
// categories with their values and the bootstrap admin. Existing rows are left
// untouched, so it is safe to run on every start.
func SeedDefaultData(db *gorm.DB, admin *config.AdminConfig) (*SeedReport, error) {
	report := &SeedReport{}

	err := db.Transaction(func(tx *gorm.DB) error {
		typeIDs := make(map[string]uint, len(defaultInstitutionTypes))
		for _, it := range defaultInstitutionTypes {
			row := it
			res := tx.Where(InstitutionType{Name: it.Name}).FirstOrCreate(&row)
			if res.Error != nil {
				return fmt.Errorf("seed institution type %s: %w", it.Name, res.Error)
			}
			if res.RowsAffected > 0 {
				report.TypesCreated++
			}
			typeIDs[row.Name] = row.ID
		}

		for _, s := range defaultSettings {
			row := s
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "setting_key"}},
				DoNothing: true,
			}).Create(&row)
			if res.Error != nil {
				return fmt.Errorf("seed setting %s: %w", s.SettingKey, res.Error)
			}
			report.SettingsCreated += int(res.RowsAffected)
		}

		for _, def := range DefaultDropdowns {
			if err := seedCategory(tx, def, typeIDs, report); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if admin != nil && admin.Username != "" {
		created, err := seedAdmin(db, admin)
		if err != nil {
			return nil, err
		}
		report.AdminCreated = created
	}
	return report, nil
}

func seedCategory(tx *gorm.DB, def DropdownDefault, typeIDs map[string]uint, report *SeedReport) error {
	var typeID *uint
	if def.InstitutionType != "" {
		id, ok := typeIDs[def.InstitutionType]
		if !ok {
			return fmt.Errorf("seed category %s: unknown institution type %s", def.Key, def.InstitutionType)
		}
		typeID = &id
	}

	var category DropdownCategory
	err := tx.Where("category_key = ? AND scope_id = ?", def.Key, CategoryScope(typeID)).First(&category).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		category = DropdownCategory{
			CategoryKey:       def.Key,
			CategoryName:      def.Name,
			InstitutionTypeID: typeID,
			Description:       def.Description,
			IsSystem:          true,
			IsActive:          true,
		}
		if err := tx.Create(&category).Error; err != nil {
			return fmt.Errorf("seed category %s: %w", def.Key, err)
		}
		report.CategoriesCreated++
	case err != nil:
		return fmt.Errorf("seed category %s: %w", def.Key, err)
	}

	for i, v := range def.Values {
		row := DropdownValue{
			CategoryID:   category.ID,
			Value:        v,
			DisplayOrder: i + 1,
			IsActive:     true,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return fmt.Errorf("seed value %s/%s: %w", def.Key, v, res.Error)
		}
		if res.RowsAffected > 0 {
			report.ValuesInserted++
		} else {
			report.ValuesSkipped++
		}
	}
	return nil
}

func seedAdmin(db *gorm.DB, admin *config.AdminConfig) (bool, error) {
	var count int64
	if err := db.Model(&User{}).Where("role = ?", RoleAdmin).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := utils.HashPassword(admin.Password)
	if err != nil {
		return false, err
	}
	user := User{
		Username: admin.Username,
		Password: hash,
		FullName: "Administrator",
		Role:     RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		return false, err
	}
	return true, nil
}
