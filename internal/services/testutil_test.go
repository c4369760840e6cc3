package services

import (
	"testing"

	"github.com/techupgradenow/edumanage/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := models.Open(sqlite.Open(":memory:"), logger.Silent)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	db      *gorm.DB
	school  *Institution
	college *Institution
}

// newFixture creates School (id 1) and College (id 2) with School active.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	school := models.InstitutionType{Name: "School", Description: "Primary and Secondary", IsActive: true}
	college := models.InstitutionType{Name: "College", Description: "Higher Education", IsActive: true}
	mustCreate(t, db, &school)
	mustCreate(t, db, &college)
	mustCreate(t, db, &models.InstitutionSetting{SettingKey: models.SettingInstitutionType, SettingValue: "School"})

	return &fixture{
		db:      db,
		school:  &Institution{ID: school.ID, Name: school.Name},
		college: &Institution{ID: college.ID, Name: college.Name},
	}
}

func (f *fixture) category(t *testing.T, key, name string, typeID *uint, system bool, values ...string) *models.DropdownCategory {
	t.Helper()
	cat := &models.DropdownCategory{
		CategoryKey:       key,
		CategoryName:      name,
		InstitutionTypeID: typeID,
		IsSystem:          system,
		IsActive:          true,
	}
	mustCreate(t, f.db, cat)
	for i, v := range values {
		mustCreate(t, f.db, &models.DropdownValue{CategoryID: cat.ID, Value: v, DisplayOrder: i + 1, IsActive: true})
	}
	return cat
}

func mustCreate(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func uintPtr(v uint) *uint { return &v }
