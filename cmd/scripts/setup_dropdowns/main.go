package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/techupgradenow/edumanage/internal/config"
	"github.com/techupgradenow/edumanage/internal/models"
	"github.com/techupgradenow/edumanage/pkg/logger"
	"gorm.io/gorm"
)

type categoryCount struct {
	CategoryKey  string
	CategoryName string
	Scope        string
	ValueCount   int64
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	summaryOnly := flag.Bool("summary-only", false, "print the summary without seeding")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	db := models.GetDB()
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if !*summaryOnly {
		if err := models.AutoMigrate(db); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		report, err := models.SeedDefaultData(db, &cfg.Admin)
		if err != nil {
			logger.Fatalf("Failed to seed dropdowns: %v", err)
		}
		fmt.Printf("Institution types created: %d\n", report.TypesCreated)
		fmt.Printf("Settings created:          %d\n", report.SettingsCreated)
		fmt.Printf("Categories created:        %d\n", report.CategoriesCreated)
		fmt.Printf("Values inserted:           %d\n", report.ValuesInserted)
		fmt.Println("")
	}

	if err := printSummary(db); err != nil {
		logger.Fatalf("Failed to build summary: %v", err)
	}
}

// printSummary lists, for each active institution type, the active categories
// it can see and their active value counts.
func printSummary(db *gorm.DB) error {
	var types []models.InstitutionType
	if err := db.Where("is_active = ?", true).Order("id").Find(&types).Error; err != nil {
		return err
	}

	for _, it := range types {
		var rows []categoryCount
		err := db.Table("dropdown_categories AS dc").
			Select(`dc.category_key, dc.category_name,
				CASE WHEN dc.institution_type_id IS NULL THEN 'shared' ELSE 'scoped' END AS scope,
				COUNT(dv.id) AS value_count`).
			Joins("LEFT JOIN dropdown_values dv ON dv.category_id = dc.id AND dv.is_active = ?", true).
			Where("(dc.institution_type_id = ? OR dc.institution_type_id IS NULL) AND dc.is_active = ?", it.ID, true).
			Group("dc.id, dc.category_key, dc.category_name, dc.institution_type_id").
			Order("dc.category_name").
			Scan(&rows).Error
		if err != nil {
			return fmt.Errorf("summarize %s: %w", it.Name, err)
		}

		var total int64
		fmt.Printf("%s (%d categories)\n", it.Name, len(rows))
		fmt.Printf("  %-20s %-25s %-8s %6s\n", "Key", "Name", "Scope", "Values")
		fmt.Println("  ------------------------------------------------------------------")
		for _, r := range rows {
			fmt.Printf("  %-20s %-25s %-8s %6d\n", r.CategoryKey, r.CategoryName, r.Scope, r.ValueCount)
			total += r.ValueCount
		}
		fmt.Printf("  Total active values: %d\n\n", total)
	}
	return nil
}
