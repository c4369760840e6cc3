package main

import (
	"github.com/techupgradenow/edumanage/internal/config"
	"github.com/techupgradenow/edumanage/internal/handlers"
	"github.com/techupgradenow/edumanage/internal/models"
	"github.com/techupgradenow/edumanage/internal/services"
	"github.com/techupgradenow/edumanage/internal/utils"
	"github.com/techupgradenow/edumanage/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	db                 *gorm.DB
	cache              services.DropdownCache
	activitySink       services.ActivitySink
	activityWorker     *services.ActivityWorker
	activityLogService *services.ActivityLogService

	authHandler        *handlers.AuthHandler
	dropdownHandler    *handlers.DropdownHandler
	institutionHandler *handlers.InstitutionHandler
	activityLogHandler *handlers.ActivityLogHandler
	healthHandler      *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	db := models.GetDB()

	if err := models.AutoMigrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	report, err := models.SeedDefaultData(db, &cfg.Admin)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	} else {
		logger.Info().
			Int("types", report.TypesCreated).
			Int("settings", report.SettingsCreated).
			Int("categories", report.CategoriesCreated).
			Int("values", report.ValuesInserted).
			Bool("admin_created", report.AdminCreated).
			Msg("Seed complete")
	}

	cache := services.InitDropdownCache(cfg)
	activitySink := services.InitActivitySink(cfg, db)

	// Start async worker if Redis is enabled
	var worker *services.ActivityWorker
	if activitySink.IsAsync() {
		worker = services.NewActivityWorker(&cfg.Redis, db)
		if worker != nil {
			worker.Start()
		}
	}

	activityLogService := services.NewActivityLogService(db)
	if err := activityLogService.StartCleanupScheduler(cfg.ActivityLog.CleanupCron, cfg.ActivityLog.RetentionDays); err != nil {
		logger.Warn().Err(err).Str("cron", cfg.ActivityLog.CleanupCron).Msg("Activity log cleanup not scheduled")
	}

	institutionService := services.NewInstitutionService(db)
	dropdownService := services.NewDropdownService(db, cache)

	return &appServices{
		db:                 db,
		cache:              cache,
		activitySink:       activitySink,
		activityWorker:     worker,
		activityLogService: activityLogService,

		authHandler:        handlers.NewAuthHandler(services.NewAuthService(db, &cfg.JWT)),
		dropdownHandler:    handlers.NewDropdownHandler(dropdownService, institutionService),
		institutionHandler: handlers.NewInstitutionHandler(institutionService),
		activityLogHandler: handlers.NewActivityLogHandler(activityLogService),
		healthHandler:      handlers.NewHealthHandler(db, cache, activitySink),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.activityLogService.StopCleanupScheduler()
	logger.Info().Msg("All schedulers stopped")

	if s.activitySink != nil {
		s.activitySink.Close()
	}
	if s.activityWorker != nil {
		s.activityWorker.Stop()
	}
	if closer, ok := s.cache.(interface{ Close() error }); ok {
		closer.Close()
	}
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}
