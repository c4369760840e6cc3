package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/techupgradenow/edumanage/internal/models"
	"github.com/techupgradenow/edumanage/pkg/logger"
	"github.com/techupgradenow/edumanage/pkg/response"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityEntry is one user action waiting to be written.
type ActivityEntry struct {
	UserID    *uint                  `json:"user_id,omitempty"`
	Username  string                 `json:"username,omitempty"`
	Action    string                 `json:"action"`
	Module    string                 `json:"module"`
	Details   map[string]interface{} `json:"details,omitempty"`
	IPAddress string                 `json:"ip_address"`
	CreatedAt time.Time              `json:"created_at"`
}

// writeActivity persists an entry.
func writeActivity(ctx context.Context, db *gorm.DB, entry *ActivityEntry) error {
	row := models.ActivityLog{
		UserID:    entry.UserID,
		Username:  entry.Username,
		Action:    entry.Action,
		Module:    entry.Module,
		IPAddress: entry.IPAddress,
		CreatedAt: entry.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	if len(entry.Details) > 0 {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return err
		}
		row.Details = datatypes.JSON(b)
	}
	return db.WithContext(ctx).Create(&row).Error
}

type ActivityLogService struct {
	db        *gorm.DB
	scheduler *cron.Cron
}

func NewActivityLogService(db *gorm.DB) *ActivityLogService {
	return &ActivityLogService{db: db}
}

type ActivityLogListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Module   string `form:"module"`
	Action   string `form:"action"`
	UserID   *uint  `form:"user_id"`
}

type ActivityLogListResponse struct {
	Total    int64                `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
	Items    []models.ActivityLog `json:"items"`
}

func (s *ActivityLogService) List(ctx context.Context, req *ActivityLogListRequest) (*ActivityLogListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&models.ActivityLog{})
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action LIKE ?", "%"+req.Action+"%")
	}
	if req.UserID != nil {
		query = query.Where("user_id = ?", *req.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, response.NewDataAccess("Error fetching activity logs", err)
	}

	logs := []models.ActivityLog{}
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, response.NewDataAccess("Error fetching activity logs", err)
	}

	return &ActivityLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    logs,
	}, nil
}

func (s *ActivityLogService) Modules(ctx context.Context) ([]string, error) {
	modules := []string{}
	if err := s.db.WithContext(ctx).Model(&models.ActivityLog{}).Distinct("module").Order("module").Pluck("module", &modules).Error; err != nil {
		return nil, response.NewDataAccess("Error fetching activity modules", err)
	}
	return modules, nil
}

// CleanupOldLogs deletes entries older than retentionDays and returns how
// many were removed. A non-positive retention disables cleanup.
func (s *ActivityLogService) CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// StartCleanupScheduler runs the cleanup once immediately and then on the
// given cron schedule.
func (s *ActivityLogService) StartCleanupScheduler(spec string, retentionDays int) error {
	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc(spec, func() { s.runCleanup(retentionDays) }); err != nil {
		return err
	}

	go s.runCleanup(retentionDays)
	s.scheduler.Start()
	logger.Infof("[ActivityLog] Cleanup scheduled (cron: %s, retention: %d days)", spec, retentionDays)
	return nil
}

func (s *ActivityLogService) StopCleanupScheduler() {
	if s.scheduler != nil {
		<-s.scheduler.Stop().Done()
	}
}

func (s *ActivityLogService) runCleanup(retentionDays int) {
	if retentionDays <= 0 {
		logger.Infof("[ActivityLog] Cleanup disabled (retention_days <= 0)")
		return
	}

	deleted, err := s.CleanupOldLogs(context.Background(), retentionDays)
	if err != nil {
		logger.Errorf("[ActivityLog] Failed to cleanup old logs: %v", err)
		return
	}
	if deleted > 0 {
		logger.Infof("[ActivityLog] Cleaned up %d logs older than %d days", deleted, retentionDays)
	}
}
