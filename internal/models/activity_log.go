package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog records a user-initiated write.
type ActivityLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    *uint          `gorm:"index" json:"user_id"`
	Username  string         `gorm:"size:100" json:"username"`
	Action    string         `gorm:"size:100;index" json:"action"`
	Module    string         `gorm:"size:100;index" json:"module"`
	Details   datatypes.JSON `json:"details"`
	IPAddress string         `gorm:"size:50" json:"ip_address"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
