package entities

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	CampaignStatusPending = "pending"
	CampaignStatusRunning = "running"
	CampaignStatusDone    = "done"
	CampaignStatusFailed  = "failed"
)

// CampaignRecipient is one element of Campaign.Recipients.
type CampaignRecipient struct {
	Phone string `json:"phone"`
	Name  string `json:"name,omitempty"`
}

// Campaign is a template broadcast (renewal reminders, upsell) to a fixed
// recipient list.
type Campaign struct {
	gorm.Model
	UserID       uint           `json:"user_id" gorm:"not null;index"`
	Name         string         `json:"name" gorm:"type:varchar(255);not null"`
	TemplateName string         `json:"template_name" gorm:"type:varchar(255);not null"`
	LanguageCode string         `json:"language_code" gorm:"type:varchar(16);not null"`
	Parameters   datatypes.JSON `json:"parameters" gorm:"type:jsonb"`
	Recipients   datatypes.JSON `json:"recipients" gorm:"type:jsonb"`
	ScheduledAt  time.Time      `json:"scheduled_at" gorm:"index"`
	Status       string         `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	SentCount    int            `json:"sent_count" gorm:"not null;default:0"`
	FailedCount  int            `json:"failed_count" gorm:"not null;default:0"`
	StartedAt    *time.Time     `json:"started_at"`
	FinishedAt   *time.Time     `json:"finished_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
