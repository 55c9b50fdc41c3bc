package entities

import (
	"time"

	"gorm.io/gorm"
)

// Chat is a conversation between a tenant and one counterpart number.
// New rows store the prefixed digit form; older rows may not.
type Chat struct {
	gorm.Model
	UserID        uint       `json:"user_id" gorm:"not null;uniqueIndex:ux_chats_user_phone,priority:1"`
	Phone         string     `json:"phone" gorm:"type:varchar(32);not null;uniqueIndex:ux_chats_user_phone,priority:2"`
	Name          string     `json:"name" gorm:"type:varchar(255)"`
	LastMessage   string     `json:"last_message" gorm:"type:text"`
	LastMessageAt *time.Time `json:"last_message_at" gorm:"index"`
	UnreadCount   int        `json:"unread_count" gorm:"not null;default:0"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
