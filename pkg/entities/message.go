package entities

import "gorm.io/gorm"

const (
	MessageStatusReceived  = "received"
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
	MessageStatusFailed    = "failed"
)

const (
	MessageTypeText     = "text"
	MessageTypeImage    = "image"
	MessageTypeVideo    = "video"
	MessageTypeAudio    = "audio"
	MessageTypeDocument = "document"
	MessageTypeTemplate = "template"
)

// Message is append-only; only Status changes after insert.
type Message struct {
	gorm.Model
	ChatID            uint    `json:"chat_id" gorm:"not null;index"`
	Content           string  `json:"content" gorm:"type:text"`
	IsFromMe          bool    `json:"is_from_me" gorm:"not null;default:false"`
	Status            string  `json:"status" gorm:"type:varchar(32);not null"`
	MessageType       string  `json:"message_type" gorm:"type:varchar(32);not null;default:'text'"`
	MediaURL          string  `json:"media_url,omitempty" gorm:"type:text"`
	ProviderMessageID *string `json:"provider_message_id,omitempty" gorm:"type:varchar(255);uniqueIndex"`

	Chat Chat `json:"-" gorm:"foreignKey:ChatID"`
}
