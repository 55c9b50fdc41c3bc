package dtos

import (
	"time"

	"github.com/chatdesk/pkg/entities"
	"github.com/chatdesk/pkg/utils"
)

type ChatDTO struct {
	ID            uint       `json:"id"`
	Phone         string     `json:"phone"`
	JID           string     `json:"jid"`
	Name          string     `json:"name"`
	LastMessage   string     `json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`
	UnreadCount   int        `json:"unread_count"`
}

type MessageDTO struct {
	ID                uint      `json:"id"`
	ChatID            uint      `json:"chat_id"`
	Content           string    `json:"content"`
	IsFromMe          bool      `json:"is_from_me"`
	Status            string    `json:"status"`
	MessageType       string    `json:"message_type"`
	MediaURL          string    `json:"media_url,omitempty"`
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func NewChatDTO(c entities.Chat) ChatDTO {
	return ChatDTO{
		ID:            c.ID,
		Phone:         c.Phone,
		JID:           utils.PhoneJID(c.Phone),
		Name:          c.Name,
		LastMessage:   c.LastMessage,
		LastMessageAt: c.LastMessageAt,
		UnreadCount:   c.UnreadCount,
	}
}

func NewMessageDTO(m entities.Message) MessageDTO {
	out := MessageDTO{
		ID:          m.ID,
		ChatID:      m.ChatID,
		Content:     m.Content,
		IsFromMe:    m.IsFromMe,
		Status:      m.Status,
		MessageType: m.MessageType,
		MediaURL:    m.MediaURL,
		CreatedAt:   m.CreatedAt,
	}
	if m.ProviderMessageID != nil {
		out.ProviderMessageID = *m.ProviderMessageID
	}
	return out
}
