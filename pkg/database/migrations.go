package database

import (
	"github.com/chatdesk/pkg/entities"
	"gorm.io/gorm"
)

// AutoMigrate runs database migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entities.User{},
		&entities.WhatsAppCredential{},
		&entities.Chat{},
		&entities.Message{},
		&entities.Campaign{},
	)
}
