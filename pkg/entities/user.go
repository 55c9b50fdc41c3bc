package entities

import "gorm.io/gorm"

// User is a tenant: the owner of one WhatsApp number and its chats.
type User struct {
	gorm.Model
	Email    string `json:"email" gorm:"unique;not null"`
	Password string `json:"-" gorm:"not null"`
	Name     string `json:"name" gorm:"type:varchar(255);not null"`
	Surname  string `json:"surname" gorm:"type:varchar(255)"`
	Phone    string `json:"phone" gorm:"type:varchar(20)"`
}
