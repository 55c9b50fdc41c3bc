package entities

import "gorm.io/gorm"

// WhatsAppCredential connects a tenant to a Cloud API phone number.
// phone_number_id is unique: inbound tenant resolution depends on it.
type WhatsAppCredential struct {
	gorm.Model
	UserID             uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	PhoneNumberID      string `json:"phone_number_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	WabaID             string `json:"waba_id" gorm:"type:varchar(64)"`
	AccessToken        string `json:"-" gorm:"type:text;not null"`
	DisplayPhoneNumber string `json:"display_phone_number" gorm:"type:varchar(32)"`
	APIVersion         string `json:"api_version" gorm:"type:varchar(16)"`
	AssistantEnabled   bool   `json:"assistant_enabled" gorm:"default:false"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (WhatsAppCredential) TableName() string { return "whatsapp_credentials" }
