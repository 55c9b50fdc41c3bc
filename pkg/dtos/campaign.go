package dtos

import "time"

type CampaignRecipientDTO struct {
	Phone string `json:"phone" binding:"required,isphone"`
	Name  string `json:"name"`
}

type CreateCampaignDTO struct {
	Name         string                 `json:"name" binding:"required"`
	TemplateName string                 `json:"template_name" binding:"required"`
	LanguageCode string                 `json:"language_code"`
	Parameters   []string               `json:"parameters"`
	Recipients   []CampaignRecipientDTO `json:"recipients" binding:"required,min=1,dive"`
	ScheduledAt  *time.Time             `json:"scheduled_at"`
}
