package dtos

type UpsertCredentialDTO struct {
	PhoneNumberID      string `json:"phone_number_id" binding:"required"`
	WabaID             string `json:"waba_id"`
	AccessToken        string `json:"access_token" binding:"required"`
	DisplayPhoneNumber string `json:"display_phone_number"`
	APIVersion         string `json:"api_version"`
}

type AssistantToggleDTO struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

type CredentialDTO struct {
	PhoneNumberID      string `json:"phone_number_id"`
	WabaID             string `json:"waba_id"`
	DisplayPhoneNumber string `json:"display_phone_number"`
	APIVersion         string `json:"api_version"`
	AccessToken        string `json:"access_token"` // masked
	AssistantEnabled   bool   `json:"assistant_enabled"`
}

// SendTextDTO is an agent reply inside an existing chat.
type SendTextDTO struct {
	Message string `json:"message" binding:"required"`
}

// SendMediaDTO references media already hosted at Link or uploaded to the
// provider as MediaID.
type SendMediaDTO struct {
	Type     string `json:"type" binding:"required,oneof=image video audio document"`
	Link     string `json:"link" binding:"required_without=MediaID"`
	MediaID  string `json:"media_id"`
	Caption  string `json:"caption"`
	Filename string `json:"filename"`
}

// SendToPhoneDTO starts (or continues) a conversation by phone number.
type SendToPhoneDTO struct {
	PhoneNumber string `json:"phone_number" binding:"required,isphone"`
	Name        string `json:"name"`
	Message     string `json:"message" binding:"required"`
}

type MessageResponseDTO struct {
	MessageID         uint   `json:"message_id"`
	ProviderMessageID string `json:"provider_message_id"`
	ChatID            uint   `json:"chat_id"`
	Status            string `json:"status"`
	To                string `json:"to"`
	Timestamp         string `json:"timestamp"`
}

type ReceiptDTO struct {
	Correo      *string `json:"correo"`
	Numero      *string `json:"numero"`
	Vencimiento *string `json:"vencimiento"`
}

// SendTemplateDTO sends an approved template, the only kind of message
// allowed outside the 24h customer service window.
type SendTemplateDTO struct {
	PhoneNumber  string   `json:"phone_number" binding:"required,isphone"`
	Name         string   `json:"name"`
	TemplateName string   `json:"template_name" binding:"required"`
	LanguageCode string   `json:"language_code"`
	Parameters   []string `json:"parameters"`
}
