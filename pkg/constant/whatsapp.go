package constant

const (
	MESSAGE_SENT         = "Message sent successfully"
	MEDIA_SENT           = "Media message sent successfully"
	TEMPLATE_SENT        = "Template message sent successfully"
	CREDENTIALS_SAVED    = "WhatsApp credentials saved successfully"
	EVENT_RECEIVED       = "EVENT_RECEIVED"
	CHAT_MARKED_READ     = "Chat marked as read"
	CAMPAIGN_STARTED     = "Campaign started"
	RECEIPT_EXTRACTED    = "Receipt extracted successfully"
	CREDENTIALS_REQUIRED = "WhatsApp credentials are not configured"

	INVALID_PHONE_NUMBER   = "Invalid phone number format"
	PROVIDER_REJECTED      = "WhatsApp rejected the message"
	PROVIDER_UNREACHABLE   = "WhatsApp API unreachable"
	WEBHOOK_FORBIDDEN      = "forbidden"
	INVALID_SIGNATURE      = "invalid webhook signature"
	FILE_READ_FAILED       = "Failed to read file data"
	EXTRACTION_UNAVAILABLE = "receipt extraction is not configured"
)
