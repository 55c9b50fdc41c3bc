package routes

import (
	"net/http"

	"github.com/chatdesk/pkg/constant"
	"github.com/chatdesk/pkg/domains/messaging"
	"github.com/chatdesk/pkg/domains/tenant"
	"github.com/chatdesk/pkg/domains/whatsapp"
	"github.com/chatdesk/pkg/dtos"
	"github.com/chatdesk/pkg/entities"
	"github.com/chatdesk/pkg/state"
	"github.com/gin-gonic/gin"
)

func WhatsAppRoutes(r *gin.RouterGroup, t tenant.Service, m messaging.Service) {
	r.PUT("/credentials", saveCredentials(t))
	r.GET("/credentials", getCredentials(t))
	r.PATCH("/credentials/assistant", toggleAssistant(t))
	r.POST("/send-message", sendMessage(m))
	r.POST("/send-template", sendTemplate(m))
}

func credentialDTO(cred entities.WhatsAppCredential) dtos.CredentialDTO {
	return dtos.CredentialDTO{
		PhoneNumberID:      cred.PhoneNumberID,
		WabaID:             cred.WabaID,
		DisplayPhoneNumber: cred.DisplayPhoneNumber,
		APIVersion:         cred.APIVersion,
		AccessToken:        maskToken(cred.AccessToken),
		AssistantEnabled:   cred.AssistantEnabled,
	}
}

// maskToken keeps the last four characters.
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}

func saveCredentials(s tenant.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.UpsertCredentialDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		cred, err := s.SaveCredential(c, state.CurrentUser(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": constant.CREDENTIALS_SAVED,
			"data":    credentialDTO(cred),
		})
	}
}

func getCredentials(s tenant.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		cred, err := s.Credential(c, state.CurrentUser(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": credentialDTO(cred)})
	}
}

func toggleAssistant(s tenant.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.AssistantToggleDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		if err := s.SetAssistant(c, state.CurrentUser(c), *req.Enabled); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":           constant.UPDATED,
			"assistant_enabled": *req.Enabled,
		})
	}
}

func sendMessage(s messaging.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.SendToPhoneDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		resp, err := s.SendToPhone(c, state.CurrentUser(c), req.PhoneNumber, req.Name, whatsapp.TextMessage(req.Message))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": constant.MESSAGE_SENT,
			"data":    resp,
		})
	}
}

func sendTemplate(s messaging.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.SendTemplateDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		msg := whatsapp.TemplateMessage(req.TemplateName, req.LanguageCode, req.Parameters...)
		resp, err := s.SendToPhone(c, state.CurrentUser(c), req.PhoneNumber, req.Name, msg)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": constant.TEMPLATE_SENT,
			"data":    resp,
		})
	}
}
