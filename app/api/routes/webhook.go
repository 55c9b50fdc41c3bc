package routes

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/chatdesk/pkg/config"
	"github.com/chatdesk/pkg/constant"
	"github.com/chatdesk/pkg/domains/messaging"
	"github.com/chatdesk/pkg/domains/whatsapp"
	"github.com/gin-gonic/gin"
)

// WebhookRoutes serves the Meta callback URL. It is unauthenticated; POST
// bodies are checked against the app secret when one is configured.
func WebhookRoutes(r *gin.RouterGroup, s messaging.Service, wc config.WhatsApp) {
	r.GET("", verifyWebhook(wc.VerifyToken))
	r.POST("", receiveWebhook(s, wc.AppSecret))
}

func verifyWebhook(verifyToken string) func(c *gin.Context) {
	return func(c *gin.Context) {
		mode := c.Query("hub.mode")
		token := c.Query("hub.verify_token")
		challenge := c.Query("hub.challenge")

		if verifyToken != "" && mode == "subscribe" && token == verifyToken && challenge != "" {
			c.String(http.StatusOK, "%s", challenge)
			return
		}
		c.JSON(http.StatusForbidden, gin.H{"error": constant.WEBHOOK_FORBIDDEN})
	}
}

func receiveWebhook(s messaging.Service, appSecret string) func(c *gin.Context) {
	return func(c *gin.Context) {
		raw, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		if appSecret != "" {
			if err := whatsapp.VerifySignature(appSecret, c.GetHeader(whatsapp.SignatureHeader), raw); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusForbidden, gin.H{"error": constant.INVALID_SIGNATURE})
				return
			}
		}

		var payload whatsapp.WebhookPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		// Meta may drop the connection before we finish filing.
		ctx := context.WithoutCancel(c.Request.Context())
		s.HandleWebhook(ctx, payload)

		c.String(http.StatusOK, constant.EVENT_RECEIVED)
	}
}
