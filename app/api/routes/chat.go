package routes

import (
	"net/http"
	"strconv"

	"github.com/chatdesk/pkg/constant"
	"github.com/chatdesk/pkg/domains/chat"
	"github.com/chatdesk/pkg/domains/messaging"
	"github.com/chatdesk/pkg/domains/whatsapp"
	"github.com/chatdesk/pkg/dtos"
	"github.com/chatdesk/pkg/state"
	"github.com/gin-gonic/gin"
)

func ChatRoutes(r *gin.RouterGroup, chats chat.Service, m messaging.Service) {
	r.GET("", listChats(chats))
	r.GET("/:id", getChat(chats))
	r.GET("/:id/messages", listMessages(chats))
	r.POST("/:id/messages", sendText(m))
	r.POST("/:id/media", sendMedia(m))
	r.POST("/:id/read", markRead(chats))
}

func listChats(s chat.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		page, ok := queryPage(c)
		if !ok {
			return
		}

		items, p, err := s.List(c, state.CurrentUser(c), page)
		if err != nil {
			respondError(c, err)
			return
		}

		out := make([]dtos.ChatDTO, 0, len(items))
		for _, item := range items {
			out = append(out, dtos.NewChatDTO(item))
		}
		c.JSON(http.StatusOK, gin.H{"data": out, "pagination": p})
	}
}

func getChat(s chat.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}

		item, err := s.Get(c, state.CurrentUser(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": dtos.NewChatDTO(item)})
	}
}

func listMessages(s chat.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		before, err := strconv.ParseUint(c.DefaultQuery("before", "0"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": constant.INVALID_ID})
			return
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(chat.DefaultMessagePage)))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		msgs, err := s.Messages(c, state.CurrentUser(c), id, uint(before), limit)
		if err != nil {
			respondError(c, err)
			return
		}

		out := make([]dtos.MessageDTO, 0, len(msgs))
		for _, m := range msgs {
			out = append(out, dtos.NewMessageDTO(m))
		}
		c.JSON(http.StatusOK, gin.H{"data": out})
	}
}

func sendText(s messaging.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		var req dtos.SendTextDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		resp, err := s.SendToChat(c, state.CurrentUser(c), id, whatsapp.TextMessage(req.Message))
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

func sendMedia(s messaging.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		var req dtos.SendMediaDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		msg := whatsapp.Message{Media: &whatsapp.Media{
			Type:     req.Type,
			Link:     req.Link,
			ID:       req.MediaID,
			Caption:  req.Caption,
			Filename: req.Filename,
		}}
		resp, err := s.SendToChat(c, state.CurrentUser(c), id, msg)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": constant.MEDIA_SENT,
			"data":    resp,
		})
	}
}

func markRead(s chat.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}
		if err := s.MarkRead(c, state.CurrentUser(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": constant.CHAT_MARKED_READ})
	}
}
