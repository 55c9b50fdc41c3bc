package routes

import (
	"fmt"

	"github.com/chatdesk/pkg/constant"
	"github.com/chatdesk/pkg/domains/auth"
	"github.com/chatdesk/pkg/dtos"
	"github.com/gin-gonic/gin"
)

func AuthRoutes(r *gin.RouterGroup, s auth.Service) {
	r.POST("/register", register(s))
	r.POST("/login", login(s))
}

func register(s auth.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.DTOForUserCreate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		token, err := s.Register(c, req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, gin.H{
			"message": fmt.Sprintf(constant.CREATED, "User"),
			"token":   token,
		})
	}
}

func login(s auth.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.DTOForUserLogin
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(400, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		token, err := s.Login(c, req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{"token": token})
	}
}
