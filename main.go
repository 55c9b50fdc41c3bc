package main

import (
	"github.com/chatdesk/app/cmd"
	_ "github.com/chatdesk/docs"
)

// @title Chatdesk API
// @version 1.0
// @description Multi-tenant WhatsApp Business inbox: webhook intake, chats, outbound messages and campaigns.

// @host  localhost:8000
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cmd.StartApp()
}
