package routes

import (
	"fmt"
	"net/http"

	"github.com/chatdesk/pkg/constant"
	"github.com/chatdesk/pkg/domains/campaign"
	"github.com/chatdesk/pkg/dtos"
	"github.com/chatdesk/pkg/state"
	"github.com/gin-gonic/gin"
)

func CampaignRoutes(r *gin.RouterGroup, s campaign.Service) {
	r.POST("", createCampaign(s))
	r.GET("", listCampaigns(s))
	r.POST("/:id/run", runCampaign(s))
}

func createCampaign(s campaign.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		var req dtos.CreateCampaignDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": constant.INVALID_REQUEST})
			return
		}

		created, err := s.Create(c, state.CurrentUser(c), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": fmt.Sprintf(constant.CREATED, "Campaign"),
			"data":    created,
		})
	}
}

func listCampaigns(s campaign.Service) func(c *gin.Context) {
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
		c.JSON(http.StatusOK, gin.H{"data": items, "pagination": p})
	}
}

func runCampaign(s campaign.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		id, ok := paramID(c)
		if !ok {
			return
		}

		started, err := s.RunNow(c.Request.Context(), state.CurrentUser(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"message": constant.CAMPAIGN_STARTED,
			"data":    started,
		})
	}
}
