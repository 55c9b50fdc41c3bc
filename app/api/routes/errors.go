package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/chatdesk/pkg/constant"
	"github.com/chatdesk/pkg/domains/auth"
	"github.com/chatdesk/pkg/domains/campaign"
	"github.com/chatdesk/pkg/domains/chat"
	"github.com/chatdesk/pkg/domains/receipt"
	"github.com/chatdesk/pkg/domains/tenant"
	"github.com/chatdesk/pkg/domains/whatsapp"
	"github.com/gin-gonic/gin"
)

const retryAfterSeconds = "30"

// respondError maps domain errors to HTTP statuses. Anything unknown is a
// 500 with a generic message; the cause goes to the access log.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, msg := classify(err)
	body := gin.H{"error": msg}
	if se, ok := whatsapp.AsSendError(err); ok {
		if se.Kind == whatsapp.KindProviderRejected {
			body["provider_status"] = se.StatusCode
			body["provider_code"] = se.Code
			body["detail"] = se.Message
		}
		if se.Temporary() {
			body["retryable"] = true
			c.Header("Retry-After", retryAfterSeconds)
		}
	}
	c.JSON(status, body)
}

func classify(err error) (int, string) {
	if se, ok := whatsapp.AsSendError(err); ok {
		switch se.Kind {
		case whatsapp.KindConfiguration:
			return http.StatusConflict, constant.CREDENTIALS_REQUIRED
		case whatsapp.KindInvalidRequest:
			return http.StatusBadRequest, se.Message
		case whatsapp.KindTransport:
			return http.StatusServiceUnavailable, constant.PROVIDER_UNREACHABLE
		default:
			return http.StatusBadGateway, constant.PROVIDER_REJECTED
		}
	}

	switch {
	case errors.Is(err, chat.ErrChatNotFound),
		errors.Is(err, campaign.ErrCampaignNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, tenant.ErrCredentialNotFound):
		return http.StatusConflict, constant.CREDENTIALS_REQUIRED
	case errors.Is(err, tenant.ErrPhoneNumberTaken),
		errors.Is(err, campaign.ErrCampaignNotPending),
		errors.Is(err, auth.ErrUserExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, chat.ErrEmptyPhone):
		return http.StatusBadRequest, constant.INVALID_PHONE_NUMBER
	case errors.Is(err, receipt.ErrExtractionUnavailable):
		return http.StatusServiceUnavailable, constant.EXTRACTION_UNAVAILABLE
	case errors.Is(err, receipt.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, receipt.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case err.Error() == constant.INVALID_PAGE_NUMBER,
		err.Error() == constant.PAGE_NUMBER_OUT_OF_RANGE:
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, constant.SOMETHING_WENT_WRONG
}

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": constant.INVALID_ID})
		return 0, false
	}
	return uint(id), true
}

func queryPage(c *gin.Context) (int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": constant.INVALID_PAGE_NUMBER})
		return 0, false
	}
	return page, true
}
