package routes

import (
	"io"
	"net/http"

	"github.com/chatdesk/pkg/constant"
	"github.com/chatdesk/pkg/domains/receipt"
	"github.com/gin-gonic/gin"
)

func ReceiptRoutes(r *gin.RouterGroup, s receipt.Service) {
	r.POST("/extract", extractReceipt(s))
}

func extractReceipt(s receipt.Service) func(c *gin.Context) {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
			return
		}
		defer file.Close()

		if header.Size > receipt.MaxImageSize {
			respondError(c, receipt.ErrImageTooLarge)
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, receipt.MaxImageSize+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": constant.FILE_READ_FAILED})
			return
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = http.DetectContentType(data)
		}

		out, err := s.Extract(c, data, mimeType)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": constant.RECEIPT_EXTRACTED,
			"data":    out,
		})
	}
}
