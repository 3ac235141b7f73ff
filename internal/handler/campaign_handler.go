package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vhvplatform/go-campaign-service/internal/domain"
	"github.com/vhvplatform/go-campaign-service/internal/service"
	"github.com/vhvplatform/go-campaign-service/internal/shared/errors"
	"github.com/vhvplatform/go-campaign-service/internal/shared/logger"
)

// maxUploadSize bounds recipient CSV uploads
const maxUploadSize = 5 << 20

// CampaignService is the behaviour the campaign endpoints depend on
type CampaignService interface {
	SendCampaign(ctx context.Context, req *domain.CampaignRequest) (*service.CampaignResult, error)
	SendTest(ctx context.Context, req *domain.TestSendRequest) error
	Preview(req *domain.PreviewRequest) (string, error)
}

// CampaignHandler handles HTTP requests for campaigns
type CampaignHandler struct {
	service CampaignService
	log     *logger.Logger
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(service CampaignService, log *logger.Logger) *CampaignHandler {
	return &CampaignHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes mounts the campaign endpoints on group
func (h *CampaignHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/send", h.SendCampaign)
	group.POST("/test-send", h.SendTest)
	group.POST("/preview", h.Preview)
	group.GET("/presets", h.Presets)
	group.POST("/recipients/parse", h.ParseRecipients)
}

// SendCampaign godoc
// @Summary Send a campaign
// @Description Resolve recipients and send the campaign in batches of 100
// @Tags campaigns
// @Accept json
// @Produce json
// @Param campaign body domain.CampaignRequest true "Campaign request"
// @Success 200 {object} map[string]interface{} "Campaign sent"
// @Failure 400 {object} errors.AppError "Invalid request or no recipients"
// @Failure 500 {object} errors.AppError "Configuration, database or provider failure"
// @Router /api/send [post]
func (h *CampaignHandler) SendCampaign(c *gin.Context) {
	var req domain.CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.NewValidationError("Invalid request", err))
		return
	}

	result, err := h.service.SendCampaign(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, "Failed to send campaign", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        fmt.Sprintf("Campaign sent to %d recipients", result.RecipientCount),
		"recipientCount": result.RecipientCount,
		"batchCount":     result.BatchCount,
		"campaignId":     result.CampaignID,
	})
}

// SendTest godoc
// @Summary Send a test email
// @Description Send the campaign email to a single address
// @Tags campaigns
// @Accept json
// @Produce json
// @Param test body domain.TestSendRequest true "Test send request"
// @Success 200 {object} map[string]interface{} "Test email sent"
// @Failure 400 {object} errors.AppError "Invalid request"
// @Failure 500 {object} errors.AppError "Configuration or provider failure"
// @Router /api/test-send [post]
func (h *CampaignHandler) SendTest(c *gin.Context) {
	var req domain.TestSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.NewValidationError("Invalid request", err))
		return
	}

	if err := h.service.SendTest(c.Request.Context(), &req); err != nil {
		h.respondError(c, "Failed to send test email", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Test email sent to " + strings.TrimSpace(req.TestEmail),
	})
}

// Preview renders a document to HTML for the live preview
func (h *CampaignHandler) Preview(c *gin.Context) {
	var req domain.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.NewValidationError("Invalid request", err))
		return
	}

	html, err := h.service.Preview(&req)
	if err != nil {
		h.respondError(c, "Failed to render preview", err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// Presets returns the color presets, the starter document and the database filter options
func (h *CampaignHandler) Presets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"colorPresets":    domain.ColorPresets(),
		"defaultDocument": domain.DefaultDocument(),
		"filterOptions":   domain.DefaultFilterOptions(),
	})
}

// ParseRecipients turns a comma separated list or an uploaded CSV file into an address list
func (h *CampaignHandler) ParseRecipients(c *gin.Context) {
	var emails []string

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, errors.NewValidationError("A CSV file is required in the file field", err))
			return
		}
		if file.Size > maxUploadSize {
			c.JSON(http.StatusBadRequest, errors.NewValidationError("CSV file is too large", nil))
			return
		}

		f, err := file.Open()
		if err != nil {
			h.respondError(c, "Failed to read upload", errors.NewInternalError("Failed to read upload", err))
			return
		}
		defer f.Close()

		emails, err = service.ParseAddressCSV(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, errors.NewValidationError("Invalid CSV file", err))
			return
		}
	} else {
		var req domain.ParseRecipientsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errors.NewValidationError("Invalid request", err))
			return
		}
		emails = service.SplitAddressList(req.Text)
	}

	if emails == nil {
		emails = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"emails": emails,
		"count":  len(emails),
	})
}

func (h *CampaignHandler) respondError(c *gin.Context, msg string, err error) {
	appErr := errors.As(err)
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(msg, "error", err, "code", appErr.Code)
	} else {
		h.log.Warn(msg, "error", err, "code", appErr.Code)
	}
	_ = c.Error(err)
	c.JSON(status, appErr)
}
