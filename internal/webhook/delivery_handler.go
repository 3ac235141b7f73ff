package webhook

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vhvplatform/go-campaign-service/internal/metrics"
	"github.com/vhvplatform/go-campaign-service/internal/shared/errors"
	"github.com/vhvplatform/go-campaign-service/internal/shared/logger"
)

// DeliveryHandler receives delivery events for sent campaigns from mail providers
type DeliveryHandler struct {
	log *logger.Logger
}

// SendGridEvent is one entry of a SendGrid event webhook batch
type SendGridEvent struct {
	Email     string `json:"email"`
	Event     string `json:"event"` // processed, delivered, bounce, dropped, deferred, spamreport, ...
	Timestamp int64  `json:"timestamp"`
	Reason    string `json:"reason"`
	Type      string `json:"type"` // bounce, blocked
	MessageID string `json:"sg_message_id"`
}

// PostmarkBounce is the payload of a Postmark bounce webhook
type PostmarkBounce struct {
	RecordType  string    `json:"RecordType"`
	Type        string    `json:"Type"` // HardBounce, SoftBounce, SpamComplaint, ...
	Email       string    `json:"Email"`
	Description string    `json:"Description"`
	BouncedAt   time.Time `json:"BouncedAt"`
	MessageID   string    `json:"MessageID"`
}

// NewDeliveryHandler creates a new delivery handler
func NewDeliveryHandler(log *logger.Logger) *DeliveryHandler {
	return &DeliveryHandler{log: log}
}

// RegisterRoutes mounts the provider webhooks on group
func (h *DeliveryHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/sendgrid", h.HandleSendGridWebhook)
	group.POST("/postmark", h.HandlePostmarkWebhook)
}

// HandleSendGridWebhook handles SendGrid event webhooks
func (h *DeliveryHandler) HandleSendGridWebhook(c *gin.Context) {
	var events []SendGridEvent
	if err := c.ShouldBindJSON(&events); err != nil {
		h.log.Error("Invalid SendGrid event", "error", err)
		c.JSON(http.StatusBadRequest, errors.NewValidationError("Invalid request", err))
		return
	}

	for _, event := range events {
		kind := strings.ToLower(strings.TrimSpace(event.Event))
		if kind == "" {
			kind = "unknown"
		}
		metrics.DeliveryEvents.WithLabelValues("sendgrid", kind).Inc()

		if isFailure(kind) {
			h.log.Warn("Campaign delivery failed", "provider", "sendgrid", "event", kind, "email", event.Email, "reason", event.Reason, "message_id", event.MessageID)
		} else {
			h.log.Debug("Campaign delivery event", "provider", "sendgrid", "event", kind, "email", event.Email)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "received": len(events)})
}

// HandlePostmarkWebhook handles Postmark bounce webhooks
func (h *DeliveryHandler) HandlePostmarkWebhook(c *gin.Context) {
	var bounce PostmarkBounce
	if err := c.ShouldBindJSON(&bounce); err != nil {
		h.log.Error("Invalid Postmark event", "error", err)
		c.JSON(http.StatusBadRequest, errors.NewValidationError("Invalid request", err))
		return
	}

	kind := "bounce"
	if bounce.Type == "SpamComplaint" {
		kind = "spamreport"
	}
	metrics.DeliveryEvents.WithLabelValues("postmark", kind).Inc()
	h.log.Warn("Campaign delivery failed", "provider", "postmark", "event", kind, "type", bounce.Type, "email", bounce.Email, "reason", bounce.Description)

	c.JSON(http.StatusOK, gin.H{"status": "ok", "received": 1})
}

func isFailure(kind string) bool {
	switch kind {
	case "bounce", "dropped", "spamreport", "blocked":
		return true
	default:
		return false
	}
}
