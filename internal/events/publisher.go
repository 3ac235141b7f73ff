package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vhvplatform/go-campaign-service/internal/shared/logger"
)

const (
	// DefaultExchange is the topic exchange campaign events are published to
	DefaultExchange = "notifications"

	RoutingKeyCampaignCompleted = "campaign.completed"
	RoutingKeyCampaignFailed    = "campaign.failed"
)

// CampaignEvent describes the outcome of one campaign dispatch
type CampaignEvent struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	CampaignID     string    `json:"campaign_id"`
	Source         string    `json:"source"`
	Subject        string    `json:"subject"`
	RecipientCount int       `json:"recipient_count"`
	BatchCount     int       `json:"batch_count"`
	BatchesSent    int       `json:"batches_sent"`
	FailedBatch    int       `json:"failed_batch,omitempty"`
	Error          string    `json:"error,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// NewCampaignEvent stamps an event with a fresh ID and timestamp
func NewCampaignEvent(eventType, campaignID string) *CampaignEvent {
	return &CampaignEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		CampaignID: campaignID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers campaign events to interested consumers
type Publisher interface {
	Publish(ctx context.Context, event *CampaignEvent) error
}

// Broker is the subset of the RabbitMQ client used for publishing
type Broker interface {
	DeclareExchange(name, kind string) error
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

// RabbitPublisher publishes campaign events to a topic exchange
type RabbitPublisher struct {
	broker   Broker
	exchange string
	log      *logger.Logger
}

// NewRabbitPublisher declares the exchange and returns a publisher bound to it
func NewRabbitPublisher(broker Broker, exchange string, log *logger.Logger) (*RabbitPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	if err := broker.DeclareExchange(exchange, "topic"); err != nil {
		log.Error("Failed to declare exchange", "exchange", exchange, "error", err)
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &RabbitPublisher{
		broker:   broker,
		exchange: exchange,
		log:      log,
	}, nil
}

// Publish sends the event with its type as routing key
func (p *RabbitPublisher) Publish(ctx context.Context, event *CampaignEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal campaign event: %w", err)
	}

	if err := p.broker.Publish(ctx, p.exchange, event.Type, body); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	p.log.Debug("Published campaign event", "type", event.Type, "campaign_id", event.CampaignID)
	return nil
}

// NopPublisher discards every event. Used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(context.Context, *CampaignEvent) error {
	return nil
}
