package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/estate-crm/estate-crm-server/internal/models"
)

// EventBus publishes domain events over NATS so interested consumers
// (dashboards, notifiers) can react without polling. The bus is optional;
// a nil *EventBus is safe to call.
type EventBus struct {
	nc *nats.Conn
}

// NewEventBus creates an event bus on an established NATS connection
func NewEventBus(nc *nats.Conn) *EventBus {
	return &EventBus{nc: nc}
}

// SubscriptionEvent is published after a billing state transition
type SubscriptionEvent struct {
	OrganizationID string    `json:"organizationId"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// MessageEvent is published after an inbound message is stored
type MessageEvent struct {
	ConversationID string    `json:"conversationId"`
	MessageID      string    `json:"messageId"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// PublishSubscriptionUpdated publishes a billing transition. Best effort:
// failures are logged and never propagated to the webhook path.
func (b *EventBus) PublishSubscriptionUpdated(organizationID uuid.UUID, status models.SubscriptionStatus) {
	if b == nil || b.nc == nil {
		return
	}

	event := SubscriptionEvent{
		OrganizationID: organizationID.String(),
		Status:         string(status),
		OccurredAt:     time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal subscription event")
		return
	}

	subject := fmt.Sprintf("crm.billing.organization.%s.updated", organizationID)
	if err := b.nc.Publish(subject, data); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("Failed to publish subscription event")
		return
	}

	log.Debug().
		Str("subject", subject).
		Str("status", string(status)).
		Msg("Subscription event published")
}

// PublishMessageReceived publishes an inbound message notification
func (b *EventBus) PublishMessageReceived(conversationID, messageID uuid.UUID) {
	if b == nil || b.nc == nil {
		return
	}

	event := MessageEvent{
		ConversationID: conversationID.String(),
		MessageID:      messageID.String(),
		OccurredAt:     time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal message event")
		return
	}

	subject := fmt.Sprintf("crm.whatsapp.conversation.%s.message", conversationID)
	if err := b.nc.Publish(subject, data); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("Failed to publish message event")
		return
	}

	log.Debug().
		Str("subject", subject).
		Msg("Message event published")
}
