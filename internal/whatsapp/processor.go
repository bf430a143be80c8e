package whatsapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/estate-crm/estate-crm-server/internal/insight"
	"github.com/estate-crm/estate-crm-server/internal/models"
	"github.com/estate-crm/estate-crm-server/internal/storage"
)

// Store is the slice of storage inbound message processing needs
type Store interface {
	GetClientByWhatsAppNumber(ctx context.Context, number string) (*models.Client, error)
	GetConversationByClient(ctx context.Context, clientID uuid.UUID) (*models.Conversation, error)
	CreateConversation(ctx context.Context, conversation *models.Conversation) error
	CreateMessage(ctx context.Context, message *models.Message) error
	CreateInsights(ctx context.Context, insights []*models.Insight) error
	CreateEventLog(ctx context.Context, event *models.EventLog) error
}

// Publisher notifies subscribers of new inbound messages.
// Implementations must not block.
type Publisher interface {
	PublishMessageReceived(conversationID, messageID uuid.UUID)
}

// Processor turns webhook notifications into conversations, messages and
// client insights
type Processor struct {
	store Store
	bus   Publisher
}

// NewProcessor creates an inbound message processor. bus may be nil.
func NewProcessor(store Store, bus Publisher) *Processor {
	return &Processor{store: store, bus: bus}
}

// ProcessPayload walks every message in the notification. Failures on one
// message are logged and do not stop the rest of the batch.
func (p *Processor) ProcessPayload(ctx context.Context, payload *WebhookPayload) {
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, msg := range change.Value.Messages {
				if err := p.processMessage(ctx, msg); err != nil {
					log.Error().
						Err(err).
						Str("from", msg.From).
						Str("message_id", msg.ID).
						Msg("Failed to process inbound message")
				}
			}
		}
	}
}

func (p *Processor) processMessage(ctx context.Context, msg InboundMessage) error {
	client, err := p.store.GetClientByWhatsAppNumber(ctx, msg.From)
	if errors.Is(err, storage.ErrNotFound) {
		log.Debug().Str("from", msg.From).Msg("Message from unknown number, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up client: %w", err)
	}

	conversation, err := p.findOrCreateConversation(ctx, client, msg.From)
	if err != nil {
		return fmt.Errorf("find conversation: %w", err)
	}

	message := &models.Message{
		ConversationID: conversation.ID,
		MessageRef:     msg.ID,
		SenderType:     models.SenderClient,
		Content:        msg.Body(),
		MessageType:    msg.Type,
		SentAt:         msg.SentAt(),
	}
	if err := p.store.CreateMessage(ctx, message); err != nil {
		return fmt.Errorf("store message: %w", err)
	}

	if err := p.generateInsights(ctx, client, message.Content); err != nil {
		log.Error().Err(err).Str("client_id", client.ID.String()).Msg("Failed to store insights")
	}

	log.Info().
		Str("client_id", client.ID.String()).
		Str("conversation_id", conversation.ID.String()).
		Str("message_id", msg.ID).
		Msg("Inbound message stored")

	p.recordEvent(ctx, client, message)

	if p.bus != nil {
		p.bus.PublishMessageReceived(conversation.ID, message.ID)
	}

	return nil
}

func (p *Processor) findOrCreateConversation(ctx context.Context, client *models.Client, number string) (*models.Conversation, error) {
	conversation, err := p.store.GetConversationByClient(ctx, client.ID)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	conversation = &models.Conversation{
		OrganizationID: client.OrganizationID,
		ClientID:       client.ID,
		WhatsAppNumber: number,
	}
	if err := p.store.CreateConversation(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (p *Processor) generateInsights(ctx context.Context, client *models.Client, content string) error {
	results := insight.Classify(content)
	if len(results) == 0 {
		return nil
	}

	insights := make([]*models.Insight, 0, len(results))
	for _, r := range results {
		data := models.Variables{
			"keywords": r.Keywords,
			"message":  r.Message,
		}
		if r.Sentiment != "" {
			data["sentiment"] = r.Sentiment
		}
		if r.Level != "" {
			data["level"] = r.Level
		}

		insights = append(insights, &models.Insight{
			OrganizationID:  client.OrganizationID,
			ClientID:        client.ID,
			InsightType:     r.Type,
			InsightData:     data,
			ConfidenceScore: r.Confidence,
		})
	}

	return p.store.CreateInsights(ctx, insights)
}

// recordEvent writes an audit entry; failures are logged, not returned
func (p *Processor) recordEvent(ctx context.Context, client *models.Client, message *models.Message) {
	entry := &models.EventLog{
		OrganizationID: &client.OrganizationID,
		ClientID:       &client.ID,
		Type:           models.EventTypeMessageReceived,
		Level:          models.EventLevelInfo,
		Description:    "Inbound message received",
		Details: models.Variables{
			"messageRef":  message.MessageRef,
			"messageType": message.MessageType,
		},
	}
	if err := p.store.CreateEventLog(ctx, entry); err != nil {
		log.Error().Err(err).Msg("Failed to record message event")
	}
}
