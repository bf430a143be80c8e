package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estate-crm/estate-crm-server/internal/models"
	"github.com/estate-crm/estate-crm-server/internal/storage"
)

type fakeStore struct {
	clients       map[string]*models.Client
	conversations map[uuid.UUID]*models.Conversation

	createdConversations []*models.Conversation
	messages             []*models.Message
	insights             []*models.Insight
	events               []*models.EventLog

	messageErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clients:       make(map[string]*models.Client),
		conversations: make(map[uuid.UUID]*models.Conversation),
	}
}

func (f *fakeStore) GetClientByWhatsAppNumber(_ context.Context, number string) (*models.Client, error) {
	client, ok := f.clients[number]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return client, nil
}

func (f *fakeStore) GetConversationByClient(_ context.Context, clientID uuid.UUID) (*models.Conversation, error) {
	conversation, ok := f.conversations[clientID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return conversation, nil
}

func (f *fakeStore) CreateConversation(_ context.Context, conversation *models.Conversation) error {
	conversation.ID = uuid.New()
	f.conversations[conversation.ClientID] = conversation
	f.createdConversations = append(f.createdConversations, conversation)
	return nil
}

func (f *fakeStore) CreateMessage(_ context.Context, message *models.Message) error {
	if f.messageErr != nil {
		return f.messageErr
	}
	message.ID = uuid.New()
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeStore) CreateInsights(_ context.Context, insights []*models.Insight) error {
	f.insights = append(f.insights, insights...)
	return nil
}

func (f *fakeStore) CreateEventLog(_ context.Context, event *models.EventLog) error {
	f.events = append(f.events, event)
	return nil
}

type fakeBus struct {
	published []uuid.UUID
}

func (f *fakeBus) PublishMessageReceived(conversationID, _ uuid.UUID) {
	f.published = append(f.published, conversationID)
}

func seedClient(store *fakeStore, number string) *models.Client {
	client := &models.Client{}
	client.ID = uuid.New()
	client.OrganizationID = uuid.New()
	client.WhatsAppNumber = number
	store.clients[number] = client
	return client
}

func textPayload(from, body, timestamp string) *WebhookPayload {
	raw := `{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "entry-1",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"messages": [{
						"from": "` + from + `",
						"id": "wamid.1",
						"timestamp": "` + timestamp + `",
						"type": "text",
						"text": {"body": "` + body + `"}
					}]
				}
			}]
		}]
	}`

	payload := &WebhookPayload{}
	if err := json.Unmarshal([]byte(raw), payload); err != nil {
		panic(err)
	}
	return payload
}

func TestProcessPayloadStoresMessage(t *testing.T) {
	store := newFakeStore()
	bus := &fakeBus{}
	client := seedClient(store, "15551234567")
	p := NewProcessor(store, bus)

	p.ProcessPayload(context.Background(), textPayload("15551234567", "hello", "1700000000"))

	require.Len(t, store.createdConversations, 1)
	conversation := store.createdConversations[0]
	assert.Equal(t, client.ID, conversation.ClientID)
	assert.Equal(t, client.OrganizationID, conversation.OrganizationID)
	assert.Equal(t, "15551234567", conversation.WhatsAppNumber)

	require.Len(t, store.messages, 1)
	message := store.messages[0]
	assert.Equal(t, conversation.ID, message.ConversationID)
	assert.Equal(t, "wamid.1", message.MessageRef)
	assert.Equal(t, models.SenderClient, message.SenderType)
	assert.Equal(t, "hello", message.Content)
	assert.Equal(t, time.Unix(1700000000, 0), message.SentAt)

	require.Len(t, bus.published, 1)
	assert.Equal(t, conversation.ID, bus.published[0])

	require.Len(t, store.events, 1)
	assert.Equal(t, models.EventTypeMessageReceived, store.events[0].Type)
}

func TestProcessPayloadReusesConversation(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store, "15551234567")
	existing := &models.Conversation{ID: uuid.New(), ClientID: client.ID}
	store.conversations[client.ID] = existing
	p := NewProcessor(store, nil)

	p.ProcessPayload(context.Background(), textPayload("15551234567", "hi again", "1700000001"))

	assert.Empty(t, store.createdConversations)
	require.Len(t, store.messages, 1)
	assert.Equal(t, existing.ID, store.messages[0].ConversationID)
}

func TestProcessPayloadGeneratesInsights(t *testing.T) {
	store := newFakeStore()
	client := seedClient(store, "15551234567")
	p := NewProcessor(store, nil)

	p.ProcessPayload(context.Background(), textPayload("15551234567", "I love it but the price is too expensive", "1700000000"))

	require.NotEmpty(t, store.insights)
	types := make(map[string]*models.Insight)
	for _, ins := range store.insights {
		types[ins.InsightType] = ins
		assert.Equal(t, client.OrganizationID, ins.OrganizationID)
		assert.Equal(t, client.ID, ins.ClientID)
	}

	budget := types["budget_update"]
	require.NotNil(t, budget)
	assert.Equal(t, "negative", budget.InsightData["sentiment"])
	assert.Equal(t, 0.8, budget.ConfidenceScore)

	intent := types["intent_level"]
	require.NotNil(t, intent)
	assert.Equal(t, "high", intent.InsightData["level"])
}

func TestProcessPayloadSkipsUnknownNumber(t *testing.T) {
	store := newFakeStore()
	p := NewProcessor(store, nil)

	p.ProcessPayload(context.Background(), textPayload("19990000000", "hello", "1700000000"))

	assert.Empty(t, store.messages)
	assert.Empty(t, store.createdConversations)
	assert.Empty(t, store.insights)
}

func TestProcessPayloadIgnoresNonMessageChanges(t *testing.T) {
	store := newFakeStore()
	seedClient(store, "15551234567")
	p := NewProcessor(store, nil)

	payload := &WebhookPayload{
		Entry: []Entry{{
			Changes: []Change{{Field: "statuses"}},
		}},
	}
	p.ProcessPayload(context.Background(), payload)

	assert.Empty(t, store.messages)
}

func TestProcessPayloadContinuesAfterFailure(t *testing.T) {
	store := newFakeStore()
	seedClient(store, "15551234567")
	store.messageErr = errors.New("insert failed")
	p := NewProcessor(store, nil)

	// Must not panic or abort; the error is logged per message.
	p.ProcessPayload(context.Background(), textPayload("15551234567", "hello", "1700000000"))

	assert.Empty(t, store.messages)
}

func TestInboundMessageSentAtFallback(t *testing.T) {
	msg := InboundMessage{Timestamp: "not-a-number"}
	assert.WithinDuration(t, time.Now(), msg.SentAt(), time.Minute)

	msg = InboundMessage{Timestamp: "1700000000"}
	assert.Equal(t, time.Unix(1700000000, 0), msg.SentAt())
}
