package models

import (
	"time"

	"github.com/google/uuid"
)

// SenderType identifies who sent a chat message
type SenderType string

const (
	SenderClient SenderType = "client"
	SenderAgent  SenderType = "agent"
)

// Conversation represents a WhatsApp conversation with a client
type Conversation struct {
	ID              uuid.UUID `json:"id" db:"id"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
	OrganizationID  uuid.UUID `json:"organizationId" db:"organization_id"`
	ClientID        uuid.UUID `json:"clientId" db:"client_id"`
	WhatsAppNumber  string    `json:"whatsappNumber" db:"whatsapp_number"`
	ConversationRef string    `json:"conversationRef" db:"conversation_ref"`
}

// Message represents a single WhatsApp message. MessageRef is the
// provider-side message identifier.
type Message struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	ConversationID uuid.UUID  `json:"conversationId" db:"conversation_id"`
	MessageRef     string     `json:"messageRef" db:"message_ref"`
	SenderType     SenderType `json:"senderType" db:"sender_type"`
	Content        string     `json:"content" db:"content"`
	MessageType    string     `json:"messageType" db:"message_type"`
	SentAt         time.Time  `json:"sentAt" db:"sent_at"`
}

// Insight represents a heuristic signal derived from a client message
type Insight struct {
	ID              uuid.UUID `json:"id" db:"id"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	OrganizationID  uuid.UUID `json:"organizationId" db:"organization_id"`
	ClientID        uuid.UUID `json:"clientId" db:"client_id"`
	InsightType     string    `json:"insightType" db:"insight_type"`
	InsightData     Variables `json:"insightData" db:"insight_data"`
	ConfidenceScore float64   `json:"confidenceScore" db:"confidence_score"`
}
