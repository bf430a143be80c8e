package models

import (
	"time"

	"github.com/google/uuid"
)

// EventLog represents an audit log entry
type EventLog struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	OrganizationID *uuid.UUID `json:"organizationId,omitempty" db:"organization_id"`
	ClientID       *uuid.UUID `json:"clientId,omitempty" db:"client_id"`

	Type        EventType  `json:"type" db:"type"`
	Level       EventLevel `json:"level" db:"level"`
	Description string     `json:"description" db:"description"`

	Details Variables `json:"details,omitempty" db:"details"`
}

// EventType represents event types
type EventType string

const (
	// Billing events
	EventTypeCheckoutCompleted   EventType = "CHECKOUT_COMPLETED"
	EventTypeSubscriptionDeleted EventType = "SUBSCRIPTION_DELETED"
	EventTypeSubscriptionUpdated EventType = "SUBSCRIPTION_UPDATED"
	EventTypePaymentFailed       EventType = "PAYMENT_FAILED"

	// Messaging events
	EventTypeMessageReceived EventType = "MESSAGE_RECEIVED"
	EventTypeMessageSent     EventType = "MESSAGE_SENT"

	// System events
	EventTypeError EventType = "ERROR"
)

// EventLevel represents event severity levels
type EventLevel string

const (
	EventLevelDebug   EventLevel = "DEBUG"
	EventLevelInfo    EventLevel = "INFO"
	EventLevelWarning EventLevel = "WARNING"
	EventLevelError   EventLevel = "ERROR"
)
