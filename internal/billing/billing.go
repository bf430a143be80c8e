package billing

import (
	"context"
	"encoding/json"
)

// CheckoutParams describes a checkout session to create
type CheckoutParams struct {
	PriceID        string
	OrganizationID string
	BillingCycle   string
	PlanName       string
	Origin         string
}

// CheckoutSession is a newly created hosted checkout session
type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// SessionDetails is the state of an existing checkout session
type SessionDetails struct {
	ID             string
	PaymentStatus  string
	Mode           string
	CustomerID     string
	SubscriptionID string
}

// Event is a verified webhook event. Data holds the raw event object JSON.
type Event struct {
	Type string
	Data json.RawMessage
}

// Provider abstracts the payment backend
type Provider interface {
	// CreateCheckoutSession creates a subscription-mode checkout session
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// GetCheckoutSession retrieves an existing session
	GetCheckoutSession(ctx context.Context, sessionID string) (*SessionDetails, error)

	// VerifyWebhook checks the signature over the raw payload and returns
	// the decoded event. Must be called before any payload parsing.
	VerifyWebhook(payload []byte, signature string) (Event, error)
}
