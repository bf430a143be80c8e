package billing

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider using the Stripe API
type StripeProvider struct {
	apiKey        string
	webhookSecret string
}

// NewStripeProvider creates a StripeProvider with the given API key and
// webhook signing secret
func NewStripeProvider(apiKey, webhookSecret string) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
	}
}

// CreateCheckoutSession creates a hosted subscription checkout session
func (p *StripeProvider) CreateCheckoutSession(_ context.Context, cp CheckoutParams) (*CheckoutSession, error) {
	metadata := map[string]string{
		"organizationId": cp.OrganizationID,
		"billingCycle":   cp.BillingCycle,
		"planName":       cp.PlanName,
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(cp.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(cp.Origin + "/dashboard?success=true&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(cp.Origin + "/dashboard?canceled=true"),
		Metadata:   metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
		CustomerCreation:         stripe.String(string(stripe.CheckoutSessionCustomerCreationAlways)),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		AllowPromotionCodes:      stripe.Bool(true),
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("billing: create checkout session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// GetCheckoutSession retrieves an existing checkout session
func (p *StripeProvider) GetCheckoutSession(_ context.Context, sessionID string) (*SessionDetails, error) {
	sess, err := session.Get(sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("billing: retrieve checkout session: %w", err)
	}

	details := &SessionDetails{
		ID:            sess.ID,
		PaymentStatus: string(sess.PaymentStatus),
		Mode:          string(sess.Mode),
	}
	if sess.Customer != nil {
		details.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		details.SubscriptionID = sess.Subscription.ID
	}

	return details, nil
}

// VerifyWebhook validates the signature over the raw payload
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return Event{}, fmt.Errorf("billing: webhook signature verification failed: %w", err)
	}

	return Event{Type: string(event.Type), Data: event.Data.Raw}, nil
}
