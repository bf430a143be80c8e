package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/estate-crm/estate-crm-server/internal/models"
	"github.com/estate-crm/estate-crm-server/internal/storage"
)

// Store is the slice of storage the webhook processor needs
type Store interface {
	ActivateSubscription(ctx context.Context, id uuid.UUID, stripeSubscriptionID string, expiresAt time.Time, cycle models.BillingCycle) error
	UpdateSubscriptionStatusBySubscriptionID(ctx context.Context, stripeSubscriptionID string, status models.SubscriptionStatus) (uuid.UUID, error)
	CreateEventLog(ctx context.Context, event *models.EventLog) error
}

// Publisher notifies subscribers after a subscription transition.
// Implementations must not block.
type Publisher interface {
	PublishSubscriptionUpdated(organizationID uuid.UUID, status models.SubscriptionStatus)
}

// Processor applies webhook events to organization subscription state.
// Events are delivered at least once; every handler is idempotent
// (last write wins).
type Processor struct {
	store Store
	bus   Publisher
	now   func() time.Time
}

// NewProcessor creates a webhook processor. bus may be nil.
func NewProcessor(store Store, bus Publisher) *Processor {
	return &Processor{
		store: store,
		bus:   bus,
		now:   time.Now,
	}
}

// Minimal projections of the event objects; only the fields the
// transitions read.

type checkoutSessionEvent struct {
	ID           string            `json:"id"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type subscriptionEvent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type invoiceEvent struct {
	ID           string `json:"id"`
	Subscription string `json:"subscription"`
}

// Process dispatches a verified event. Unhandled event types are
// acknowledged without effect. A returned error means the delivery
// should be retried by the sender.
func (p *Processor) Process(ctx context.Context, event Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return p.handleCheckoutCompleted(ctx, event.Data)
	case "customer.subscription.deleted":
		return p.handleSubscriptionDeleted(ctx, event.Data)
	case "invoice.payment_failed":
		return p.handlePaymentFailed(ctx, event.Data)
	case "customer.subscription.updated":
		return p.handleSubscriptionUpdated(ctx, event.Data)
	default:
		log.Debug().Str("event_type", event.Type).Msg("Ignoring unhandled billing event")
		return nil
	}
}

func (p *Processor) handleCheckoutCompleted(ctx context.Context, data json.RawMessage) error {
	var session checkoutSessionEvent
	if err := json.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("parse checkout session: %w", err)
	}

	rawOrgID := session.Metadata["organizationId"]
	if rawOrgID == "" {
		return fmt.Errorf("checkout session %s has no organizationId metadata", session.ID)
	}

	orgID, err := uuid.Parse(rawOrgID)
	if err != nil {
		return fmt.Errorf("checkout session %s has invalid organizationId %q: %w", session.ID, rawOrgID, err)
	}

	cycle := models.BillingCycle(session.Metadata["billingCycle"])
	if cycle != models.BillingYearly {
		cycle = models.BillingMonthly
	}

	expiresAt := p.now().AddDate(0, 1, 0)
	if cycle == models.BillingYearly {
		expiresAt = p.now().AddDate(1, 0, 0)
	}

	err = p.store.ActivateSubscription(ctx, orgID, session.Subscription, expiresAt, cycle)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn().
			Str("organization_id", rawOrgID).
			Str("session_id", session.ID).
			Msg("Checkout completed for unknown organization")
		return nil
	}
	if err != nil {
		return fmt.Errorf("activate subscription: %w", err)
	}

	log.Info().
		Str("organization_id", rawOrgID).
		Str("subscription_id", session.Subscription).
		Str("billing_cycle", string(cycle)).
		Time("expires_at", expiresAt).
		Msg("Subscription activated")

	p.recordEvent(ctx, orgID, models.EventTypeCheckoutCompleted, "Subscription activated", models.Variables{
		"sessionId":      session.ID,
		"subscriptionId": session.Subscription,
		"billingCycle":   string(cycle),
	})
	p.publish(orgID, models.SubscriptionActive)

	return nil
}

func (p *Processor) handleSubscriptionDeleted(ctx context.Context, data json.RawMessage) error {
	var sub subscriptionEvent
	if err := json.Unmarshal(data, &sub); err != nil {
		return fmt.Errorf("parse subscription: %w", err)
	}

	orgID, err := p.store.UpdateSubscriptionStatusBySubscriptionID(ctx, sub.ID, models.SubscriptionCancelled)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn().Str("subscription_id", sub.ID).Msg("Deleted subscription does not match any organization")
		return nil
	}
	if err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}

	log.Info().
		Str("organization_id", orgID.String()).
		Str("subscription_id", sub.ID).
		Msg("Subscription cancelled")

	p.recordEvent(ctx, orgID, models.EventTypeSubscriptionDeleted, "Subscription cancelled", models.Variables{
		"subscriptionId": sub.ID,
	})
	p.publish(orgID, models.SubscriptionCancelled)

	return nil
}

func (p *Processor) handlePaymentFailed(ctx context.Context, data json.RawMessage) error {
	var invoice invoiceEvent
	if err := json.Unmarshal(data, &invoice); err != nil {
		return fmt.Errorf("parse invoice: %w", err)
	}

	if invoice.Subscription == "" {
		log.Warn().Str("invoice_id", invoice.ID).Msg("Failed invoice has no subscription")
		return nil
	}

	orgID, err := p.store.UpdateSubscriptionStatusBySubscriptionID(ctx, invoice.Subscription, models.SubscriptionPastDue)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn().Str("subscription_id", invoice.Subscription).Msg("Failed invoice does not match any organization")
		return nil
	}
	if err != nil {
		return fmt.Errorf("mark past due: %w", err)
	}

	log.Info().
		Str("organization_id", orgID.String()).
		Str("subscription_id", invoice.Subscription).
		Msg("Subscription past due after failed payment")

	p.recordEvent(ctx, orgID, models.EventTypePaymentFailed, "Payment failed", models.Variables{
		"invoiceId":      invoice.ID,
		"subscriptionId": invoice.Subscription,
	})
	p.publish(orgID, models.SubscriptionPastDue)

	return nil
}

func (p *Processor) handleSubscriptionUpdated(ctx context.Context, data json.RawMessage) error {
	var sub subscriptionEvent
	if err := json.Unmarshal(data, &sub); err != nil {
		return fmt.Errorf("parse subscription: %w", err)
	}

	status := mapSubscriptionStatus(sub.Status)

	orgID, err := p.store.UpdateSubscriptionStatusBySubscriptionID(ctx, sub.ID, status)
	if errors.Is(err, storage.ErrNotFound) {
		log.Warn().Str("subscription_id", sub.ID).Msg("Updated subscription does not match any organization")
		return nil
	}
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}

	log.Info().
		Str("organization_id", orgID.String()).
		Str("subscription_id", sub.ID).
		Str("status", string(status)).
		Msg("Subscription status updated")

	p.recordEvent(ctx, orgID, models.EventTypeSubscriptionUpdated, "Subscription status updated", models.Variables{
		"subscriptionId": sub.ID,
		"status":         string(status),
	})
	p.publish(orgID, status)

	return nil
}

// mapSubscriptionStatus maps a provider subscription status onto the
// organization's billing state
func mapSubscriptionStatus(status string) models.SubscriptionStatus {
	switch status {
	case "canceled":
		return models.SubscriptionCancelled
	case "past_due", "unpaid":
		return models.SubscriptionPastDue
	default:
		return models.SubscriptionActive
	}
}

// recordEvent writes an audit entry; failures are logged, not returned
func (p *Processor) recordEvent(ctx context.Context, orgID uuid.UUID, eventType models.EventType, description string, details models.Variables) {
	entry := &models.EventLog{
		OrganizationID: &orgID,
		Type:           eventType,
		Level:          models.EventLevelInfo,
		Description:    description,
		Details:        details,
	}
	if err := p.store.CreateEventLog(ctx, entry); err != nil {
		log.Error().Err(err).Str("type", string(eventType)).Msg("Failed to record billing event")
	}
}

func (p *Processor) publish(orgID uuid.UUID, status models.SubscriptionStatus) {
	if p.bus == nil {
		return
	}
	p.bus.PublishSubscriptionUpdated(orgID, status)
}
