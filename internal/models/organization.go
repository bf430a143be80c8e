package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus represents the billing state of an organization
type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// BillingCycle represents how often a subscription renews
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// Organization represents a tenant. Subscription fields are owned by the
// billing webhook processor; the API never writes them directly.
type Organization struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Name string `json:"name" db:"name"`

	// Billing
	SubscriptionStatus    SubscriptionStatus `json:"subscriptionStatus" db:"subscription_status"`
	StripeSubscriptionID  *string            `json:"stripeSubscriptionId,omitempty" db:"stripe_subscription_id"`
	SubscriptionExpiresAt *time.Time         `json:"subscriptionExpiresAt,omitempty" db:"subscription_expires_at"`
	BillingCycle          BillingCycle       `json:"billingCycle" db:"billing_cycle"`
}

// InvitationStatus represents the lifecycle of a team invitation
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation represents an invitation for a user to join an organization
type Invitation struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	CreatedAt      time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time        `json:"updatedAt" db:"updated_at"`
	OrganizationID uuid.UUID        `json:"organizationId" db:"organization_id"`
	Email          string           `json:"email" db:"email"`
	Code           string           `json:"code" db:"code"`
	Status         InvitationStatus `json:"status" db:"status"`
	CreatedBy      uuid.UUID        `json:"createdBy" db:"created_by"`
}

// SubscriptionPlan represents a purchasable plan. Prices are in minor
// currency units.
type SubscriptionPlan struct {
	ID                   string    `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	Description          string    `json:"description" db:"description"`
	PriceMonthly         int64     `json:"priceMonthly" db:"price_monthly"`
	PriceYearly          int64     `json:"priceYearly" db:"price_yearly"`
	MaxUsers             int       `json:"maxUsers" db:"max_users"`
	StripePriceIDMonthly string    `json:"stripePriceIdMonthly" db:"stripe_price_id_monthly"`
	StripePriceIDYearly  string    `json:"stripePriceIdYearly" db:"stripe_price_id_yearly"`
	Features             Variables `json:"features" db:"features"`
}
