package models

import (
	"time"

	"github.com/google/uuid"
)

// Client represents a prospective buyer or tenant. Budget bounds are in
// minor currency units.
type Client struct {
	OrgModel

	CreatedBy uuid.UUID `json:"createdBy" db:"created_by"`

	Name           string   `json:"name" db:"name"`
	Email          string   `json:"email" db:"email"`
	Phone          string   `json:"phone" db:"phone"`
	WhatsAppNumber string   `json:"whatsappNumber" db:"whatsapp_number"`
	BudgetMin      *int64   `json:"budgetMin,omitempty" db:"budget_min"`
	BudgetMax      *int64   `json:"budgetMax,omitempty" db:"budget_max"`
	PreferredAreas []string `json:"preferredAreas" db:"preferred_areas"`
	Notes          string   `json:"notes" db:"notes"`
}

// ViewingRecord represents a property viewing by a client
type ViewingRecord struct {
	ID             uuid.UUID `json:"id" db:"id"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
	OrganizationID uuid.UUID `json:"organizationId" db:"organization_id"`
	ClientID       uuid.UUID `json:"clientId" db:"client_id"`
	PropertyID     uuid.UUID `json:"propertyId" db:"property_id"`
	ViewedAt       time.Time `json:"viewedAt" db:"viewed_at"`
	Feedback       string    `json:"feedback" db:"feedback"`
	Rating         int       `json:"rating" db:"rating"`
}
