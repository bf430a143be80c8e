package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a CRM user account
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Email        string     `json:"email" db:"email"`
	Name         string     `json:"name" db:"name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	IsAdmin      bool       `json:"isAdmin" db:"is_admin"`
	IsActive     bool       `json:"isActive" db:"is_active"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`

	OrganizationID *uuid.UUID `json:"organizationId,omitempty" db:"organization_id"`
	Settings       Variables  `json:"settings,omitempty" db:"settings"`
}
