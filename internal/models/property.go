package models

import (
	"time"

	"github.com/google/uuid"
)

// Property represents a listing. Price is in minor currency units.
type Property struct {
	OrgModel

	ProjectID  *uuid.UUID `json:"projectId,omitempty" db:"project_id"`
	CategoryID *uuid.UUID `json:"categoryId,omitempty" db:"category_id"`
	CreatedBy  uuid.UUID  `json:"createdBy" db:"created_by"`

	Title       string  `json:"title" db:"title"`
	Description string  `json:"description" db:"description"`
	Address     string  `json:"address" db:"address"`
	AreaSqft    float64 `json:"areaSqft" db:"area_sqft"`
	Price       int64   `json:"price" db:"price"`
	Bedrooms    int     `json:"bedrooms" db:"bedrooms"`
	Bathrooms   int     `json:"bathrooms" db:"bathrooms"`
	Status      string  `json:"status" db:"status"`
}

// Project represents a development project grouping properties
type Project struct {
	OrgModel

	Name           string     `json:"name" db:"name"`
	Developer      string     `json:"developer" db:"developer"`
	Location       string     `json:"location" db:"location"`
	Description    string     `json:"description" db:"description"`
	CompletionDate *time.Time `json:"completionDate,omitempty" db:"completion_date"`
	TotalUnits     int        `json:"totalUnits" db:"total_units"`
}

// Category represents a property category within an organization
type Category struct {
	OrgModel

	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}
