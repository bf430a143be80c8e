package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/estate-crm/estate-crm-server/internal/models"
)

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidData  = errors.New("invalid data")
)

// Store defines the storage interface
type Store interface {
	// Transaction support
	BeginTx(ctx context.Context) (Store, error)
	Commit() error
	Rollback() error

	// User methods
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, organizationID *uuid.UUID, limit, offset int) ([]*models.User, int64, error)

	// Organization methods
	CreateOrganization(ctx context.Context, org *models.Organization) error
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	UpdateOrganization(ctx context.Context, org *models.Organization) error
	ActivateSubscription(ctx context.Context, id uuid.UUID, stripeSubscriptionID string, expiresAt time.Time, cycle models.BillingCycle) error
	UpdateSubscriptionStatusBySubscriptionID(ctx context.Context, stripeSubscriptionID string, status models.SubscriptionStatus) (uuid.UUID, error)

	// Invitation methods
	CreateInvitation(ctx context.Context, inv *models.Invitation) error
	GetInvitationByCode(ctx context.Context, code string) (*models.Invitation, error)
	UpdateInvitation(ctx context.Context, inv *models.Invitation) error
	DeleteInvitation(ctx context.Context, id uuid.UUID) error
	ListInvitations(ctx context.Context, organizationID uuid.UUID) ([]*models.Invitation, error)

	// Subscription plan methods
	ListSubscriptionPlans(ctx context.Context) ([]*models.SubscriptionPlan, error)

	// Property methods
	CreateProperty(ctx context.Context, property *models.Property) error
	GetProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
	UpdateProperty(ctx context.Context, property *models.Property) error
	DeleteProperty(ctx context.Context, id uuid.UUID) error
	ListProperties(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*models.Property, int64, error)
	ListPropertiesForDuplicateScan(ctx context.Context, organizationID uuid.UUID) ([]*models.Property, error)
	DeleteProperties(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) (int64, error)

	// Project methods
	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	UpdateProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, id uuid.UUID) error
	ListProjects(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*models.Project, int64, error)

	// Category methods
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context, organizationID uuid.UUID) ([]*models.Category, error)

	// Client methods
	CreateClient(ctx context.Context, client *models.Client) error
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	GetClientByWhatsAppNumber(ctx context.Context, number string) (*models.Client, error)
	UpdateClient(ctx context.Context, client *models.Client) error
	DeleteClient(ctx context.Context, id uuid.UUID) error
	ListClients(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*models.Client, int64, error)

	// Viewing record methods
	CreateViewingRecord(ctx context.Context, record *models.ViewingRecord) error
	DeleteViewingRecord(ctx context.Context, id uuid.UUID) error
	ListViewingRecords(ctx context.Context, clientID uuid.UUID) ([]*models.ViewingRecord, error)

	// Conversation methods
	CreateConversation(ctx context.Context, conversation *models.Conversation) error
	GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error)
	GetConversationByClient(ctx context.Context, clientID uuid.UUID) (*models.Conversation, error)
	ListConversations(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*models.Conversation, int64, error)

	// Message methods
	CreateMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*models.Message, int64, error)

	// Insight methods
	CreateInsights(ctx context.Context, insights []*models.Insight) error
	ListInsights(ctx context.Context, clientID uuid.UUID) ([]*models.Insight, error)

	// Event log methods
	CreateEventLog(ctx context.Context, event *models.EventLog) error
	ListEventLogs(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*models.EventLog, int64, error)

	// Close the store
	Close() error
}
