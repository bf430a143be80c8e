package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/estate-crm/estate-crm-server/internal/models"
)

// CreateConversation creates a new conversation
func (s *PostgresStore) CreateConversation(ctx context.Context, conversation *models.Conversation) error {
	if conversation.ID == uuid.Nil {
		conversation.ID = uuid.New()
	}

	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now

	query := `
		INSERT INTO whatsapp_conversations (
			id, created_at, updated_at, organization_id, client_id,
			whatsapp_number, conversation_ref
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		conversation.ID, conversation.CreatedAt, conversation.UpdatedAt,
		conversation.OrganizationID, conversation.ClientID,
		conversation.WhatsAppNumber, conversation.ConversationRef,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// GetConversation gets a conversation by ID
func (s *PostgresStore) GetConversation(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	query := `
		SELECT id, created_at, updated_at, organization_id, client_id,
		       whatsapp_number, conversation_ref
		FROM whatsapp_conversations
		WHERE id = $1`

	conversation := &models.Conversation{}
	err := s.getDB().QueryRowContext(ctx, query, id).Scan(
		&conversation.ID, &conversation.CreatedAt, &conversation.UpdatedAt,
		&conversation.OrganizationID, &conversation.ClientID,
		&conversation.WhatsAppNumber, &conversation.ConversationRef,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return conversation, err
}

// GetConversationByClient gets the conversation for a client
func (s *PostgresStore) GetConversationByClient(ctx context.Context, clientID uuid.UUID) (*models.Conversation, error) {
	query := `
		SELECT id, created_at, updated_at, organization_id, client_id,
		       whatsapp_number, conversation_ref
		FROM whatsapp_conversations
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	conversation := &models.Conversation{}
	err := s.getDB().QueryRowContext(ctx, query, clientID).Scan(
		&conversation.ID, &conversation.CreatedAt, &conversation.UpdatedAt,
		&conversation.OrganizationID, &conversation.ClientID,
		&conversation.WhatsAppNumber, &conversation.ConversationRef,
	)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}

	return conversation, err
}

// ListConversations lists conversations for an organization
func (s *PostgresStore) ListConversations(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*models.Conversation, int64, error) {
	countQuery := `SELECT COUNT(*) FROM whatsapp_conversations WHERE organization_id = $1`

	var count int64
	err := s.getDB().QueryRowContext(ctx, countQuery, organizationID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, created_at, updated_at, organization_id, client_id,
		       whatsapp_number, conversation_ref
		FROM whatsapp_conversations
		WHERE organization_id = $1
		ORDER BY updated_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.getDB().QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		conversation := &models.Conversation{}
		err := rows.Scan(
			&conversation.ID, &conversation.CreatedAt, &conversation.UpdatedAt,
			&conversation.OrganizationID, &conversation.ClientID,
			&conversation.WhatsAppNumber, &conversation.ConversationRef,
		)
		if err != nil {
			return nil, 0, err
		}
		conversations = append(conversations, conversation)
	}

	return conversations, count, nil
}

// CreateMessage creates a new message
func (s *PostgresStore) CreateMessage(ctx context.Context, message *models.Message) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}

	message.CreatedAt = time.Now()

	if message.SentAt.IsZero() {
		message.SentAt = message.CreatedAt
	}

	query := `
		INSERT INTO whatsapp_messages (
			id, created_at, conversation_id, message_ref, sender_type,
			content, message_type, sent_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		message.ID, message.CreatedAt, message.ConversationID, message.MessageRef,
		message.SenderType, message.Content, message.MessageType, message.SentAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrDuplicateKey
		}
		return err
	}

	return nil
}

// ListMessages lists messages in a conversation, oldest first
func (s *PostgresStore) ListMessages(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*models.Message, int64, error) {
	countQuery := `SELECT COUNT(*) FROM whatsapp_messages WHERE conversation_id = $1`

	var count int64
	err := s.getDB().QueryRowContext(ctx, countQuery, conversationID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, created_at, conversation_id, message_ref, sender_type,
		       content, message_type, sent_at
		FROM whatsapp_messages
		WHERE conversation_id = $1
		ORDER BY sent_at ASC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.getDB().QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		message := &models.Message{}
		err := rows.Scan(
			&message.ID, &message.CreatedAt, &message.ConversationID,
			&message.MessageRef, &message.SenderType, &message.Content,
			&message.MessageType, &message.SentAt,
		)
		if err != nil {
			return nil, 0, err
		}
		messages = append(messages, message)
	}

	return messages, count, nil
}

// CreateInsights inserts a batch of insights for a message
func (s *PostgresStore) CreateInsights(ctx context.Context, insights []*models.Insight) error {
	if len(insights) == 0 {
		return nil
	}

	query := `
		INSERT INTO client_insights (
			id, created_at, organization_id, client_id, insight_type,
			insight_data, confidence_score
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)`

	for _, insight := range insights {
		if insight.ID == uuid.Nil {
			insight.ID = uuid.New()
		}
		if insight.CreatedAt.IsZero() {
			insight.CreatedAt = time.Now()
		}

		_, err := s.getDB().ExecContext(ctx, query,
			insight.ID, insight.CreatedAt, insight.OrganizationID,
			insight.ClientID, insight.InsightType, insight.InsightData,
			insight.ConfidenceScore,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// ListInsights lists insights for a client, newest first
func (s *PostgresStore) ListInsights(ctx context.Context, clientID uuid.UUID) ([]*models.Insight, error) {
	query := `
		SELECT id, created_at, organization_id, client_id, insight_type,
		       insight_data, confidence_score
		FROM client_insights
		WHERE client_id = $1
		ORDER BY created_at DESC`

	rows, err := s.getDB().QueryContext(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var insights []*models.Insight
	for rows.Next() {
		insight := &models.Insight{}
		err := rows.Scan(
			&insight.ID, &insight.CreatedAt, &insight.OrganizationID,
			&insight.ClientID, &insight.InsightType, &insight.InsightData,
			&insight.ConfidenceScore,
		)
		if err != nil {
			return nil, err
		}
		insights = append(insights, insight)
	}

	return insights, nil
}
