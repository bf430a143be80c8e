package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/estate-crm/estate-crm-server/internal/models"
)

// CreateEventLog creates an event log entry
func (s *PostgresStore) CreateEventLog(ctx context.Context, event *models.EventLog) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.Level == "" {
		event.Level = models.EventLevelInfo
	}

	query := `
		INSERT INTO event_logs (
			id, created_at, organization_id, client_id, type, level,
			description, details
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err := s.getDB().ExecContext(ctx, query,
		event.ID, event.CreatedAt, event.OrganizationID, event.ClientID,
		event.Type, event.Level, event.Description, event.Details,
	)

	return err
}

// ListEventLogs lists event log entries for an organization, newest first
func (s *PostgresStore) ListEventLogs(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*models.EventLog, int64, error) {
	countQuery := `SELECT COUNT(*) FROM event_logs WHERE organization_id = $1`

	var count int64
	err := s.getDB().QueryRowContext(ctx, countQuery, organizationID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, created_at, organization_id, client_id, type, level,
		       description, details
		FROM event_logs
		WHERE organization_id = $1
		ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := s.getDB().QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []*models.EventLog
	for rows.Next() {
		event := &models.EventLog{}
		err := rows.Scan(
			&event.ID, &event.CreatedAt, &event.OrganizationID, &event.ClientID,
			&event.Type, &event.Level, &event.Description, &event.Details,
		)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, event)
	}

	return events, count, nil
}
