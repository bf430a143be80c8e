package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/estate-crm/estate-crm-server/internal/models"
	"github.com/estate-crm/estate-crm-server/internal/storage"
)

// ========== Client handlers ==========

// HandleListClients lists clients of the caller's organization
func (s *RESTServer) HandleListClients(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	limit, offset := listParams(r)

	clients, total, err := s.store.ListClients(r.Context(), orgID, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"clients": clients,
		"total":   total,
	})
}

// HandleCreateClient creates a client
func (s *RESTServer) HandleCreateClient(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}
	claims := claimsFromContext(r.Context())

	var req struct {
		Name           string   `json:"name" validate:"required,min=2,max=100"`
		Email          string   `json:"email" validate:"omitempty,email"`
		Phone          string   `json:"phone"`
		WhatsAppNumber string   `json:"whatsappNumber"`
		BudgetMin      *int64   `json:"budgetMin"`
		BudgetMax      *int64   `json:"budgetMax"`
		PreferredAreas []string `json:"preferredAreas"`
		Notes          string   `json:"notes"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.BudgetMin != nil && req.BudgetMax != nil && *req.BudgetMin > *req.BudgetMax {
		s.respondError(w, http.StatusBadRequest, "budgetMin cannot exceed budgetMax")
		return
	}

	client := &models.Client{
		CreatedBy:      claims.UserID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		WhatsAppNumber: req.WhatsAppNumber,
		BudgetMin:      req.BudgetMin,
		BudgetMax:      req.BudgetMax,
		PreferredAreas: req.PreferredAreas,
		Notes:          req.Notes,
	}
	client.OrganizationID = orgID

	if err := s.store.CreateClient(r.Context(), client); err != nil {
		if err == storage.ErrDuplicateKey {
			s.respondError(w, http.StatusConflict, "client already exists")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().
		Str("client_id", client.ID.String()).
		Str("organization_id", orgID.String()).
		Msg("Client created")

	s.respondJSON(w, http.StatusCreated, client)
}

// HandleGetClient gets a client
func (s *RESTServer) HandleGetClient(w http.ResponseWriter, r *http.Request) {
	client, ok := s.loadClient(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, client)
}

// HandleUpdateClient updates a client
func (s *RESTServer) HandleUpdateClient(w http.ResponseWriter, r *http.Request) {
	client, ok := s.loadClient(w, r)
	if !ok {
		return
	}

	var req struct {
		Name           *string  `json:"name"`
		Email          *string  `json:"email"`
		Phone          *string  `json:"phone"`
		WhatsAppNumber *string  `json:"whatsappNumber"`
		BudgetMin      *int64   `json:"budgetMin"`
		BudgetMax      *int64   `json:"budgetMax"`
		PreferredAreas []string `json:"preferredAreas"`
		Notes          *string  `json:"notes"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.Email != nil {
		client.Email = *req.Email
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.WhatsAppNumber != nil {
		client.WhatsAppNumber = *req.WhatsAppNumber
	}
	if req.BudgetMin != nil {
		client.BudgetMin = req.BudgetMin
	}
	if req.BudgetMax != nil {
		client.BudgetMax = req.BudgetMax
	}
	if req.PreferredAreas != nil {
		client.PreferredAreas = req.PreferredAreas
	}
	if req.Notes != nil {
		client.Notes = *req.Notes
	}

	if client.BudgetMin != nil && client.BudgetMax != nil && *client.BudgetMin > *client.BudgetMax {
		s.respondError(w, http.StatusBadRequest, "budgetMin cannot exceed budgetMax")
		return
	}

	if err := s.store.UpdateClient(r.Context(), client); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, client)
}

// HandleDeleteClient deletes a client
func (s *RESTServer) HandleDeleteClient(w http.ResponseWriter, r *http.Request) {
	client, ok := s.loadClient(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteClient(r.Context(), client.ID); err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "client not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *RESTServer) loadClient(w http.ResponseWriter, r *http.Request) (*models.Client, bool) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid client id")
		return nil, false
	}

	client, err := s.store.GetClient(r.Context(), id)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "client not found")
			return nil, false
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}

	if client.OrganizationID != orgID {
		s.respondError(w, http.StatusNotFound, "client not found")
		return nil, false
	}

	return client, true
}

// ========== Viewing record handlers ==========

// HandleListViewingRecords lists a client's property viewings
func (s *RESTServer) HandleListViewingRecords(w http.ResponseWriter, r *http.Request) {
	client, ok := s.loadClient(w, r)
	if !ok {
		return
	}

	records, err := s.store.ListViewingRecords(r.Context(), client.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"viewings": records,
	})
}

// HandleCreateViewingRecord records a property viewing for a client
func (s *RESTServer) HandleCreateViewingRecord(w http.ResponseWriter, r *http.Request) {
	client, ok := s.loadClient(w, r)
	if !ok {
		return
	}

	var req struct {
		PropertyID uuid.UUID  `json:"propertyId" validate:"required"`
		ViewedAt   *time.Time `json:"viewedAt"`
		Feedback   string     `json:"feedback"`
		Rating     int        `json:"rating" validate:"min=0,max=5"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	property, err := s.store.GetProperty(r.Context(), req.PropertyID)
	if err != nil || property.OrganizationID != client.OrganizationID {
		s.respondError(w, http.StatusNotFound, "property not found")
		return
	}

	viewedAt := time.Now()
	if req.ViewedAt != nil {
		viewedAt = *req.ViewedAt
	}

	record := &models.ViewingRecord{
		OrganizationID: client.OrganizationID,
		ClientID:       client.ID,
		PropertyID:     req.PropertyID,
		ViewedAt:       viewedAt,
		Feedback:       req.Feedback,
		Rating:         req.Rating,
	}

	if err := s.store.CreateViewingRecord(r.Context(), record); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusCreated, record)
}

// HandleDeleteViewingRecord deletes a viewing record
func (s *RESTServer) HandleDeleteViewingRecord(w http.ResponseWriter, r *http.Request) {
	_, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid viewing id")
		return
	}

	if err := s.store.DeleteViewingRecord(r.Context(), id); err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "viewing record not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ========== Insight handlers ==========

// HandleListInsights lists insights derived for a client
func (s *RESTServer) HandleListInsights(w http.ResponseWriter, r *http.Request) {
	client, ok := s.loadClient(w, r)
	if !ok {
		return
	}

	insights, err := s.store.ListInsights(r.Context(), client.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"insights": insights,
	})
}

// ========== Conversation handlers ==========

// HandleListConversations lists the organization's conversations
func (s *RESTServer) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	limit, offset := listParams(r)

	conversations, total, err := s.store.ListConversations(r.Context(), orgID, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": conversations,
		"total":         total,
	})
}

// HandleListMessages lists the messages of a conversation, oldest first
func (s *RESTServer) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	conversation, ok := s.loadConversation(w, r)
	if !ok {
		return
	}

	limit, offset := listParams(r)

	messages, total, err := s.store.ListMessages(r.Context(), conversation.ID, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"total":    total,
	})
}

// HandleSendMessage sends a text message to the conversation's client and
// stores it
func (s *RESTServer) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	conversation, ok := s.loadConversation(w, r)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" validate:"required,min=1,max=4096"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	messageRef, err := s.whatsappClient.SendText(r.Context(), conversation.WhatsAppNumber, req.Content)
	if err != nil {
		log.Error().
			Err(err).
			Str("conversation_id", conversation.ID.String()).
			Msg("Failed to send outbound message")
		s.respondError(w, http.StatusBadGateway, "failed to send message")
		return
	}

	message := &models.Message{
		ConversationID: conversation.ID,
		MessageRef:     messageRef,
		SenderType:     models.SenderAgent,
		Content:        req.Content,
		MessageType:    "text",
		SentAt:         time.Now(),
	}

	if err := s.store.CreateMessage(r.Context(), message); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entry := &models.EventLog{
		OrganizationID: &conversation.OrganizationID,
		ClientID:       &conversation.ClientID,
		Type:           models.EventTypeMessageSent,
		Level:          models.EventLevelInfo,
		Description:    "Outbound message sent",
		Details: models.Variables{
			"messageRef": messageRef,
		},
	}
	if err := s.store.CreateEventLog(r.Context(), entry); err != nil {
		log.Error().Err(err).Msg("Failed to record message event")
	}

	s.respondJSON(w, http.StatusCreated, message)
}

func (s *RESTServer) loadConversation(w http.ResponseWriter, r *http.Request) (*models.Conversation, bool) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid conversation id")
		return nil, false
	}

	conversation, err := s.store.GetConversation(r.Context(), id)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "conversation not found")
			return nil, false
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}

	if conversation.OrganizationID != orgID {
		s.respondError(w, http.StatusNotFound, "conversation not found")
		return nil, false
	}

	return conversation, true
}
