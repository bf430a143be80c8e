package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/estate-crm/estate-crm-server/internal/models"
	"github.com/estate-crm/estate-crm-server/internal/storage"
	"github.com/estate-crm/estate-crm-server/pkg/crypto"
)

// ========== Auth handlers ==========

// HandleRegister registers a new user together with their organization
func (s *RESTServer) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email            string `json:"email" validate:"required,email"`
		Password         string `json:"password" validate:"required,min=8"`
		Name             string `json:"name" validate:"required,min=2,max=100"`
		OrganizationName string `json:"organizationName" validate:"required,min=2,max=100"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	tx, err := s.store.BeginTx(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer tx.Rollback()

	org := &models.Organization{
		Name:               req.OrganizationName,
		SubscriptionStatus: models.SubscriptionPending,
	}
	if err := tx.CreateOrganization(r.Context(), org); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user := &models.User{
		Email:          req.Email,
		Name:           req.Name,
		PasswordHash:   hash,
		IsAdmin:        true,
		IsActive:       true,
		OrganizationID: &org.ID,
	}
	if err := tx.CreateUser(r.Context(), user); err != nil {
		if err == storage.ErrDuplicateKey {
			s.respondError(w, http.StatusConflict, "email already registered")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := tx.Commit(); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	accessToken, refreshToken, err := s.auth.GenerateTokenPair(user)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	log.Info().
		Str("user_id", user.ID.String()).
		Str("organization_id", org.ID.String()).
		Msg("User registered")

	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"user":          user,
		"organization":  org,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(s.config.JWT.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
	})
}

// HandleLogin handles user login
func (s *RESTServer) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !s.auth.VerifyPassword(req.Password, user.PasswordHash) {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if !user.IsActive {
		s.respondError(w, http.StatusForbidden, "account is disabled")
		return
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.store.UpdateUser(r.Context(), user); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to record login time")
	}

	accessToken, refreshToken, err := s.auth.GenerateTokenPair(user)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(s.config.JWT.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
	})
}

// HandleRefresh handles token refresh
func (s *RESTServer) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := s.auth.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	if !user.IsActive {
		s.respondError(w, http.StatusForbidden, "account is disabled")
		return
	}

	accessToken, refreshToken, err := s.auth.GenerateTokenPair(user)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(s.config.JWT.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
	})
}

// HandleGetCurrentUser gets current user
func (s *RESTServer) HandleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		s.respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := s.store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "user not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, user)
}

// HandleListUsers lists the users of the caller's organization
func (s *RESTServer) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	limit, offset := listParams(r)

	users, total, err := s.store.ListUsers(r.Context(), &orgID, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": total,
	})
}

// ========== Organization handlers ==========

// HandleGetOrganization gets the caller's organization
func (s *RESTServer) HandleGetOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	org, err := s.store.GetOrganization(r.Context(), orgID)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "organization not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, org)
}

// HandleUpdateOrganization updates the caller's organization profile.
// Subscription state is excluded: it belongs to the billing webhook.
func (s *RESTServer) HandleUpdateOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" validate:"required,min=2,max=100"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	org, err := s.store.GetOrganization(r.Context(), orgID)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "organization not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	org.Name = req.Name
	if err := s.store.UpdateOrganization(r.Context(), org); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, org)
}

// ========== Invitation handlers ==========

// HandleListInvitations lists invitations for the caller's organization
func (s *RESTServer) HandleListInvitations(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	invitations, err := s.store.ListInvitations(r.Context(), orgID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"invitations": invitations,
	})
}

// HandleCreateInvitation invites a user to the caller's organization
func (s *RESTServer) HandleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}
	claims := claimsFromContext(r.Context())

	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	code, err := crypto.GenerateRandomString(16)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate invitation code")
		return
	}

	inv := &models.Invitation{
		OrganizationID: orgID,
		Email:          req.Email,
		Code:           code,
		Status:         models.InvitationPending,
		CreatedBy:      claims.UserID,
	}

	if err := s.store.CreateInvitation(r.Context(), inv); err != nil {
		if err == storage.ErrDuplicateKey {
			s.respondError(w, http.StatusConflict, "invitation already exists")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusCreated, inv)
}

// HandleAcceptInvitation joins the caller to the inviting organization
func (s *RESTServer) HandleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		s.respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req struct {
		Code string `json:"code" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	inv, err := s.store.GetInvitationByCode(r.Context(), req.Code)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "invitation not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if inv.Status != models.InvitationPending {
		s.respondError(w, http.StatusConflict, "invitation is no longer valid")
		return
	}

	user, err := s.store.GetUser(r.Context(), claims.UserID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	tx, err := s.store.BeginTx(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer tx.Rollback()

	user.OrganizationID = &inv.OrganizationID
	if err := tx.UpdateUser(r.Context(), user); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	inv.Status = models.InvitationAccepted
	if err := tx.UpdateInvitation(r.Context(), inv); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := tx.Commit(); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Re-issue tokens so the organization claim reflects the new membership
	accessToken, refreshToken, err := s.auth.GenerateTokenPair(user)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to generate tokens")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":          user,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    int(s.config.JWT.AccessTokenTTL.Seconds()),
		"token_type":    "Bearer",
	})
}

// HandleDeleteInvitation deletes an invitation
func (s *RESTServer) HandleDeleteInvitation(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid invitation id")
		return
	}

	// Scope check before the delete
	invitations, err := s.store.ListInvitations(r.Context(), orgID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	owned := false
	for _, inv := range invitations {
		if inv.ID == id {
			owned = true
			break
		}
	}
	if !owned {
		s.respondError(w, http.StatusNotFound, "invitation not found")
		return
	}

	if err := s.store.DeleteInvitation(r.Context(), id); err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "invitation not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ========== Event handlers ==========

// HandleListEvents lists the organization's audit log
func (s *RESTServer) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	limit, offset := listParams(r)

	events, total, err := s.store.ListEventLogs(r.Context(), orgID, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  total,
	})
}

// ========== System handlers ==========

// HandleHealth health check
func (s *RESTServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now(),
	})
}

// HandleRoot root handler
func (s *RESTServer) HandleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "Estate CRM Server",
		"version": s.config.Server.Version,
		"health":  "/api/v1/health",
	})
}

// respondJSON responds with JSON
func (s *RESTServer) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

// respondError responds with error
func (s *RESTServer) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// listParams reads limit/offset query parameters
func listParams(r *http.Request) (int, int) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
