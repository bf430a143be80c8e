package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/estate-crm/estate-crm-server/internal/dedupe"
	"github.com/estate-crm/estate-crm-server/internal/models"
	"github.com/estate-crm/estate-crm-server/internal/storage"
)

// ========== Property handlers ==========

// HandleListProperties lists properties of the caller's organization
func (s *RESTServer) HandleListProperties(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	limit, offset := listParams(r)

	properties, total, err := s.store.ListProperties(r.Context(), orgID, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"properties": properties,
		"total":      total,
	})
}

// HandleCreateProperty creates a property listing
func (s *RESTServer) HandleCreateProperty(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}
	claims := claimsFromContext(r.Context())

	var req struct {
		Title       string     `json:"title" validate:"required,min=2,max=200"`
		Description string     `json:"description"`
		Address     string     `json:"address" validate:"required"`
		AreaSqft    float64    `json:"areaSqft" validate:"min=0"`
		Price       int64      `json:"price" validate:"min=0"`
		Bedrooms    int        `json:"bedrooms" validate:"min=0"`
		Bathrooms   int        `json:"bathrooms" validate:"min=0"`
		Status      string     `json:"status" validate:"omitempty,oneof=available reserved sold rented"`
		ProjectID   *uuid.UUID `json:"projectId"`
		CategoryID  *uuid.UUID `json:"categoryId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Status == "" {
		req.Status = "available"
	}

	property := &models.Property{
		ProjectID:   req.ProjectID,
		CategoryID:  req.CategoryID,
		CreatedBy:   claims.UserID,
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		AreaSqft:    req.AreaSqft,
		Price:       req.Price,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Status:      req.Status,
	}
	property.OrganizationID = orgID

	if err := s.store.CreateProperty(r.Context(), property); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().
		Str("property_id", property.ID.String()).
		Str("organization_id", orgID.String()).
		Msg("Property created")

	s.respondJSON(w, http.StatusCreated, property)
}

// HandleGetProperty gets a property
func (s *RESTServer) HandleGetProperty(w http.ResponseWriter, r *http.Request) {
	property, ok := s.loadProperty(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, property)
}

// HandleUpdateProperty updates a property
func (s *RESTServer) HandleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	property, ok := s.loadProperty(w, r)
	if !ok {
		return
	}

	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Address     *string    `json:"address"`
		AreaSqft    *float64   `json:"areaSqft"`
		Price       *int64     `json:"price"`
		Bedrooms    *int       `json:"bedrooms"`
		Bathrooms   *int       `json:"bathrooms"`
		Status      *string    `json:"status"`
		ProjectID   *uuid.UUID `json:"projectId"`
		CategoryID  *uuid.UUID `json:"categoryId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title != nil {
		property.Title = *req.Title
	}
	if req.Description != nil {
		property.Description = *req.Description
	}
	if req.Address != nil {
		property.Address = *req.Address
	}
	if req.AreaSqft != nil {
		property.AreaSqft = *req.AreaSqft
	}
	if req.Price != nil {
		property.Price = *req.Price
	}
	if req.Bedrooms != nil {
		property.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		property.Bathrooms = *req.Bathrooms
	}
	if req.Status != nil {
		property.Status = *req.Status
	}
	if req.ProjectID != nil {
		property.ProjectID = req.ProjectID
	}
	if req.CategoryID != nil {
		property.CategoryID = req.CategoryID
	}

	if err := s.store.UpdateProperty(r.Context(), property); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, property)
}

// HandleDeleteProperty deletes a property
func (s *RESTServer) HandleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	property, ok := s.loadProperty(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteProperty(r.Context(), property.ID); err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "property not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDetectDuplicates scans the organization's listings for likely
// duplicate units
func (s *RESTServer) HandleDetectDuplicates(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	properties, err := s.store.ListPropertiesForDuplicateScan(r.Context(), orgID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	groups := dedupe.Detect(properties)
	if groups == nil {
		groups = []dedupe.Group{}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"groups": groups,
		"total":  len(groups),
	})
}

// HandleMergeProperties keeps one listing of a duplicate group and removes
// the rest
func (s *RESTServer) HandleMergeProperties(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	var req struct {
		KeepID       uuid.UUID   `json:"keepId" validate:"required"`
		DuplicateIDs []uuid.UUID `json:"duplicateIds" validate:"required,min=1"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	for _, id := range req.DuplicateIDs {
		if id == req.KeepID {
			s.respondError(w, http.StatusBadRequest, "keepId cannot appear in duplicateIds")
			return
		}
	}

	keep, err := s.store.GetProperty(r.Context(), req.KeepID)
	if err != nil || keep.OrganizationID != orgID {
		s.respondError(w, http.StatusNotFound, "property not found")
		return
	}

	deleted, err := s.store.DeleteProperties(r.Context(), orgID, req.DuplicateIDs)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	log.Info().
		Str("keep_id", req.KeepID.String()).
		Int64("deleted", deleted).
		Msg("Duplicate properties merged")

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"kept":    keep.ID,
		"deleted": deleted,
	})
}

// loadProperty parses {id}, loads the property and enforces organization
// ownership
func (s *RESTServer) loadProperty(w http.ResponseWriter, r *http.Request) (*models.Property, bool) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid property id")
		return nil, false
	}

	property, err := s.store.GetProperty(r.Context(), id)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "property not found")
			return nil, false
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}

	if property.OrganizationID != orgID {
		s.respondError(w, http.StatusNotFound, "property not found")
		return nil, false
	}

	return property, true
}

// ========== Project handlers ==========

// HandleListProjects lists the organization's development projects
func (s *RESTServer) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	limit, offset := listParams(r)

	projects, total, err := s.store.ListProjects(r.Context(), orgID, limit, offset)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"projects": projects,
		"total":    total,
	})
}

// HandleCreateProject creates a development project
func (s *RESTServer) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	var req struct {
		Name           string     `json:"name" validate:"required,min=2,max=200"`
		Developer      string     `json:"developer"`
		Location       string     `json:"location"`
		Description    string     `json:"description"`
		CompletionDate *time.Time `json:"completionDate"`
		TotalUnits     int        `json:"totalUnits" validate:"min=0"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	project := &models.Project{
		Name:           req.Name,
		Developer:      req.Developer,
		Location:       req.Location,
		Description:    req.Description,
		CompletionDate: req.CompletionDate,
		TotalUnits:     req.TotalUnits,
	}
	project.OrganizationID = orgID

	if err := s.store.CreateProject(r.Context(), project); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusCreated, project)
}

// HandleGetProject gets a project
func (s *RESTServer) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	project, ok := s.loadProject(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, project)
}

// HandleUpdateProject updates a project
func (s *RESTServer) HandleUpdateProject(w http.ResponseWriter, r *http.Request) {
	project, ok := s.loadProject(w, r)
	if !ok {
		return
	}

	var req struct {
		Name           *string    `json:"name"`
		Developer      *string    `json:"developer"`
		Location       *string    `json:"location"`
		Description    *string    `json:"description"`
		CompletionDate *time.Time `json:"completionDate"`
		TotalUnits     *int       `json:"totalUnits"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Developer != nil {
		project.Developer = *req.Developer
	}
	if req.Location != nil {
		project.Location = *req.Location
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.CompletionDate != nil {
		project.CompletionDate = req.CompletionDate
	}
	if req.TotalUnits != nil {
		project.TotalUnits = *req.TotalUnits
	}

	if err := s.store.UpdateProject(r.Context(), project); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, project)
}

// HandleDeleteProject deletes a project
func (s *RESTServer) HandleDeleteProject(w http.ResponseWriter, r *http.Request) {
	project, ok := s.loadProject(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteProject(r.Context(), project.ID); err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "project not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *RESTServer) loadProject(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid project id")
		return nil, false
	}

	project, err := s.store.GetProject(r.Context(), id)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "project not found")
			return nil, false
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}

	if project.OrganizationID != orgID {
		s.respondError(w, http.StatusNotFound, "project not found")
		return nil, false
	}

	return project, true
}

// ========== Category handlers ==========

// HandleListCategories lists the organization's property categories
func (s *RESTServer) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	categories, err := s.store.ListCategories(r.Context(), orgID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
	})
}

// HandleCreateCategory creates a property category
func (s *RESTServer) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name" validate:"required,min=2,max=100"`
		Description string `json:"description"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validator.Validate(req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	category := &models.Category{
		Name:        req.Name,
		Description: req.Description,
	}
	category.OrganizationID = orgID

	if err := s.store.CreateCategory(r.Context(), category); err != nil {
		if err == storage.ErrDuplicateKey {
			s.respondError(w, http.StatusConflict, "category already exists")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusCreated, category)
}

// HandleGetCategory gets a category
func (s *RESTServer) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := s.loadCategory(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, category)
}

// HandleUpdateCategory updates a category
func (s *RESTServer) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := s.loadCategory(w, r)
	if !ok {
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}

	if err := s.store.UpdateCategory(r.Context(), category); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, category)
}

// HandleDeleteCategory deletes a category
func (s *RESTServer) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	category, ok := s.loadCategory(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteCategory(r.Context(), category.ID); err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "category not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *RESTServer) loadCategory(w http.ResponseWriter, r *http.Request) (*models.Category, bool) {
	orgID, ok := s.organizationID(w, r)
	if !ok {
		return nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid category id")
		return nil, false
	}

	category, err := s.store.GetCategory(r.Context(), id)
	if err != nil {
		if err == storage.ErrNotFound {
			s.respondError(w, http.StatusNotFound, "category not found")
			return nil, false
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}

	if category.OrganizationID != orgID {
		s.respondError(w, http.StatusNotFound, "category not found")
		return nil, false
	}

	return category, true
}
