package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"lorekeeper-backend/application/commands"
	"lorekeeper-backend/application/commands/bus"
	commandhandlers "lorekeeper-backend/application/commands/handlers"
	"lorekeeper-backend/application/queries"
	querybus "lorekeeper-backend/application/queries/bus"
	"lorekeeper-backend/pkg/auth"
	pkgerrors "lorekeeper-backend/pkg/errors"
	"lorekeeper-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// TimelineHandler handles timeline-related HTTP requests
type TimelineHandler struct {
	commandBus    *bus.CommandBus
	queryBus      *querybus.QueryBus
	create        *commandhandlers.CreateTimelineHandler
	merge         *commandhandlers.MergeTimelinesHandler
	relationships *commandhandlers.CreateRelationshipHandler
	errors        *pkgerrors.ErrorHandler
	logger        *zap.Logger
}

// NewTimelineHandler creates a new timeline handler
func NewTimelineHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	create *commandhandlers.CreateTimelineHandler,
	merge *commandhandlers.MergeTimelinesHandler,
	relationships *commandhandlers.CreateRelationshipHandler,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *TimelineHandler {
	return &TimelineHandler{
		commandBus:    commandBus,
		queryBus:      queryBus,
		create:        create,
		merge:         merge,
		relationships: relationships,
		errors:        errorHandler,
		logger:        logger,
	}
}

// CreateTimelineRequest represents the request body for creating a timeline
type CreateTimelineRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description,omitempty" validate:"max=2000"`
	Type        string     `json:"type,omitempty" validate:"omitempty,oneof=life_era sub_timeline skill location work custom"`
	ParentID    string     `json:"parentId,omitempty" validate:"omitempty,uuid"`
	StartDate   time.Time  `json:"startDate" validate:"required"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Tags        []string   `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=30"`
}

// UpdateTimelineRequest represents the request body for updating a timeline.
// Only the provided groups are applied: title renames, dates redate,
// parent reparents (empty string detaches into a root).
type UpdateTimelineRequest struct {
	Title     *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	ParentID  *string    `json:"parentId,omitempty"`
}

// CreateTimeline handles POST /timelines
func (h *TimelineHandler) CreateTimeline(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateTimelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if req.Type == "" {
		req.Type = "custom"
	}

	timeline, err := h.create.Handle(r.Context(), commands.CreateTimelineCommand{
		UserID:      userCtx.UserID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		ParentID:    req.ParentID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Tags:        req.Tags,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":        timeline.ID().String(),
		"createdAt": utils.NowRFC3339(),
	})
}

// ListTimelines handles GET /timelines
func (h *TimelineHandler) ListTimelines(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListTimelinesQuery{UserID: userCtx.UserID})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetTimeline handles GET /timelines/{timelineID}
func (h *TimelineHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetTimelineQuery{
		UserID:     userCtx.UserID,
		TimelineID: chi.URLParam(r, "timelineID"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// UpdateTimeline handles PUT /timelines/{timelineID}
func (h *TimelineHandler) UpdateTimeline(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	timelineID := chi.URLParam(r, "timelineID")

	var req UpdateTimelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if req.Title == nil && req.StartDate == nil && req.ParentID == nil {
		respondError(w, http.StatusBadRequest, "No changes requested")
		return
	}

	if req.Title != nil {
		err := h.commandBus.Send(r.Context(), commands.RenameTimelineCommand{
			UserID:     userCtx.UserID,
			TimelineID: timelineID,
			Title:      *req.Title,
		})
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
	}

	if req.StartDate != nil {
		err := h.commandBus.Send(r.Context(), commands.RedateTimelineCommand{
			UserID:     userCtx.UserID,
			TimelineID: timelineID,
			StartDate:  *req.StartDate,
			EndDate:    req.EndDate,
		})
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
	}

	if req.ParentID != nil {
		err := h.commandBus.Send(r.Context(), commands.ReparentTimelineCommand{
			UserID:     userCtx.UserID,
			TimelineID: timelineID,
			ParentID:   *req.ParentID,
		})
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":        timelineID,
		"updatedAt": utils.NowRFC3339(),
	})
}

// DeleteTimeline handles DELETE /timelines/{timelineID}
func (h *TimelineHandler) DeleteTimeline(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	err = h.commandBus.Send(r.Context(), commands.DeleteTimelineCommand{
		UserID:     userCtx.UserID,
		TimelineID: chi.URLParam(r, "timelineID"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetTree handles GET /timelines/tree
func (h *TimelineHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetTimelineTreeQuery{
		UserID: userCtx.UserID,
		RootID: r.URL.Query().Get("root"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetAncestors handles GET /timelines/{timelineID}/ancestors
func (h *TimelineHandler) GetAncestors(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetAncestorsQuery{
		UserID:     userCtx.UserID,
		TimelineID: chi.URLParam(r, "timelineID"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetRecommended handles GET /timelines/recommended
func (h *TimelineHandler) GetRecommended(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
	}

	result, err := h.queryBus.Ask(r.Context(), queries.RecommendedTimelinesQuery{
		UserID: userCtx.UserID,
		Limit:  limit,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// MergeRequest represents the request body for merging timelines
type MergeRequest struct {
	TargetID string `json:"targetId" validate:"required,uuid"`
}

// MergeTimelines handles POST /timelines/{timelineID}/merge
func (h *TimelineHandler) MergeTimelines(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	result, err := h.merge.Handle(r.Context(), commands.MergeTimelinesCommand{
		UserID:   userCtx.UserID,
		SourceID: chi.URLParam(r, "timelineID"),
		TargetID: req.TargetID,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sourceId":       result.SourceID.String(),
		"targetId":       result.TargetID.String(),
		"entriesMoved":   result.EntriesMoved,
		"relationshipId": result.RelationshipID,
	})
}

// RelationshipRequest represents the request body for creating a relationship
type RelationshipRequest struct {
	SourceID string `json:"sourceId" validate:"required,uuid"`
	TargetID string `json:"targetId" validate:"required,uuid"`
	Type     string `json:"type" validate:"required,oneof=spawned influenced overlapped preceded merged split"`
}

// CreateRelationship handles POST /timelines/relationships
func (h *TimelineHandler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req RelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	rel, err := h.relationships.Handle(r.Context(), commands.CreateRelationshipCommand{
		UserID:   userCtx.UserID,
		SourceID: req.SourceID,
		TargetID: req.TargetID,
		Type:     req.Type,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":       rel.ID,
		"sourceId": rel.SourceID.String(),
		"targetId": rel.TargetID.String(),
		"type":     string(rel.Type),
	})
}
