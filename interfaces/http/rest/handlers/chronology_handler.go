package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
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

// ChronologyHandler handles chronology entry HTTP requests
type ChronologyHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	create     *commandhandlers.CreateEntryHandler
	archive    *commandhandlers.ArchiveEntryHandler
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewChronologyHandler creates a new chronology handler
func NewChronologyHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	create *commandhandlers.CreateEntryHandler,
	archive *commandhandlers.ArchiveEntryHandler,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *ChronologyHandler {
	return &ChronologyHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		create:     create,
		archive:    archive,
		errors:     errorHandler,
		logger:     logger,
	}
}

// CreateEntryRequest represents the request body for locating a memory
type CreateEntryRequest struct {
	JournalEntryID string     `json:"journalEntryId" validate:"required"`
	Content        string     `json:"content" validate:"required,max=50000"`
	StartTime      time.Time  `json:"startTime" validate:"required"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	Precision      string     `json:"precision,omitempty" validate:"omitempty,oneof=exact day month year approximate"`
	Confidence     *float64   `json:"confidence,omitempty" validate:"omitempty,min=0,max=1"`
	TimelineIDs    []string   `json:"timelineIds,omitempty" validate:"omitempty,max=25,dive,uuid"`
}

// RelocateEntryRequest represents the request body for moving an entry
type RelocateEntryRequest struct {
	StartTime  time.Time  `json:"startTime" validate:"required"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	Precision  string     `json:"precision,omitempty" validate:"omitempty,oneof=exact day month year approximate"`
	Confidence *float64   `json:"confidence,omitempty" validate:"omitempty,min=0,max=1"`
}

// CorrectEntryRequest represents the request body for correcting an entry
type CorrectEntryRequest struct {
	Content    string     `json:"content" validate:"required,max=50000"`
	StartTime  time.Time  `json:"startTime" validate:"required"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	Precision  string     `json:"precision,omitempty" validate:"omitempty,oneof=exact day month year approximate"`
	Confidence *float64   `json:"confidence,omitempty" validate:"omitempty,min=0,max=1"`
}

// MembershipRequest represents the request body for attaching an entry
type MembershipRequest struct {
	TimelineID string  `json:"timelineId" validate:"required,uuid"`
	Role       string  `json:"role,omitempty" validate:"max=100"`
	Importance float64 `json:"importance,omitempty" validate:"min=0,max=1"`
}

func confidenceOrDefault(c *float64) float64 {
	if c == nil {
		return 1.0
	}
	return *c
}

// CreateEntry handles POST /chronology
func (h *ChronologyHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if req.Precision == "" {
		req.Precision = "day"
	}

	entry, err := h.create.Handle(r.Context(), commands.CreateEntryCommand{
		UserID:         userCtx.UserID,
		JournalEntryID: req.JournalEntryID,
		Content:        req.Content,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Precision:      req.Precision,
		Confidence:     confidenceOrDefault(req.Confidence),
		TimelineIDs:    req.TimelineIDs,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":        entry.ID().String(),
		"createdAt": utils.NowRFC3339(),
	})
}

// ListEntries handles GET /chronology
func (h *ChronologyHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := queries.GetChronologyQuery{
		UserID:     userCtx.UserID,
		TimelineID: r.URL.Query().Get("timeline"),
		Search:     r.URL.Query().Get("q"),
	}

	if raw := r.URL.Query().Get("tags"); raw != "" {
		query.Tags = strings.Split(raw, ",")
	}
	if raw := r.URL.Query().Get("includeArchived"); raw == "true" {
		query.IncludeArchived = true
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		query.Limit = limit
	}

	var parseErr error
	query.Start, parseErr = parseTimeParam(r, "start")
	if parseErr == nil {
		query.End, parseErr = parseTimeParam(r, "end")
	}
	if parseErr != nil {
		respondError(w, http.StatusBadRequest, parseErr.Error())
		return
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// RelocateEntry handles PUT /chronology/{entryID}/location
func (h *ChronologyHandler) RelocateEntry(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req RelocateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if req.Precision == "" {
		req.Precision = "day"
	}

	err = h.commandBus.Send(r.Context(), commands.RelocateEntryCommand{
		UserID:     userCtx.UserID,
		EntryID:    chi.URLParam(r, "entryID"),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Precision:  req.Precision,
		Confidence: confidenceOrDefault(req.Confidence),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":        chi.URLParam(r, "entryID"),
		"updatedAt": utils.NowRFC3339(),
	})
}

// ArchiveEntry handles POST /chronology/{entryID}/archive
func (h *ChronologyHandler) ArchiveEntry(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	err = h.commandBus.Send(r.Context(), commands.ArchiveEntryCommand{
		UserID:  userCtx.UserID,
		EntryID: chi.URLParam(r, "entryID"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CorrectEntry handles POST /chronology/{entryID}/correct
func (h *ChronologyHandler) CorrectEntry(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CorrectEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if req.Precision == "" {
		req.Precision = "day"
	}

	replacement, err := h.archive.HandleCorrect(r.Context(), commands.CorrectEntryCommand{
		UserID:     userCtx.UserID,
		EntryID:    chi.URLParam(r, "entryID"),
		Content:    req.Content,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Precision:  req.Precision,
		Confidence: confidenceOrDefault(req.Confidence),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":          replacement.ID().String(),
		"correctedId": chi.URLParam(r, "entryID"),
		"createdAt":   utils.NowRFC3339(),
	})
}

// AddMembership handles POST /chronology/{entryID}/memberships
func (h *ChronologyHandler) AddMembership(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req MembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	err = h.commandBus.Send(r.Context(), commands.AddMembershipCommand{
		UserID:     userCtx.UserID,
		EntryID:    chi.URLParam(r, "entryID"),
		TimelineID: req.TimelineID,
		Role:       req.Role,
		Importance: req.Importance,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveMembership handles DELETE /chronology/{entryID}/memberships/{timelineID}
func (h *ChronologyHandler) RemoveMembership(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	err = h.commandBus.Send(r.Context(), commands.RemoveMembershipCommand{
		UserID:     userCtx.UserID,
		EntryID:    chi.URLParam(r, "entryID"),
		TimelineID: chi.URLParam(r, "timelineID"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ScanOverlaps handles GET /chronology/overlaps
func (h *ChronologyHandler) ScanOverlaps(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	query := queries.ScanOverlapsQuery{
		UserID:     userCtx.UserID,
		TimelineID: r.URL.Query().Get("timeline"),
	}

	var parseErr error
	query.Start, parseErr = parseTimeParam(r, "start")
	if parseErr == nil {
		query.End, parseErr = parseTimeParam(r, "end")
	}
	if parseErr != nil {
		respondError(w, http.StatusBadRequest, parseErr.Error())
		return
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetConstraints handles GET /chronology/constraints
func (h *ChronologyHandler) GetConstraints(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetConstraintsQuery{UserID: userCtx.UserID})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetAnalytics handles GET /chronology/analytics
func (h *ChronologyHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetAnalyticsQuery{UserID: userCtx.UserID})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
