package handlers

import (
	"net/http"

	"lorekeeper-backend/application/queries"
	querybus "lorekeeper-backend/application/queries/bus"
	"lorekeeper-backend/pkg/auth"
	pkgerrors "lorekeeper-backend/pkg/errors"

	"go.uber.org/zap"
)

// AuxiliaryHandler serves the quest log and memory-review proposals
type AuxiliaryHandler struct {
	queryBus *querybus.QueryBus
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewAuxiliaryHandler creates a new auxiliary handler
func NewAuxiliaryHandler(queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *AuxiliaryHandler {
	return &AuxiliaryHandler{
		queryBus: queryBus,
		errors:   errorHandler,
		logger:   logger,
	}
}

// ListQuests handles GET /quests
func (h *AuxiliaryHandler) ListQuests(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListQuestsQuery{
		UserID: userCtx.UserID,
		Status: r.URL.Query().Get("status"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ListProposals handles GET /review/proposals
func (h *AuxiliaryHandler) ListProposals(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListProposalsQuery{UserID: userCtx.UserID})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
