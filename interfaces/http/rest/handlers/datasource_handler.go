package handlers

import (
	"encoding/json"
	"net/http"

	"lorekeeper-backend/application/broadcast"
	"lorekeeper-backend/application/ports"
	"lorekeeper-backend/pkg/observability"

	"go.uber.org/zap"
)

// DataSourceHandler exposes the synthetic data toggle. A flip takes
// effect on the next read of every surface; connected clients get a
// push notification so they can refetch.
type DataSourceHandler struct {
	toggle   *broadcast.DataSourceBroadcaster
	metrics  *observability.Metrics
	notifier ports.PushNotifier
	logger   *zap.Logger
}

// NewDataSourceHandler creates a new data source handler
func NewDataSourceHandler(
	toggle *broadcast.DataSourceBroadcaster,
	metrics *observability.Metrics,
	notifier ports.PushNotifier,
	logger *zap.Logger,
) *DataSourceHandler {
	return &DataSourceHandler{
		toggle:   toggle,
		metrics:  metrics,
		notifier: notifier,
		logger:   logger,
	}
}

// ToggleRequest represents the request body for setting the data source
type ToggleRequest struct {
	Synthetic bool `json:"synthetic"`
}

// GetDataSource handles GET /datasource
func (h *DataSourceHandler) GetDataSource(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"synthetic": h.toggle.Enabled(),
	})
}

// SetDataSource handles PUT /datasource
func (h *DataSourceHandler) SetDataSource(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	changed := h.toggle.Enabled() != req.Synthetic
	h.toggle.SetEnabled(req.Synthetic)

	if changed {
		h.metrics.RecordDataSourceSwitch(r.Context(), req.Synthetic)

		if h.notifier != nil {
			if err := h.notifier.NotifyAll(r.Context(), map[string]interface{}{
				"event":     "data_source_switched",
				"synthetic": req.Synthetic,
			}); err != nil {
				h.logger.Warn("failed to notify clients of data source switch", zap.Error(err))
			}
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"synthetic": req.Synthetic,
		"changed":   changed,
	})
}
