package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rowanhart/tasknest/internal/request"
	"github.com/rowanhart/tasknest/internal/store"
)

// TagHandler serves aggregated hashtag statistics
type TagHandler struct {
	stats  store.TagStatisticsStore
	logger *zap.Logger
}

// NewTagHandler creates a new tag statistics handler
func NewTagHandler(stats store.TagStatisticsStore, logger *zap.Logger) *TagHandler {
	return &TagHandler{stats: stats, logger: logger}
}

// RegisterRoutes registers tag routes on the given router.
// The router should already have the /tags prefix.
func (h *TagHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetStatistics).Methods("GET")
}

// GetStatistics returns the authenticated user's hashtag statistics as last
// computed by the worker. Responds 404 until the first analysis has run.
func (h *TagHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	stats, err := h.stats.GetByOwner(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Tag statistics not computed yet")
			return
		}
		h.logger.Error("failed_to_get_tag_statistics",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to load tag statistics")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
