package handlers

import (
	"net/http"

	"github.com/matiasleandrokruk/finchat/internal/domain/chat"
)

type StatsHandler struct {
	stats *chat.Stats
}

func NewStatsHandler(stats *chat.Stats) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Stats handles GET /api/v1/stats
func (h *StatsHandler) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Snapshot())
}
