package handlers

import (
	"net/http"

	"github.com/matiasleandrokruk/finchat/internal/infra/llm"
)

// StatusReporter reports backend availability; *llm.Orchestrator satisfies it.
type StatusReporter interface {
	Status() llm.BackendStatus
}

type HealthHandler struct {
	status StatusReporter
}

func NewHealthHandler(status StatusReporter) *HealthHandler {
	return &HealthHandler{status: status}
}

type healthResponse struct {
	Status   string            `json:"status"`
	Backends llm.BackendStatus `json:"backends"`
}

// Health handles GET /health. The service is healthy even with every backend
// down, since the fallback answer is always available.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.status != nil {
		resp.Backends = h.status.Status()
	}
	writeJSON(w, http.StatusOK, resp)
}
