package handlers

import (
	"context"
	"net/http"

	"github.com/matiasleandrokruk/finchat/internal/domain/chat"
	"github.com/matiasleandrokruk/finchat/internal/domain/finance"
)

// ChatService is the subset of *chat.Service used by ChatHandler.
type ChatService interface {
	Ask(ctx context.Context, req chat.Request) (chat.Reply, error)
	QuickSave(ctx context.Context, req chat.Request) (chat.Reply, error)
}

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{chat: svc}
}

// ChatRequest is the body of POST /api/v1/chat and /api/v1/chat/quick.
// Query is ignored by the quick endpoint.
type ChatRequest struct {
	Query        string  `json:"query"`
	UserID       int64   `json:"userId,omitempty"`
	UserType     string  `json:"userType,omitempty"`
	AnnualIncome float64 `json:"annualIncome,omitempty"`
}

func (req ChatRequest) toDomain() chat.Request {
	return chat.Request{
		Query:        req.Query,
		UserID:       req.UserID,
		UserType:     finance.UserType(req.UserType),
		AnnualIncome: req.AnnualIncome,
	}
}

// Chat handles POST /api/v1/chat. Every accepted question gets a 200 with an
// answer, even when all backends are down.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reply, err := h.chat.Ask(r.Context(), req.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// Quick handles POST /api/v1/chat/quick
func (h *ChatHandler) Quick(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reply, err := h.chat.QuickSave(r.Context(), req.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
