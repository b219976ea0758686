package handlers

import (
	"net/http"

	"github.com/matiasleandrokruk/finchat/internal/domain/finance"
	"github.com/matiasleandrokruk/finchat/internal/domain/records"
)

// UserHandler serves profiles and their history.
type UserHandler struct {
	users   *records.UserService
	budgets *records.BudgetService
	chats   *records.ChatLogService
}

func NewUserHandler(users *records.UserService, budgets *records.BudgetService, chats *records.ChatLogService) *UserHandler {
	return &UserHandler{users: users, budgets: budgets, chats: chats}
}

// CreateUserRequest is the body of POST /api/v1/users.
type CreateUserRequest struct {
	Name     string `json:"name"`
	UserType string `json:"userType"`
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := h.users.Create(r.Context(), req.Name, finance.UserType(req.UserType))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// GetUser handles GET /api/v1/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "user id must be a positive integer")
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ListChats handles GET /api/v1/users/{id}/chats?limit=
func (h *UserHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "user id must be a positive integer")
		return
	}
	msgs, err := h.chats.ListByUser(r.Context(), id, queryLimit(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[records.ChatMessage]{Data: msgs})
}

// ListBudgets handles GET /api/v1/users/{id}/budgets?limit=
func (h *UserHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "user id must be a positive integer")
		return
	}
	list, err := h.budgets.ListByUser(r.Context(), id, queryLimit(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[records.Budget]{Data: list})
}
