package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/matiasleandrokruk/finchat/internal/domain/finance"
	"github.com/matiasleandrokruk/finchat/internal/domain/records"
)

// BudgetHandler analyses monthly budgets.
type BudgetHandler struct {
	users   *records.UserService
	budgets *records.BudgetService
	logger  *zap.Logger
}

func NewBudgetHandler(users *records.UserService, budgets *records.BudgetService, logger *zap.Logger) *BudgetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BudgetHandler{users: users, budgets: budgets, logger: logger.With(zap.String("component", "budget"))}
}

// AnalyzeBudgetRequest is the body of POST /api/v1/budgets/analyze.
// Omitted expenses use the default budget; a missing userType is taken from
// the stored profile of userId.
type AnalyzeBudgetRequest struct {
	UserID       int64            `json:"userId,omitempty"`
	UserType     string           `json:"userType,omitempty"`
	AnnualIncome float64          `json:"annualIncome"`
	Expenses     finance.Expenses `json:"expenses,omitempty"`
}

// AnalyzeBudgetResponse is the analysis plus the id of the saved budget, if any.
type AnalyzeBudgetResponse struct {
	finance.Analysis
	BudgetID int64 `json:"budgetId,omitempty"`
}

// Analyze handles POST /api/v1/budgets/analyze
func (h *BudgetHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Expenses == nil {
		req.Expenses = finance.DefaultExpenses()
	}

	userType := finance.ParseUserType(req.UserType)
	if req.UserID != 0 {
		u, err := h.users.Get(r.Context(), req.UserID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if req.UserType == "" {
			userType = u.UserType
		}
	}

	analysis, err := finance.Analyze(req.Expenses, userType, req.AnnualIncome)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := AnalyzeBudgetResponse{Analysis: analysis}
	if req.UserID != 0 {
		// Saving is best-effort: the analysis is still returned.
		b, err := h.budgets.Save(r.Context(), req.UserID, req.Expenses)
		if err != nil {
			h.logger.Warn("budget not saved", zap.Int64("user_id", req.UserID), zap.Error(err))
		} else {
			resp.BudgetID = b.ID
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
