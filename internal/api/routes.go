// Package api wires the HTTP routes of the finchat service.
package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/matiasleandrokruk/finchat/internal/api/handlers"
	apimiddleware "github.com/matiasleandrokruk/finchat/internal/api/middleware"
	"github.com/matiasleandrokruk/finchat/internal/domain/chat"
	"github.com/matiasleandrokruk/finchat/internal/domain/records"
)

// Deps are the services the router needs. DB backs users, budgets and the
// chat transcript; Chat must be built on the same DB.
type Deps struct {
	DB     *sql.DB
	Chat   *chat.Service
	Status handlers.StatusReporter
	Stats  *chat.Stats
	Logger *zap.Logger
}

// NewRouter creates the chi router with every route registered.
func NewRouter(d Deps) *chi.Mux {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Stats == nil {
		d.Stats = chat.NewStats()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apimiddleware.AccessLog(d.Logger))
	r.Use(middleware.Recoverer)

	users := records.NewUserService(d.DB)
	budgets := records.NewBudgetService(d.DB)
	chats := records.NewChatLogService(d.DB)

	healthHandler := handlers.NewHealthHandler(d.Status)
	userHandler := handlers.NewUserHandler(users, budgets, chats)
	budgetHandler := handlers.NewBudgetHandler(users, budgets, d.Logger)
	chatHandler := handlers.NewChatHandler(d.Chat)
	statsHandler := handlers.NewStatsHandler(d.Stats)

	r.Get("/health", healthHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.CreateUser)             // POST /api/v1/users
			r.Get("/{id}", userHandler.GetUser)             // GET /api/v1/users/{id}
			r.Get("/{id}/chats", userHandler.ListChats)     // GET /api/v1/users/{id}/chats
			r.Get("/{id}/budgets", userHandler.ListBudgets) // GET /api/v1/users/{id}/budgets
		})

		r.Post("/budgets/analyze", budgetHandler.Analyze) // POST /api/v1/budgets/analyze

		r.Route("/chat", func(r chi.Router) {
			r.Post("/", chatHandler.Chat)       // POST /api/v1/chat
			r.Post("/quick", chatHandler.Quick) // POST /api/v1/chat/quick
		})

		r.Get("/stats", statsHandler.Stats) // GET /api/v1/stats
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`)) //nolint:errcheck
	})
	return r
}
