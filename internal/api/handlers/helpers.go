package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matiasleandrokruk/finchat/internal/domain/chat"
	"github.com/matiasleandrokruk/finchat/internal/domain/finance"
	"github.com/matiasleandrokruk/finchat/internal/domain/records"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

var errInvalidID = errors.New("invalid id")

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// queryLimit reads ?limit=; 0 lets the service apply its default.
func queryLimit(r *http.Request) int {
	if lim, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && lim > 0 {
		return lim
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // headers already sent
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeDomainError maps service errors to a status. Unknown errors become a
// generic 500 so internals never reach the client.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, records.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, records.ErrInvalidUser),
		errors.Is(err, chat.ErrEmptyQuery),
		errors.Is(err, finance.ErrInvalidExpense),
		errors.Is(err, finance.ErrInvalidIncome):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
