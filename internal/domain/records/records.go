// Package records persists users, analysed budgets and the chat transcript.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidUser  = errors.New("invalid user")
	ErrInvalidRole  = errors.New("invalid chat role")
)

// DefaultListLimit caps history listings when the caller passes limit <= 0.
const DefaultListLimit = 50

// maxListLimit is the largest page any listing returns.
const maxListLimit = 500

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// requireUser returns ErrUserNotFound unless id exists.
func requireUser(ctx context.Context, q queryer, id int64) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}
	return err
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
