package records

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one line of the transcript. Source is set on assistant
// messages and names the backend that answered.
type ChatMessage struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Role      Role      `json:"role"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatLogService stores the chat transcript.
type ChatLogService struct {
	db *sql.DB
}

func NewChatLogService(db *sql.DB) *ChatLogService {
	return &ChatLogService{db: db}
}

// AppendExchange stores a question and its answer atomically.
func (s *ChatLogService) AppendExchange(ctx context.Context, userID int64, question, answer, source string) ([]ChatMessage, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin chat exchange: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after Commit
	}()

	if err := requireUser(ctx, tx, userID); err != nil {
		return nil, err
	}
	q, err := appendMessage(ctx, tx, userID, RoleUser, question, "")
	if err != nil {
		return nil, err
	}
	a, err := appendMessage(ctx, tx, userID, RoleAssistant, answer, source)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit chat exchange: %w", err)
	}
	return []ChatMessage{*q, *a}, nil
}

// Append stores a single message.
func (s *ChatLogService) Append(ctx context.Context, userID int64, role Role, message, source string) (*ChatMessage, error) {
	if err := requireUser(ctx, s.db, userID); err != nil {
		return nil, err
	}
	return appendMessage(ctx, s.db, userID, role, message, source)
}

func appendMessage(ctx context.Context, q queryer, userID int64, role Role, message, source string) (*ChatMessage, error) {
	if role != RoleUser && role != RoleAssistant {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	m := &ChatMessage{UserID: userID, Role: role, Message: message, Source: source}
	var created string
	err := q.QueryRowContext(ctx,
		`INSERT INTO chats (user_id, role, message, source) VALUES (?, ?, ?, ?) RETURNING id, created_at`,
		userID, string(role), message, source,
	).Scan(&m.ID, &created)
	if err != nil {
		return nil, fmt.Errorf("insert chat message: %w", err)
	}
	if m.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return m, nil
}

// ListByUser returns the user's most recent messages in chronological order.
func (s *ChatLogService) ListByUser(ctx context.Context, userID int64, limit int) ([]ChatMessage, error) {
	if err := requireUser(ctx, s.db, userID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, role, message, source, created_at FROM (
			SELECT id, user_id, role, message, source, created_at
			FROM chats
			WHERE user_id = ?
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC
	`, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	out := []ChatMessage{}
	for rows.Next() {
		var (
			m             ChatMessage
			role, created string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &role, &m.Message, &m.Source, &created); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		m.Role = Role(role)
		if m.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
