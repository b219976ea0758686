package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matiasleandrokruk/finchat/internal/domain/finance"
)

// Budget is one saved set of monthly expenses.
type Budget struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"userId"`
	Expenses  finance.Expenses `json:"expenses"`
	CreatedAt time.Time        `json:"createdAt"`
}

// BudgetService stores analysed budgets.
type BudgetService struct {
	db *sql.DB
}

func NewBudgetService(db *sql.DB) *BudgetService {
	return &BudgetService{db: db}
}

// Save stores expenses for an existing user.
func (s *BudgetService) Save(ctx context.Context, userID int64, expenses finance.Expenses) (*Budget, error) {
	if err := expenses.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(expenses)
	if err != nil {
		return nil, fmt.Errorf("encode budget: %w", err)
	}
	if err := requireUser(ctx, s.db, userID); err != nil {
		return nil, err
	}

	b := &Budget{UserID: userID, Expenses: expenses}
	var created string
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO budgets (user_id, data) VALUES (?, ?) RETURNING id, created_at`,
		userID, string(data),
	).Scan(&b.ID, &created)
	if err != nil {
		return nil, fmt.Errorf("insert budget: %w", err)
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return b, nil
}

// ListByUser returns the user's budgets, newest first.
func (s *BudgetService) ListByUser(ctx context.Context, userID int64, limit int) ([]Budget, error) {
	if err := requireUser(ctx, s.db, userID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, data, created_at
		FROM budgets
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := []Budget{}
	for rows.Next() {
		var (
			b             Budget
			data, created string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &data, &created); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &b.Expenses); err != nil {
			return nil, fmt.Errorf("decode budget %d: %w", b.ID, err)
		}
		if b.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
