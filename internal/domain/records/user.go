package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matiasleandrokruk/finchat/internal/domain/finance"
)

// User is a registered profile.
type User struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	UserType  finance.UserType `json:"userType"`
	CreatedAt time.Time        `json:"createdAt"`
}

// UserService stores profiles.
type UserService struct {
	db *sql.DB
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// Create registers a profile. An unknown user type is stored as Other.
func (s *UserService) Create(ctx context.Context, name string, userType finance.UserType) (*User, error) {
	if blank(name) {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidUser)
	}
	u := &User{Name: strings.TrimSpace(name), UserType: finance.ParseUserType(string(userType))}

	var created string
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (name, user_type) VALUES (?, ?) RETURNING id, created_at`,
		u.Name, string(u.UserType),
	).Scan(&u.ID, &created)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return u, nil
}

// Get loads a profile by id.
func (s *UserService) Get(ctx context.Context, id int64) (*User, error) {
	var (
		u        User
		userType string
		created  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, user_type, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &userType, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrUserNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	u.UserType = finance.UserType(userType)
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &u, nil
}
