package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/matiasleandrokruk/finchat/internal/domain/finance"
	"github.com/matiasleandrokruk/finchat/internal/infra/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.NewDB(sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.MigrateUp(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreateUser(t *testing.T, db *sql.DB, name string) *User {
	t.Helper()
	u, err := NewUserService(db).Create(context.Background(), name, finance.UserStudent)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestUserService_CreateAndGet(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()

	u, err := svc.Create(ctx, "  Asha ", "professional")
	if err != nil {
		t.Fatalf("Create error = %v", err)
	}
	if u.ID == 0 || u.Name != "Asha" || u.UserType != finance.UserProfessional {
		t.Errorf("unexpected user %+v", u)
	}
	if u.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := svc.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if got.ID != u.ID || got.Name != u.Name || got.UserType != u.UserType || !got.CreatedAt.Equal(u.CreatedAt) {
		t.Errorf("Get = %+v; want %+v", got, u)
	}
}

func TestUserService_Errors(t *testing.T) {
	t.Parallel()

	svc := NewUserService(setupTestDB(t))
	ctx := context.Background()

	if _, err := svc.Create(ctx, "   ", finance.UserStudent); !errors.Is(err, ErrInvalidUser) {
		t.Errorf("blank name: expected ErrInvalidUser, got %v", err)
	}
	if _, err := svc.Get(ctx, 42); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("missing id: expected ErrUserNotFound, got %v", err)
	}
}

func TestBudgetService_SaveAndList(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	u := mustCreateUser(t, db, "Ravi")
	svc := NewBudgetService(db)
	ctx := context.Background()

	first, err := svc.Save(ctx, u.ID, finance.DefaultExpenses())
	if err != nil {
		t.Fatalf("Save error = %v", err)
	}
	second, err := svc.Save(ctx, u.ID, finance.Expenses{{Category: "Rent", Amount: 9000}})
	if err != nil {
		t.Fatalf("Save error = %v", err)
	}

	list, err := svc.ListByUser(ctx, u.ID, 0)
	if err != nil {
		t.Fatalf("ListByUser error = %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if len(list[1].Expenses) != 7 || list[1].Expenses[0].Category != "Rent" || list[1].Expenses.Total() != 32300 {
		t.Errorf("expenses did not round-trip in order: %+v", list[1].Expenses)
	}

	limited, err := svc.ListByUser(ctx, u.ID, 1)
	if err != nil || len(limited) != 1 {
		t.Errorf("limit 1: got %d budgets, err %v", len(limited), err)
	}
}

func TestBudgetService_Errors(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewBudgetService(db)
	ctx := context.Background()

	if _, err := svc.Save(ctx, 7, finance.DefaultExpenses()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: expected ErrUserNotFound, got %v", err)
	}
	u := mustCreateUser(t, db, "Ravi")
	if _, err := svc.Save(ctx, u.ID, finance.Expenses{{Category: "Rent", Amount: -1}}); !errors.Is(err, finance.ErrInvalidExpense) {
		t.Errorf("negative amount: expected ErrInvalidExpense, got %v", err)
	}
	if _, err := svc.ListByUser(ctx, 99, 10); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("list unknown user: expected ErrUserNotFound, got %v", err)
	}
}

func TestChatLogService_AppendExchangeAndList(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	u := mustCreateUser(t, db, "Meera")
	svc := NewChatLogService(db)
	ctx := context.Background()

	msgs, err := svc.AppendExchange(ctx, u.ID, "What is a SIP?", "A systematic investment plan.", "extractive")
	if err != nil {
		t.Fatalf("AppendExchange error = %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant || msgs[1].Source != "extractive" {
		t.Fatalf("unexpected exchange %+v", msgs)
	}

	list, err := svc.ListByUser(ctx, u.ID, 0)
	if err != nil {
		t.Fatalf("ListByUser error = %v", err)
	}
	if len(list) != 2 || list[0].Message != "What is a SIP?" || list[1].Source != "extractive" {
		t.Errorf("unexpected transcript %+v", list)
	}
}

func TestChatLogService_ListReturnsRecentInOrder(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	u := mustCreateUser(t, db, "Meera")
	svc := NewChatLogService(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.Append(ctx, u.ID, RoleUser, fmt.Sprintf("m%d", i), ""); err != nil {
			t.Fatalf("Append error = %v", err)
		}
	}
	list, err := svc.ListByUser(ctx, u.ID, 2)
	if err != nil {
		t.Fatalf("ListByUser error = %v", err)
	}
	if len(list) != 2 || list[0].Message != "m3" || list[1].Message != "m4" {
		t.Errorf("expected the last two messages in order, got %+v", list)
	}
}

func TestChatLogService_Errors(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	svc := NewChatLogService(db)
	ctx := context.Background()

	if _, err := svc.AppendExchange(ctx, 5, "q", "a", "fallback"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown user: expected ErrUserNotFound, got %v", err)
	}
	u := mustCreateUser(t, db, "Meera")
	if _, err := svc.Append(ctx, u.ID, Role("system"), "x", ""); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("bad role: expected ErrInvalidRole, got %v", err)
	}
	list, err := svc.ListByUser(ctx, u.ID, 0)
	if err != nil || len(list) != 0 {
		t.Errorf("expected empty transcript after failures, got %d (%v)", len(list), err)
	}
}
