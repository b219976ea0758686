package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/matiasleandrokruk/finchat/internal/infra/sqlite"
)

func mustMigrate(t *testing.T, db *sql.DB) {
	t.Helper()
	if err := sqlite.MigrateUp(context.Background(), db); err != nil {
		t.Fatalf("MigrateUp() error = %v", err)
	}
}

func TestMigrate_RunsAllMigrations(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	ctx := context.Background()

	if v, err := sqlite.MigrationVersion(ctx, db); err != nil || v != 0 {
		t.Fatalf("MigrationVersion before migrate = (%d, %v); want (0, nil)", v, err)
	}
	mustMigrate(t, db)

	latest, err := sqlite.LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion error = %v", err)
	}
	if latest < 2 {
		t.Errorf("LatestVersion = %d; want >= 2", latest)
	}
	v, err := sqlite.MigrationVersion(ctx, db)
	if err != nil {
		t.Fatalf("MigrationVersion error = %v", err)
	}
	if v != latest {
		t.Errorf("MigrationVersion = %d; want %d", v, latest)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	mustMigrate(t, db)
	mustMigrate(t, db)

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	latest, _ := sqlite.LatestVersion()
	if count != latest {
		t.Errorf("schema_migrations rows = %d; want %d (one per migration)", count, latest)
	}
}

func TestMigrate_TablesCreated(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	mustMigrate(t, db)

	for _, table := range []string{"users", "budgets", "chats"} {
		assertTableExists(t, db, table)
	}
}

func TestMigrate_ForeignKeyConstraintEnforced(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	mustMigrate(t, db)

	_, err := db.Exec(`INSERT INTO chats (user_id, role, message) VALUES (999, 'user', 'hi')`)
	if err == nil {
		t.Error("INSERT with non-existent user_id succeeded; want FK constraint error")
	}
}

func TestMigrate_ChatRoleChecked(t *testing.T) {
	t.Parallel()

	db := mustOpenDB(t)
	mustMigrate(t, db)

	res, err := db.Exec(`INSERT INTO users (name, user_type) VALUES ('Asha', 'Student')`)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	id, _ := res.LastInsertId()

	if _, err := db.Exec(`INSERT INTO chats (user_id, role, message) VALUES (?, 'system', 'x')`, id); err == nil {
		t.Error("INSERT with role 'system' succeeded; want CHECK constraint error")
	}
	if _, err := db.Exec(`INSERT INTO budgets (user_id, data) VALUES (?, 'not json')`, id); err == nil {
		t.Error("INSERT with invalid budget JSON succeeded; want CHECK constraint error")
	}
}

func TestMigrate_InMemory(t *testing.T) {
	t.Parallel()

	db, err := sqlite.NewDB(sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("NewDB error = %v", err)
	}
	defer db.Close()
	mustMigrate(t, db)
	assertTableExists(t, db, "chats")
}

func assertTableExists(t *testing.T, db *sql.DB, table string) {
	t.Helper()
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
	if err != nil {
		t.Errorf("table %q not found: %v", table, err)
	}
}
