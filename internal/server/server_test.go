package server

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/matiasleandrokruk/finchat/internal/api"
	"github.com/matiasleandrokruk/finchat/internal/domain/chat"
	"github.com/matiasleandrokruk/finchat/internal/infra/llm"
	"github.com/matiasleandrokruk/finchat/internal/infra/sqlite"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Host != "0.0.0.0" {
		t.Fatalf("Host = %q; want %q", cfg.Host, "0.0.0.0")
	}
	if cfg.Port != 8080 {
		t.Fatalf("Port = %d; want %d", cfg.Port, 8080)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Fatalf("ReadTimeout = %v; want %v", cfg.ReadTimeout, 15*time.Second)
	}
	if cfg.WriteTimeout < llm.DefaultSessionTimeout+llm.DefaultGenerationTimeout+llm.DefaultExtractiveTimeout {
		t.Fatalf("WriteTimeout = %v; shorter than a full fallback chain", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout != 60*time.Second {
		t.Fatalf("IdleTimeout = %v; want %v", cfg.IdleTimeout, 60*time.Second)
	}
}

func newDeps(t *testing.T) api.Deps {
	t.Helper()
	db, err := sqlite.NewDB(sqlite.MemoryPath)
	if err != nil {
		t.Fatalf("sqlite.NewDB error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := sqlite.MigrateUp(context.Background(), db); err != nil {
		t.Fatalf("sqlite.MigrateUp error = %v", err)
	}
	orch := llm.NewOrchestrator(context.Background(), llm.Backends{}, nil)
	return api.Deps{
		DB:     db,
		Chat:   chat.NewService(orch, nil, nil, nil, nil),
		Status: orch,
		Logger: zaptest.NewLogger(t),
	}
}

func TestNewServer_ConfiguresAddressAndHandler(t *testing.T) {
	cfg := Config{Host: "127.0.0.1", Port: 18080, ReadTimeout: time.Second, WriteTimeout: 2 * time.Second, IdleTimeout: 3 * time.Second}
	s := NewServer(newDeps(t), cfg)

	if s.http.Addr != "127.0.0.1:18080" {
		t.Fatalf("Addr = %q; want %q", s.http.Addr, "127.0.0.1:18080")
	}
	if s.http.Handler == nil {
		t.Fatal("Handler should not be nil")
	}
	if s.http.WriteTimeout != 2*time.Second {
		t.Fatalf("WriteTimeout = %v", s.http.WriteTimeout)
	}
}

func TestServer_StartShutdown(t *testing.T) {
	deps := newDeps(t)
	s := NewServer(deps, Config{Host: "127.0.0.1", Port: 0, ReadTimeout: time.Second, WriteTimeout: time.Second})

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown error = %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned %v after shutdown; want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
	if err := deps.DB.Ping(); err == nil {
		t.Fatal("expected the database to be closed by Shutdown")
	}
}
