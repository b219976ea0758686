package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/matiasleandrokruk/finchat/pkg/uuid"
)

// OrchestratorConfig carries the connection parameters of every backend.
// Missing fields disable the corresponding backend.
type OrchestratorConfig struct {
	Session    SessionConfig
	Generation GenerationConfig
	Extractive ExtractiveConfig
	// HTTPClient overrides the per-backend clients (tests, custom transports).
	HTTPClient *http.Client
}

// Backends groups already-constructed adapters. Nil members count as disabled.
type Backends struct {
	Session    *SessionBackend
	Generation *GenerationBackend
	Extractive *ExtractiveBackend
}

// Orchestrator answers a query by trying the session, HTTP and extractive
// backends in that order and returning the first non-empty answer. Ask never
// fails: when every backend is exhausted it returns FallbackText.
//
// Ask is safe for concurrent use. Messages to the conversational backend are
// serialised because one session is shared by every caller.
type Orchestrator struct {
	session    *SessionBackend
	generation *GenerationBackend
	extractive *ExtractiveBackend
	logger     *zap.Logger

	// sendMu serialises conversational sends and session re-creation.
	// sessionID is read without it so Status never waits on a send.
	sendMu    sync.Mutex
	sessionID atomic.Pointer[string]
}

// NewOrchestratorFromConfig builds every backend from cfg and initialises them
// (session handshake, extractive reader load).
func NewOrchestratorFromConfig(ctx context.Context, cfg OrchestratorConfig, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return NewOrchestrator(ctx, Backends{
		Session:    NewSessionBackend(cfg.Session, cfg.HTTPClient, logger),
		Generation: NewGenerationBackend(cfg.Generation, cfg.HTTPClient),
		Extractive: LoadExtractiveBackend(ctx, cfg.Extractive, cfg.HTTPClient, logger),
	}, logger)
}

// NewOrchestrator wires the given backends. If the session backend is enabled,
// one handshake is attempted; on failure the session backend stays unused for
// the orchestrator's lifetime.
func NewOrchestrator(ctx context.Context, b Backends, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		session:    b.Session,
		generation: b.Generation,
		extractive: b.Extractive,
		logger:     logger.With(zap.String("component", "orchestrator")),
	}

	if o.session.Enabled() {
		sid, err := o.session.CreateSession(ctx)
		if err != nil {
			o.logger.Warn("session handshake failed; session backend disabled", zap.Error(err))
		}
		o.setSessionID(sid)
	}

	o.logger.Info("orchestrator ready",
		zap.Bool("session", o.hasSession()),
		zap.Bool("http", o.generation.Enabled()),
		zap.Bool("extractive", o.extractive.Available()))
	return o
}

// Status reports which backends are usable right now.
func (o *Orchestrator) Status() BackendStatus {
	return BackendStatus{
		Session:    o.hasSession(),
		HTTP:       o.generation.Enabled(),
		Extractive: o.extractive.Available(),
	}
}

func (o *Orchestrator) hasSession() bool {
	return o.session.Enabled() && o.currentSessionID() != ""
}

func (o *Orchestrator) currentSessionID() string {
	if sid := o.sessionID.Load(); sid != nil {
		return *sid
	}
	return ""
}

func (o *Orchestrator) setSessionID(sid string) {
	o.sessionID.Store(&sid)
}

// Ask returns exactly one Response for q.
func (o *Orchestrator) Ask(ctx context.Context, q Query) Response {
	askID := uuid.NewString()
	log := o.logger.With(zap.String("ask_id", askID))
	start := time.Now()

	steps := []struct {
		source Source
		run    func(context.Context, Query) (string, error)
	}{
		{SourceSession, o.askSession},
		{SourceHTTP, o.askGeneration},
		{SourceExtractive, o.askExtractive},
	}

	for _, step := range steps {
		text, err := attempt(ctx, q, step.run)
		if err != nil {
			log.Warn("backend failed", zap.String("source", string(step.source)), zap.Error(err))
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			log.Info("answered", zap.String("source", string(step.source)), zap.Duration("duration", time.Since(start)))
			return Response{Source: step.source, Text: text}
		}
	}

	log.Info("answered", zap.String("source", string(SourceFallback)), zap.Duration("duration", time.Since(start)))
	return Response{Source: SourceFallback, Text: FallbackText}
}

// attempt runs one backend step and turns a panic into an error.
func attempt(ctx context.Context, q Query, run func(context.Context, Query) (string, error)) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("backend panic: %v", r)
		}
	}()
	return run(ctx, q)
}

func (o *Orchestrator) askSession(ctx context.Context, q Query) (string, error) {
	if !o.session.Enabled() {
		return "", nil
	}
	o.sendMu.Lock()
	defer o.sendMu.Unlock()
	sid := o.currentSessionID()
	if sid == "" {
		return "", nil
	}

	text, err := o.session.Send(ctx, sid, q.Text)
	if !errors.Is(err, ErrSessionNotFound) {
		return text, err
	}

	// The session expired: open a fresh one and retry once.
	o.logger.Info("session expired; reopening")
	sid, err = o.session.CreateSession(ctx)
	if err != nil {
		return "", fmt.Errorf("reopen session: %w", err)
	}
	o.setSessionID(sid)
	return o.session.Send(ctx, sid, q.Text)
}

func (o *Orchestrator) askGeneration(ctx context.Context, q Query) (string, error) {
	if !o.generation.Enabled() {
		return "", nil
	}
	return o.generation.Generate(ctx, BuildPrompt(q), DefaultMaxTokens)
}

func (o *Orchestrator) askExtractive(ctx context.Context, q Query) (string, error) {
	if !o.extractive.Available() {
		return "", nil
	}
	passage := q.Context
	if strings.TrimSpace(passage) == "" {
		passage = DefaultContext
	}
	return o.extractive.Answer(ctx, q.Text, passage)
}

// BuildPrompt prefixes the query with its context, if any.
func BuildPrompt(q Query) string {
	if q.Context == "" {
		return q.Text
	}
	return q.Context + "\n\nUser: " + q.Text
}
