// Package chat answers user questions through the answer orchestrator,
// records the exchange and publishes it for statistics.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/matiasleandrokruk/finchat/internal/domain/finance"
	"github.com/matiasleandrokruk/finchat/internal/domain/records"
	"github.com/matiasleandrokruk/finchat/internal/infra/eventbus"
	"github.com/matiasleandrokruk/finchat/internal/infra/llm"
	"github.com/matiasleandrokruk/finchat/pkg/uuid"
)

// TopicAnswered carries an Answered payload for every reply.
const TopicAnswered = "chat.answered"

var ErrEmptyQuery = errors.New("query is required")

// Answerer produces one response per query and never fails.
type Answerer interface {
	Ask(ctx context.Context, q llm.Query) llm.Response
}

// Request is one user question. UserID 0 means anonymous: nothing is stored.
// An empty UserType falls back to the stored profile of UserID.
type Request struct {
	Query        string
	UserID       int64
	UserType     finance.UserType
	AnnualIncome float64
}

// Reply is the answer returned to the caller.
type Reply struct {
	ID     string     `json:"id"`
	Source llm.Source `json:"source"`
	Text   string     `json:"text"`
}

// Answered is published on TopicAnswered.
type Answered struct {
	ID       string
	UserID   int64
	Source   llm.Source
	Stored   bool
	Duration time.Duration
}

// Service wires the orchestrator to persistence and the event bus.
type Service struct {
	answerer Answerer
	users    *records.UserService
	chats    *records.ChatLogService
	bus      eventbus.EventBus
	logger   *zap.Logger
}

// NewService builds a Service. users and chats may be nil to run without a
// database; bus may be nil to skip publishing.
func NewService(answerer Answerer, users *records.UserService, chats *records.ChatLogService, bus eventbus.EventBus, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		answerer: answerer,
		users:    users,
		chats:    chats,
		bus:      bus,
		logger:   logger.With(zap.String("component", "chat")),
	}
}

// Ask answers req.Query with the user's profile as context.
func (s *Service) Ask(ctx context.Context, req Request) (Reply, error) {
	question := strings.TrimSpace(req.Query)
	if question == "" {
		return Reply{}, ErrEmptyQuery
	}

	userType, err := s.profileType(ctx, req)
	if err != nil {
		return Reply{}, err
	}
	var profile string
	if userType != "" || req.AnnualIncome > 0 {
		if userType == "" {
			userType = finance.UserOther
		}
		profile = finance.ProfileContext(userType, req.AnnualIncome)
	}

	start := time.Now()
	resp := s.answerer.Ask(ctx, llm.Query{Text: question, Context: profile})
	reply := Reply{ID: uuid.NewString(), Source: resp.Source, Text: resp.Text}

	stored := s.store(ctx, req.UserID, question, resp)
	if s.bus != nil {
		s.bus.Publish(TopicAnswered, Answered{
			ID:       reply.ID,
			UserID:   req.UserID,
			Source:   resp.Source,
			Stored:   stored,
			Duration: time.Since(start),
		})
	}
	return reply, nil
}

// QuickSave asks the "how much should I save each month?" template for the profile.
func (s *Service) QuickSave(ctx context.Context, req Request) (Reply, error) {
	userType, err := s.profileType(ctx, req)
	if err != nil {
		return Reply{}, err
	}
	if userType == "" {
		userType = finance.UserOther
	}
	req.UserType = userType
	req.Query = finance.SavingsPrompt(userType, req.AnnualIncome)
	return s.Ask(ctx, req)
}

// profileType resolves the user type, loading the stored profile when needed.
// An unknown UserID is an error.
func (s *Service) profileType(ctx context.Context, req Request) (finance.UserType, error) {
	if req.UserType != "" {
		return finance.ParseUserType(string(req.UserType)), nil
	}
	if req.UserID == 0 || s.users == nil {
		return "", nil
	}
	u, err := s.users.Get(ctx, req.UserID)
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}
	return u.UserType, nil
}

// store appends the exchange to the transcript. Failures are logged, never returned.
func (s *Service) store(ctx context.Context, userID int64, question string, resp llm.Response) bool {
	if userID == 0 || s.chats == nil {
		return false
	}
	if _, err := s.chats.AppendExchange(ctx, userID, question, resp.Text, string(resp.Source)); err != nil {
		s.logger.Warn("chat exchange not stored", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	return true
}
