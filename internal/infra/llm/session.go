package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultAssistantVersion is the Watson Assistant v2 API version date sent on every call.
const DefaultAssistantVersion = "2021-06-14"

// DefaultSessionTimeout bounds each call to the conversational backend.
const DefaultSessionTimeout = 20 * time.Second

// ErrSessionNotFound is returned by Send when the backend no longer knows the
// session (it expired or was deleted).
var ErrSessionNotFound = errors.New("session not found")

// SessionConfig holds the connection parameters for the conversational backend.
type SessionConfig struct {
	APIKey      string
	URL         string
	AssistantID string
	IAMURL      string // empty = DefaultIAMURL
	Version     string // empty = DefaultAssistantVersion
	Timeout     time.Duration
}

// Complete reports whether every field needed to talk to the backend is present.
func (c SessionConfig) Complete() bool {
	return c.APIKey != "" && c.URL != "" && c.AssistantID != ""
}

// SessionBackend talks to a stateful conversational service (Watson Assistant
// v2 REST protocol). A session must be created before messages can be sent.
type SessionBackend struct {
	enabled     bool
	baseURL     string
	assistantID string
	version     string
	timeout     time.Duration
	client      *http.Client
	tokens      *iamTokenSource
	logger      *zap.Logger
}

// NewSessionBackend builds the adapter. An incomplete config yields a disabled
// adapter that never touches the network.
func NewSessionBackend(cfg SessionConfig, client *http.Client, logger *zap.Logger) *SessionBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &SessionBackend{enabled: cfg.Complete(), logger: logger.With(zap.String("backend", string(SourceSession)))}
	if !b.enabled {
		return b
	}
	b.timeout = cfg.Timeout
	if b.timeout <= 0 {
		b.timeout = DefaultSessionTimeout
	}
	b.baseURL = strings.TrimRight(cfg.URL, "/")
	b.assistantID = cfg.AssistantID
	b.version = cfg.Version
	if b.version == "" {
		b.version = DefaultAssistantVersion
	}
	b.client = newHTTPClient(client, b.timeout)
	b.tokens = newIAMTokenSource(cfg.APIKey, cfg.IAMURL, b.client)
	return b
}

// Enabled reports whether the adapter was configured.
func (b *SessionBackend) Enabled() bool { return b != nil && b.enabled }

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

// CreateSession performs the session handshake. It returns "" and no error
// when the adapter is disabled.
func (b *SessionBackend) CreateSession(ctx context.Context) (string, error) {
	if !b.Enabled() {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	raw, err := b.post(ctx, b.endpoint("sessions"), struct{}{})
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	var resp createSessionResponse
	if decodeErr := json.Unmarshal(raw, &resp); decodeErr != nil {
		return "", fmt.Errorf("create session: decode: %w", decodeErr)
	}
	if resp.SessionID == "" {
		return "", errors.New("create session: empty session_id")
	}
	return resp.SessionID, nil
}

type messageInput struct {
	MessageType string `json:"message_type"`
	Text        string `json:"text"`
}

type messageRequest struct {
	Input messageInput `json:"input"`
}

type messageResponse struct {
	Output struct {
		Generic []struct {
			Text string `json:"text"`
		} `json:"generic"`
	} `json:"output"`
}

// Send posts one user message inside sessionID and returns the assistant's
// text fragments joined by newlines. Unexpected response shapes yield "".
func (b *SessionBackend) Send(ctx context.Context, sessionID, text string) (string, error) {
	if !b.Enabled() || sessionID == "" {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	raw, err := b.post(ctx, b.endpoint("sessions", sessionID, "message"), messageRequest{
		Input: messageInput{MessageType: "text", Text: text},
	})
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
			return "", fmt.Errorf("send message: %w", ErrSessionNotFound)
		}
		return "", fmt.Errorf("send message: %w", err)
	}
	return joinGenericText(raw, b.logger), nil
}

// joinGenericText extracts output.generic[].text from a message response.
func joinGenericText(raw []byte, logger *zap.Logger) string {
	var resp messageResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		logger.Debug("unexpected message response shape", zap.Error(err))
		return ""
	}
	var sb strings.Builder
	for _, g := range resp.Output.Generic {
		if g.Text == "" {
			continue
		}
		sb.WriteString(g.Text)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

func (b *SessionBackend) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	token, err := b.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return postJSON(ctx, b.client, endpoint, bearer(token), payload)
}

// endpoint builds {base}/v2/assistants/{id}/{parts...}?version=...
func (b *SessionBackend) endpoint(parts ...string) string {
	segs := []string{b.baseURL, "v2", "assistants", url.PathEscape(b.assistantID)}
	for _, p := range parts {
		segs = append(segs, url.PathEscape(p))
	}
	return strings.Join(segs, "/") + "?version=" + url.QueryEscape(b.version)
}
