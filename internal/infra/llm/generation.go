package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultGenerationTimeout bounds each call to the HTTP generation backend.
const DefaultGenerationTimeout = 20 * time.Second

// GenerationConfig holds the connection parameters for the HTTP generation backend.
type GenerationConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Complete reports whether both endpoint and credential are present.
func (c GenerationConfig) Complete() bool {
	return c.URL != "" && c.APIKey != ""
}

// GenerationBackend calls a stateless JSON text-generation endpoint
// (Granite-style `{"prompt", "max_tokens"}` requests).
type GenerationBackend struct {
	enabled bool
	url     string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

type generationRequest struct {
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

// NewGenerationBackend builds the adapter. An incomplete config yields a
// disabled adapter.
func NewGenerationBackend(cfg GenerationConfig, client *http.Client) *GenerationBackend {
	b := &GenerationBackend{enabled: cfg.Complete()}
	if !b.enabled {
		return b
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	b.url = cfg.URL
	b.apiKey = cfg.APIKey
	b.timeout = timeout
	b.client = newHTTPClient(client, timeout)
	return b
}

// Enabled reports whether the adapter was configured.
func (b *GenerationBackend) Enabled() bool { return b != nil && b.enabled }

// Generate sends one generation request. Disabled adapters return "" without
// making a network call. maxTokens <= 0 means DefaultMaxTokens.
func (b *GenerationBackend) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if !b.Enabled() {
		return "", nil
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	raw, err := postJSON(ctx, b.client, b.url, bearer(b.apiKey), generationRequest{Prompt: prompt, MaxTokens: maxTokens})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	text, err := normalizeGeneration(raw)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return text, nil
}

// normalizeGeneration maps the backend's response shapes to plain text, in order:
// a top-level string "text", then a string choices[0].text, then the whole
// decoded body. Non-string "text" values are not answers.
func normalizeGeneration(raw []byte) (string, error) {
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	obj, ok := body.(map[string]any)
	if !ok {
		return stringify(body), nil
	}
	if text, isStr := obj["text"].(string); isStr {
		return text, nil
	}
	if choices, isList := obj["choices"].([]any); isList && len(choices) > 0 {
		if first, isObj := choices[0].(map[string]any); isObj {
			if text, isStr := first["text"].(string); isStr {
				return text, nil
			}
		}
	}
	return stringify(body), nil
}

// stringify renders a decoded JSON value as text. Strings are returned as-is,
// null becomes "".
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
