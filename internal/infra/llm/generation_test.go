package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNormalizeGeneration(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want string
	}{
		{"text field", `{"text":"A"}`, "A"},
		{"choices", `{"choices":[{"text":"B"}]}`, "B"},
		{"text wins over choices", `{"text":"A","choices":[{"text":"B"}]}`, "A"},
		{"unrecognised object is stringified", `{"foo":"bar"}`, `{"foo":"bar"}`},
		{"empty choices is stringified", `{"choices":[]}`, `{"choices":[]}`},
		{"choice without text is stringified", `{"choices":[{"message":"m"}]}`, `{"choices":[{"message":"m"}]}`},
		{"null text is stringified", `{"text":null}`, `{"text":null}`},
		{"bare string", `"plain"`, "plain"},
		{"non-string text is stringified", `{"text":7}`, `{"text":7}`},
		{"non-string text falls through to choices", `{"text":7,"choices":[{"text":"B"}]}`, "B"},
		{"non-string choice text is stringified", `{"choices":[{"text":42}]}`, `{"choices":[{"text":42}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := normalizeGeneration([]byte(tc.body))
			if err != nil {
				t.Fatalf("normalizeGeneration(%s) error: %v", tc.body, err)
			}
			if got != tc.want {
				t.Errorf("normalizeGeneration(%s) = %q; want %q", tc.body, got, tc.want)
			}
		})
	}
}

func TestNormalizeGeneration_InvalidJSON_ReturnsError(t *testing.T) {
	t.Parallel()

	if _, err := normalizeGeneration([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestGenerationBackend_Unconfigured_NoNetworkCall(t *testing.T) {
	t.Parallel()

	srv, calls := newGenerationServer(t, http.StatusOK, `{"text":"A"}`)

	for name, cfg := range map[string]GenerationConfig{
		"missing key":      {URL: srv.URL},
		"missing endpoint": {APIKey: "granite-key"},
		"missing both":     {},
	} {
		b := NewGenerationBackend(cfg, nil)
		if b.Enabled() {
			t.Errorf("%s: expected disabled backend", name)
		}
		text, err := b.Generate(context.Background(), "prompt", 0)
		if err != nil || text != "" {
			t.Errorf("%s: Generate = (%q, %v); want (\"\", nil)", name, text, err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("expected 0 HTTP calls, got %d", calls.Load())
	}
}

func TestGenerationBackend_Generate_SendsPromptAndBearer(t *testing.T) {
	t.Parallel()

	var got generationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Authorization") != "Bearer granite-key" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if r.Header.Get("Content-Type") != mimeJSON {
			http.Error(w, "bad content type", http.StatusUnsupportedMediaType)
			return
		}
		json.NewDecoder(r.Body).Decode(&got) //nolint:errcheck
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"text":"  save 20%  "}]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	b := NewGenerationBackend(GenerationConfig{URL: srv.URL, APIKey: "granite-key"}, nil)
	text, err := b.Generate(context.Background(), "how much?", 0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if text != "  save 20%  " {
		t.Errorf("expected raw choice text, got %q", text)
	}
	if got.Prompt != "how much?" || got.MaxTokens != DefaultMaxTokens {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestGenerationBackend_Generate_ErrorStatus_ReturnsEmpty(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusBadGateway} {
		srv, _ := newGenerationServer(t, status, `{"text":"should be ignored"}`)
		b := NewGenerationBackend(GenerationConfig{URL: srv.URL, APIKey: "granite-key"}, nil)

		text, err := b.Generate(context.Background(), "q", 0)
		if err == nil {
			t.Errorf("status %d: expected error, got nil", status)
		}
		if text != "" {
			t.Errorf("status %d: expected empty text, got %q", status, text)
		}
	}
}

func TestGenerationBackend_Generate_ServerDown_ReturnsEmpty(t *testing.T) {
	t.Parallel()

	srv, _ := newGenerationServer(t, http.StatusOK, `{"text":"A"}`)
	srv.Close()

	b := NewGenerationBackend(GenerationConfig{URL: srv.URL, APIKey: "granite-key"}, nil)
	text, err := b.Generate(context.Background(), "q", 0)
	if err == nil {
		t.Error("expected error when server is down, got nil")
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestGenerationBackend_DefaultTimeout(t *testing.T) {
	t.Parallel()

	b := NewGenerationBackend(GenerationConfig{URL: "http://example.invalid", APIKey: "k"}, nil)
	if b.client.Timeout != DefaultGenerationTimeout {
		t.Errorf("client timeout = %v; want %v", b.client.Timeout, DefaultGenerationTimeout)
	}
}

func TestGenerationBackend_InjectedClient_KeepsTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"late"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	b := NewGenerationBackend(GenerationConfig{URL: srv.URL, APIKey: "granite-key", Timeout: 100 * time.Millisecond}, &http.Client{})

	start := time.Now()
	text, err := b.Generate(context.Background(), "q", 0)
	elapsed := time.Since(start)

	if err == nil {
		t.Error("expected a timeout error, got nil")
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("Generate took %v; want it bounded by the 100ms timeout", elapsed)
	}
}
