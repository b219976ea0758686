package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultExtractiveTimeout bounds each extractive inference call.
const DefaultExtractiveTimeout = 10 * time.Second

const (
	warmupQuestion = "What is set aside?"
	warmupContext  = "Savings are funds set aside."
)

// Answer is the best span an extractive reader found in a passage.
type Answer struct {
	Text  string  `json:"answer"`
	Score float64 `json:"score"`
}

// Reader extracts an answer span for question from passage.
type Reader interface {
	Name() string
	Read(ctx context.Context, question, passage string) (Answer, error)
}

// ExtractiveConfig selects and configures the extractive reader.
type ExtractiveConfig struct {
	// Endpoint of a question-answering inference service. Empty = offline LexicalReader.
	Endpoint string
	// Token authenticates against the inference service (optional).
	Token   string
	Timeout time.Duration
}

// ExtractiveBackend answers questions from a context passage with a Reader
// loaded once at start-up. An unavailable backend stays unavailable.
type ExtractiveBackend struct {
	reader  Reader
	timeout time.Duration
}

// NewExtractiveBackend wraps an already-loaded reader. A nil reader yields an
// unavailable backend.
func NewExtractiveBackend(r Reader, timeout time.Duration) *ExtractiveBackend {
	if timeout <= 0 {
		timeout = DefaultExtractiveTimeout
	}
	return &ExtractiveBackend{reader: r, timeout: timeout}
}

// LoadExtractiveBackend picks the reader from cfg and loads it. For the
// inference reader, loading is a warm-up request; if it fails the returned
// backend is unavailable for good.
func LoadExtractiveBackend(ctx context.Context, cfg ExtractiveConfig, client *http.Client, logger *zap.Logger) *ExtractiveBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Endpoint == "" {
		return NewExtractiveBackend(LexicalReader{}, cfg.Timeout)
	}

	b := NewExtractiveBackend(nil, cfg.Timeout)
	r := NewInferenceReader(cfg.Endpoint, cfg.Token, newHTTPClient(client, b.timeout))

	loadCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if _, err := r.Read(loadCtx, warmupQuestion, warmupContext); err != nil {
		logger.Warn("extractive reader failed to load; backend disabled",
			zap.String("backend", string(SourceExtractive)),
			zap.String("endpoint", cfg.Endpoint),
			zap.Error(err))
		return b
	}
	b.reader = r
	return b
}

// Available reports whether a reader was loaded.
func (b *ExtractiveBackend) Available() bool { return b != nil && b.reader != nil }

// ReaderName returns the loaded reader's name, or "" when unavailable.
func (b *ExtractiveBackend) ReaderName() string {
	if !b.Available() {
		return ""
	}
	return b.reader.Name()
}

// Answer runs the reader under the backend timeout. Unavailable backends return "".
func (b *ExtractiveBackend) Answer(ctx context.Context, question, passage string) (string, error) {
	if !b.Available() {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	ans, err := b.reader.Read(ctx, question, passage)
	if err != nil {
		return "", fmt.Errorf("extract answer (%s): %w", b.reader.Name(), err)
	}
	return ans.Text, nil
}

// InferenceReader calls a hosted question-answering model using the Hugging
// Face inference task shape.
type InferenceReader struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewInferenceReader builds a reader for endpoint. token may be empty.
func NewInferenceReader(endpoint, token string, client *http.Client) *InferenceReader {
	if client == nil {
		client = &http.Client{Timeout: DefaultExtractiveTimeout}
	}
	return &InferenceReader{endpoint: endpoint, token: token, client: client}
}

// Name identifies the reader in logs.
func (r *InferenceReader) Name() string { return "inference" }

type inferenceInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type inferenceRequest struct {
	Inputs inferenceInputs `json:"inputs"`
}

var (
	errNoInferenceAnswer = errors.New("inference: response has no answer")
	errInferenceFailed   = errors.New("inference: service reported an error")
)

// inferenceResult is one element of the service's reply. The service answers
// some failures (model loading, rate limits) with 200 and an "error" field.
type inferenceResult struct {
	Answer *string `json:"answer"`
	Score  float64 `json:"score"`
	Error  string  `json:"error"`
}

// Read posts the question and passage and returns the highest-scoring answer.
// The service may answer with a single object or a ranked list.
func (r *InferenceReader) Read(ctx context.Context, question, passage string) (Answer, error) {
	raw, err := postJSON(ctx, r.client, r.endpoint, bearer(r.token), inferenceRequest{
		Inputs: inferenceInputs{Question: question, Context: passage},
	})
	if err != nil {
		return Answer{}, err
	}
	return decodeInferenceAnswer(raw)
}

func decodeInferenceAnswer(raw []byte) (Answer, error) {
	var single inferenceResult
	if err := json.Unmarshal(raw, &single); err == nil {
		return single.answer()
	}
	var ranked []inferenceResult
	if err := json.Unmarshal(raw, &ranked); err != nil {
		return Answer{}, fmt.Errorf("inference: decode response: %w", err)
	}

	var (
		best  Answer
		found bool
	)
	for _, res := range ranked {
		a, err := res.answer()
		if err != nil {
			continue
		}
		if !found || a.Score > best.Score {
			best, found = a, true
		}
	}
	if !found {
		return Answer{}, errNoInferenceAnswer
	}
	return best, nil
}

func (r inferenceResult) answer() (Answer, error) {
	if r.Error != "" {
		return Answer{}, fmt.Errorf("%w: %s", errInferenceFailed, r.Error)
	}
	if r.Answer == nil {
		return Answer{}, errNoInferenceAnswer
	}
	return Answer{Text: *r.Answer, Score: r.Score}, nil
}
