// Package llm defines the answer backends and the fallback orchestrator that
// picks between them. All types here are shared between the adapters and the
// orchestrator.
package llm

// Source identifies which backend produced a Response.
type Source string

const (
	SourceSession    Source = "session"
	SourceHTTP       Source = "http"
	SourceExtractive Source = "extractive"
	SourceFallback   Source = "fallback"
)

// FallbackText is returned when every backend is disabled, failed or came back empty.
const FallbackText = "Sorry, I couldn't generate an answer right now. Try rephrasing."

// DefaultContext is the passage the extractive backend reads when the caller
// supplies no context of its own.
const DefaultContext = "Savings are funds set aside; investments like mutual funds, ETFs, SIPs; " +
	"tax-saving strategies include HRA, 80C investments, etc."

// DefaultMaxTokens is the generation budget sent to the HTTP backend.
const DefaultMaxTokens = 256

// Query is the input for a single Ask call.
type Query struct {
	Text string
	// Context is optional background (e.g. the user's profile). Empty means not supplied.
	Context string
}

// Response is the output of a single Ask call. Text is never empty.
type Response struct {
	Source Source `json:"source"`
	Text   string `json:"text"`
}

// BackendStatus reports which backends an orchestrator can use.
type BackendStatus struct {
	Session    bool `json:"session"`
	HTTP       bool `json:"http"`
	Extractive bool `json:"extractive"`
}
