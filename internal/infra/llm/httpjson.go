package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"
	headerAuth        = "Authorization"

	// maxErrorBody caps how much of a failed response body ends up in an error message.
	maxErrorBody = 512
)

// StatusError is returned by postJSON when the backend answers with a non-2xx status.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("post %s: status %d: %s", e.URL, e.Status, e.Body)
}

// newHTTPClient returns a client with the given timeout, or base when base is non-nil.
func newHTTPClient(base *http.Client, timeout time.Duration) *http.Client {
	if base != nil {
		return base
	}
	return &http.Client{Timeout: timeout}
}

// postJSON marshals payload, POSTs it to url and returns the raw response body.
// Non-2xx answers are reported as *StatusError.
func postJSON(ctx context.Context, client *http.Client, url string, header http.Header, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("post %s: marshal request: %w", url, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("post %s: build request: %w", url, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set(headerContentType, mimeJSON)
	req.Header.Set("Accept", mimeJSON)
	return do(client, req)
}

// do executes req and returns the body of a 2xx response.
func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", req.Method, req.URL.Redacted(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return nil, &StatusError{URL: req.URL.Redacted(), Status: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

func bearer(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set(headerAuth, "Bearer "+token)
	}
	return h
}
