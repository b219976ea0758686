package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultIAMURL is the IBM Cloud IAM token endpoint.
const DefaultIAMURL = "https://iam.cloud.ibm.com/identity/token"

const (
	iamGrantType = "urn:ibm:params:oauth:grant-type:apikey"
	// tokenRefreshWindow renews a cached token this long before it expires.
	tokenRefreshWindow = 60 * time.Second
	defaultTokenTTL    = time.Hour
)

var errEmptyAccessToken = errors.New("iam: empty access_token in response")

type iamTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// iamTokenSource exchanges an API key for a bearer token and caches it until
// shortly before it expires.
type iamTokenSource struct {
	apiKey string
	url    string
	client *http.Client
	now    func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newIAMTokenSource(apiKey, tokenURL string, client *http.Client) *iamTokenSource {
	if tokenURL == "" {
		tokenURL = DefaultIAMURL
	}
	return &iamTokenSource{apiKey: apiKey, url: tokenURL, client: client, now: time.Now}
}

// Token returns a valid bearer token, fetching a new one when the cached token
// is missing or about to expire.
func (s *iamTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Add(tokenRefreshWindow).Before(s.expiry) {
		return s.token, nil
	}

	tok, expiry, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}
	s.token, s.expiry = tok, expiry
	return tok, nil
}

func (s *iamTokenSource) fetch(ctx context.Context) (string, time.Time, error) {
	form := url.Values{}
	form.Set("grant_type", iamGrantType)
	form.Set("apikey", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("iam: build request: %w", err)
	}
	req.Header.Set(headerContentType, "application/x-www-form-urlencoded")
	req.Header.Set("Accept", mimeJSON)

	raw, err := do(s.client, req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("iam: %w", err)
	}

	var resp iamTokenResponse
	if decodeErr := json.Unmarshal(raw, &resp); decodeErr != nil {
		return "", time.Time{}, fmt.Errorf("iam: decode token response: %w", decodeErr)
	}
	if resp.AccessToken == "" {
		return "", time.Time{}, errEmptyAccessToken
	}
	return resp.AccessToken, s.expiryOf(resp), nil
}

// expiryOf prefers the exp claim of the access token (IAM issues JWTs) and
// falls back to expires_in when the token cannot be decoded.
func (s *iamTokenSource) expiryOf(resp iamTokenResponse) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(resp.AccessToken, claims); err == nil {
		if exp, expErr := claims.GetExpirationTime(); expErr == nil && exp != nil {
			return exp.Time
		}
	}
	ttl := time.Duration(resp.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return s.now().Add(ttl)
}
