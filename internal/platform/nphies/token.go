package nphies

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sahl-health/nphies-gateway/internal/platform/metrics"
)

// Scope covers the three exchange operations the gateway performs.
const Scope = "eligibility claims preauth"

// Token is a bearer credential for the exchange, valid until Expiry.
// Tokens are idempotent credentials: concurrent refreshes may each produce
// one, and last-writer-wins is safe.
type Token struct {
	Value  string
	Expiry time.Time
}

// TokenSource produces a currently-valid bearer token for the exchange,
// minimizing redundant authentication calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	// Invalidate drops the cached credential so the next call re-authenticates.
	Invalidate(ctx context.Context) error
}

// Authenticator performs the client-credentials grant against the exchange
// token endpoint.
type Authenticator struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	HTTP         *http.Client
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Authenticate requests a fresh token. The returned expiry is set to 90% of
// the advertised lifetime so refresh happens ahead of the hard boundary.
// Missing credentials fail cleanly here rather than crashing at startup.
func (a *Authenticator) Authenticate(ctx context.Context) (Token, error) {
	if a.ClientID == "" || a.ClientSecret == "" {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return Token{}, &GatewayError{
			Kind:    KindUpstreamAuth,
			Op:      "token.refresh",
			Message: "exchange client credentials not configured",
		}
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.ClientID)
	form.Set("client_secret", a.ClientSecret)
	form.Set("scope", Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return Token{}, &GatewayError{Kind: KindUpstreamAuth, Op: "token.refresh", Message: "build token request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpClient := a.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return Token{}, &GatewayError{Kind: KindUpstreamAuth, Op: "token.refresh", Message: "token endpoint unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return Token{}, &GatewayError{
			Kind:    KindUpstreamAuth,
			Op:      "token.refresh",
			Message: fmt.Sprintf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return Token{}, &GatewayError{Kind: KindUpstreamAuth, Op: "token.refresh", Message: "decode token response", Err: err}
	}
	if tr.AccessToken == "" {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return Token{}, &GatewayError{Kind: KindUpstreamAuth, Op: "token.refresh", Message: "token response missing access_token"}
	}

	lifetime := time.Duration(tr.ExpiresIn) * time.Second
	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	return Token{
		Value:  tr.AccessToken,
		Expiry: time.Now().Add(lifetime * 9 / 10),
	}, nil
}

// CachedTokenSource holds one token in process memory, scoped to a
// long-lived gateway instance. The zero value is not usable; construct with
// NewCachedTokenSource.
type CachedTokenSource struct {
	auth *Authenticator
	now  func() time.Time

	mu  sync.Mutex
	tok Token
}

// NewCachedTokenSource wraps auth with an in-process cache.
func NewCachedTokenSource(auth *Authenticator) *CachedTokenSource {
	return &CachedTokenSource{auth: auth, now: time.Now}
}

// Token returns the cached value while it is still valid, otherwise
// authenticates synchronously before returning. Failed authentication
// caches nothing.
func (s *CachedTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tok.Value != "" && s.now().Before(s.tok.Expiry) {
		return s.tok.Value, nil
	}
	tok, err := s.auth.Authenticate(ctx)
	if err != nil {
		return "", err
	}
	s.tok = tok
	return tok.Value, nil
}

// Invalidate drops the cached token.
func (s *CachedTokenSource) Invalidate(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = Token{}
	return nil
}
