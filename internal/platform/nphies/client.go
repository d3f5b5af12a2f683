package nphies

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sahl-health/nphies-gateway/internal/platform/metrics"
	"github.com/sahl-health/nphies-gateway/internal/platform/retry"
)

// DefaultRetryPolicy preserves the observed asymmetry: reads and the
// claim-submission flow are retried on transient failures, pre-auth and
// status lookups make a single attempt. Expressed as a table so the policy
// can be changed without touching call sites.
var DefaultRetryPolicy = map[string]bool{
	OpEligibilityCheck: true,
	OpClaimSubmit:      true,
	OpPreAuthSubmit:    false,
	OpClaimStatus:      false,
}

// Client executes authenticated JSON calls against the exchange and
// normalizes every outcome. It holds the only piece of shared mutable state
// in the gateway (the token source) and is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	tokens   TokenSource
	logger   zerolog.Logger
	retryCfg retry.Config
	policy   map[string]bool
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the outbound HTTP client (tests, custom timeouts).
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithRetryConfig overrides the backoff configuration for retried operations.
func WithRetryConfig(cfg retry.Config) ClientOption {
	return func(c *Client) { c.retryCfg = cfg }
}

// WithRetryPolicy overrides the per-operation retry table.
func WithRetryPolicy(policy map[string]bool) ClientOption {
	return func(c *Client) { c.policy = policy }
}

// NewClient builds an exchange client. Every outbound call carries a 30s
// timeout unless a custom HTTP client is supplied.
func NewClient(baseURL string, tokens TokenSource, logger zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		tokens:   tokens,
		logger:   logger,
		retryCfg: retry.DefaultConfig(),
		policy:   DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// upstreamError is the exchange's rejection body. Codes are open strings
// passed through verbatim.
type upstreamError struct {
	Code    string `json:"errorCode"`
	Message string `json:"errorMessage"`
}

// Invoke performs one exchange operation: ensure token, call, normalize.
// A 2xx upstream response is decoded into out and wrapped in a success
// envelope. A non-2xx business rejection becomes a failure envelope with
// the upstream code intact and a nil error. Infrastructure failures (own
// authentication, transport after the retry policy is exhausted) return a
// *GatewayError and no envelope.
func (c *Client) Invoke(ctx context.Context, op, method, path string, body, out any) (*Envelope, error) {
	start := time.Now()
	cfg := c.retryCfg
	if !c.policy[op] {
		cfg.MaxAttempts = 1
	}

	var env *Envelope
	attempt := 0
	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.RetryAttempts.WithLabelValues(op).Inc()
			c.logger.Warn().Str("operation", op).Int("attempt", attempt).Msg("retrying exchange call")
		}
		e, err := c.call(ctx, method, path, body, out)
		if err != nil {
			return err
		}
		env = e
		return nil
	})
	metrics.UpstreamDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		ge, ok := AsGatewayError(err)
		if !ok {
			ge = &GatewayError{Kind: KindTransient, Op: op, Message: "exchange unreachable", Err: err}
		} else if ge.Op == "" {
			ge.Op = op
		}
		outcome := "transient_error"
		if ge.Kind == KindUpstreamAuth {
			outcome = "auth_error"
		}
		metrics.UpstreamRequests.WithLabelValues(op, outcome).Inc()
		c.logger.Error().Err(ge).Str("operation", op).Int("attempts", attempt).Msg("exchange call failed")
		return nil, ge
	}

	outcome := "success"
	if !env.Success {
		outcome = "business_error"
		c.logger.Info().Str("operation", op).Str("code", env.Code).Msg("exchange rejected operation")
	}
	metrics.UpstreamRequests.WithLabelValues(op, outcome).Inc()
	return env, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) (*Envelope, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &GatewayError{Kind: KindTransient, Message: "encode request body", Err: err}
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, &GatewayError{Kind: KindTransient, Message: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Returned raw so the retry predicate can inspect the transport
		// failure message.
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return nil, &GatewayError{Kind: KindTransient, Message: "decode exchange response", Err: err}
			}
		}
		return successEnvelope(out), nil

	case resp.StatusCode == http.StatusUnauthorized:
		// The cached exchange token was rejected; evict it so the next
		// request authenticates fresh.
		_ = c.tokens.Invalidate(ctx)
		return nil, &GatewayError{
			Kind:    KindUpstreamAuth,
			Message: "exchange rejected access token",
		}

	default:
		var ue upstreamError
		_ = json.Unmarshal(data, &ue)
		if ue.Code == "" {
			ue.Code = fmt.Sprintf("NPHIES_HTTP_%d", resp.StatusCode)
		}
		if ue.Message == "" {
			ue.Message = fmt.Sprintf("exchange returned status %d", resp.StatusCode)
		}
		return failureEnvelope(ue.Code, ue.Message), nil
	}
}
