// Package nphies implements the authenticated protocol layer for Saudi
// Arabia's national health information exchange. It owns the bearer-token
// lifecycle (in-process and Redis-backed caches), the per-operation retry
// policy, and the normalization of every upstream outcome into a single
// response envelope so callers never branch on transport failures.
package nphies

import (
	"errors"
	"fmt"
	"time"
)

// Operation names; keys of the retry policy table and metric labels.
const (
	OpEligibilityCheck = "eligibility.check"
	OpClaimSubmit      = "claim.submit"
	OpPreAuthSubmit    = "preauth.submit"
	OpClaimStatus      = "claim.status"
)

// Envelope is the one shape every exchange operation returns, success or
// failure. Code carries the upstream error code verbatim on business
// rejections; it is an open string, never a closed enum, so unrecognized
// upstream codes round-trip without loss.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
	Timestamp string `json:"timestamp"`
}

func successEnvelope(data any) *Envelope {
	return &Envelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func failureEnvelope(code, message string) *Envelope {
	return &Envelope{
		Success:   false,
		Error:     message,
		Code:      code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ErrorKind classifies gateway-side failures that are not upstream business
// rejections (those travel in the Envelope instead).
type ErrorKind int

const (
	// KindUpstreamAuth: the gateway's own client-credential exchange with
	// NPHIES failed. Never the caller's fault.
	KindUpstreamAuth ErrorKind = iota + 1
	// KindTransient: connection refusal, timeout, or DNS failure that
	// survived the retry policy.
	KindTransient
)

// GatewayError is the only error type exchange operations return. The HTTP
// surface maps Kind to a status code and a generic message; Message is for
// server-side logs.
type GatewayError struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// AsGatewayError unwraps err into a *GatewayError when possible.
func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
