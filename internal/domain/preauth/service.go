package preauth

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/sahl-health/nphies-gateway/internal/platform/nphies"
)

// Service submits pre-authorization requests. Submission makes a single
// attempt: an authorization carries approval side effects upstream, so the
// gateway never resends one automatically.
type Service struct {
	nph *nphies.Client
	// newID is swappable for tests.
	newID func() string
}

func NewService(nph *nphies.Client) *Service {
	return &Service{nph: nph, newID: uuid.NewString}
}

// Submit forwards a pre-authorization request tagged with a fresh
// idempotency key.
func (s *Service) Submit(ctx context.Context, req Request) (*nphies.Envelope, error) {
	body := submission{Request: req, RequestID: s.newID()}
	var out Result
	return s.nph.Invoke(ctx, nphies.OpPreAuthSubmit, http.MethodPost, "/preauth/v1/request", body, &out)
}
