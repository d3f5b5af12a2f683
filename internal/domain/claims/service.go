package claims

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sahl-health/nphies-gateway/internal/platform/nphies"
)

// Service submits claims and looks up their status on the exchange.
// Input is assumed already validated.
type Service struct {
	nph *nphies.Client
}

func NewService(nph *nphies.Client) *Service {
	return &Service{nph: nph}
}

// Submit forwards a claim. Submission is retried on transient failure;
// the exchange deduplicates resubmitted claims on its side.
func (s *Service) Submit(ctx context.Context, req Request) (*nphies.Envelope, error) {
	var out Result
	return s.nph.Invoke(ctx, nphies.OpClaimSubmit, http.MethodPost, "/claims/v1/submit", req, &out)
}

// Status fetches the current state of a previously submitted claim.
// A single attempt is made; status reads are cheap for the caller to
// repeat and stale answers are worse than fast failures.
func (s *Service) Status(ctx context.Context, claimID string) (*nphies.Envelope, error) {
	var out Result
	path := "/claims/v1/" + url.PathEscape(claimID) + "/status"
	return s.nph.Invoke(ctx, nphies.OpClaimStatus, http.MethodGet, path, nil, &out)
}
