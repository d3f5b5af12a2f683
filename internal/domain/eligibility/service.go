package eligibility

import (
	"context"
	"net/http"

	"github.com/sahl-health/nphies-gateway/internal/platform/nphies"
)

// Service performs eligibility checks against the exchange. Input is
// assumed already validated; the service never re-validates.
type Service struct {
	nph *nphies.Client
}

func NewService(nph *nphies.Client) *Service {
	return &Service{nph: nph}
}

// Check forwards an eligibility request. The operation is retried on
// transient failure per the client's policy table.
func (s *Service) Check(ctx context.Context, req Request) (*nphies.Envelope, error) {
	var out Result
	return s.nph.Invoke(ctx, nphies.OpEligibilityCheck, http.MethodPost, "/eligibility/v1/check", req, &out)
}
