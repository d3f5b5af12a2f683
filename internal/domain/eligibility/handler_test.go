package eligibility

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sahl-health/nphies-gateway/internal/platform/nphies"
	"github.com/sahl-health/nphies-gateway/internal/platform/retry"
)

type staticTokens struct{}

func (staticTokens) Token(context.Context) (string, error) { return "test-token", nil }
func (staticTokens) Invalidate(context.Context) error      { return nil }

func newHandler(t *testing.T, upstream http.HandlerFunc) (*Handler, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	client := nphies.NewClient(srv.URL, staticTokens{}, zerolog.Nop(),
		nphies.WithRetryConfig(retry.Config{
			MaxAttempts: 3,
			ShouldRetry: retry.DefaultShouldRetry,
			Sleep:       func(context.Context, time.Duration) error { return nil },
		}),
	)
	return NewHandler(NewService(client), zerolog.Nop()), srv
}

func validBody() string {
	return `{"patientId":"1234567890","insuranceId":"ABC123456","providerId":"1234567","serviceDate":"2024-01-15"}`
}

func perform(h *Handler, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/nphies/eligibility", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = h.Check(c)
	return rec
}

func TestCheckReturnsCoverageEnvelope(t *testing.T) {
	h, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/eligibility/v1/check" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var got Request
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if got.PatientID != "1234567890" {
			t.Errorf("patientId forwarded = %q", got.PatientID)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"eligible":true,"policyNumber":"POL-778","payerName":"Bupa Arabia","coverageDetails":[{"serviceCategory":"outpatient","covered":true,"copayPercent":20}]}`))
	})

	rec := perform(h, validBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var env struct {
		Success bool   `json:"success"`
		Data    Result `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !env.Success {
		t.Error("success = false, want true")
	}
	if !env.Data.Eligible || env.Data.PolicyNumber != "POL-778" {
		t.Errorf("coverage data = %+v", env.Data)
	}
	if len(env.Data.CoverageDetail) != 1 || env.Data.CoverageDetail[0].ServiceCategory != "outpatient" {
		t.Errorf("coverage details = %+v", env.Data.CoverageDetail)
	}
}

func TestCheckRejectsInvalidInputWithoutCallingUpstream(t *testing.T) {
	called := false
	h, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := perform(h, `{"patientId":"123","insuranceId":"AB","providerId":"12345678","serviceDate":"invalid-date"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if called {
		t.Error("upstream was called for an invalid request")
	}

	var body struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Error != "Validation failed" {
		t.Errorf("error = %q", body.Error)
	}
	if len(body.Details) < 4 {
		t.Errorf("details = %v, want at least 4 entries", body.Details)
	}
}

func TestCheckPassesThroughBusinessRejection(t *testing.T) {
	h, _ := newHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errorCode":"POLICY-INACTIVE-103","errorMessage":"Policy is not active on the service date"}`))
	})

	rec := perform(h, validBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (business rejection travels in the envelope)", rec.Code)
	}
	var env struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Success {
		t.Error("success = true, want false")
	}
	if env.Code != "POLICY-INACTIVE-103" {
		t.Errorf("code = %q, want upstream code verbatim", env.Code)
	}
}

func TestCheckMapsTransientFailureTo503(t *testing.T) {
	h, srv := newHandler(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	rec := perform(h, validBody())
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var env struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Success || env.Code != "SERVICE_UNAVAILABLE" {
		t.Errorf("envelope = %+v", env)
	}
}
