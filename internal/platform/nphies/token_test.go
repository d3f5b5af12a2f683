package nphies

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTokenEndpoint(t *testing.T, calls *int32, expiresIn int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", got)
		}
		if got := r.Form.Get("scope"); got != Scope {
			t.Errorf("scope = %q, want %q", got, Scope)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-123",
			"token_type":   "Bearer",
			"expires_in":   expiresIn,
		})
	}))
}

func TestCachedTokenSource_SingleAuthCallWhileValid(t *testing.T) {
	var calls int32
	srv := newTokenEndpoint(t, &calls, 3600)
	defer srv.Close()

	src := NewCachedTokenSource(&Authenticator{
		TokenURL:     srv.URL,
		ClientID:     "provider-1",
		ClientSecret: "secret",
	})

	ctx := context.Background()
	tok, err := src.Token(ctx)
	if err != nil {
		t.Fatalf("first Token: %v", err)
	}
	if tok != "tok-123" {
		t.Errorf("unexpected token %q", tok)
	}
	if calls != 1 {
		t.Fatalf("expected exactly 1 auth call, got %d", calls)
	}

	if _, err := src.Token(ctx); err != nil {
		t.Fatalf("second Token: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected cached token to be reused, got %d auth calls", calls)
	}
}

func TestCachedTokenSource_RefreshesAfterExpiry(t *testing.T) {
	var calls int32
	srv := newTokenEndpoint(t, &calls, 3600)
	defer srv.Close()

	src := NewCachedTokenSource(&Authenticator{
		TokenURL:     srv.URL,
		ClientID:     "provider-1",
		ClientSecret: "secret",
	})

	ctx := context.Background()
	if _, err := src.Token(ctx); err != nil {
		t.Fatal(err)
	}

	// Simulate time passing beyond the cached expiry.
	src.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, err := src.Token(ctx); err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("expected exactly one extra auth call after expiry, got %d total", calls)
	}
}

func TestCachedTokenSource_Invalidate(t *testing.T) {
	var calls int32
	srv := newTokenEndpoint(t, &calls, 3600)
	defer srv.Close()

	src := NewCachedTokenSource(&Authenticator{
		TokenURL:     srv.URL,
		ClientID:     "provider-1",
		ClientSecret: "secret",
	})

	ctx := context.Background()
	src.Token(ctx)
	src.Invalidate(ctx)
	src.Token(ctx)
	if calls != 2 {
		t.Errorf("expected re-authentication after Invalidate, got %d calls", calls)
	}
}

func TestAuthenticate_ExpirySetToNinetyPercentOfLifetime(t *testing.T) {
	var calls int32
	srv := newTokenEndpoint(t, &calls, 1000)
	defer srv.Close()

	auth := &Authenticator{TokenURL: srv.URL, ClientID: "id", ClientSecret: "secret"}
	before := time.Now()
	tok, err := auth.Authenticate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	ttl := tok.Expiry.Sub(before)
	if ttl < 890*time.Second || ttl > 910*time.Second {
		t.Errorf("expected ~900s lifetime (90%% of 1000s), got %v", ttl)
	}
}

func TestAuthenticate_MissingCredentialsFailCleanly(t *testing.T) {
	auth := &Authenticator{TokenURL: "http://localhost:0"}
	_, err := auth.Authenticate(context.Background())
	ge, ok := AsGatewayError(err)
	if !ok {
		t.Fatalf("expected *GatewayError, got %v", err)
	}
	if ge.Kind != KindUpstreamAuth {
		t.Errorf("expected KindUpstreamAuth, got %v", ge.Kind)
	}
}

func TestAuthenticate_NonSuccessIsAuthErrorAndNotCached(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	src := NewCachedTokenSource(&Authenticator{
		TokenURL:     srv.URL,
		ClientID:     "provider-1",
		ClientSecret: "wrong",
	})

	ctx := context.Background()
	if _, err := src.Token(ctx); err == nil {
		t.Fatal("expected authentication error")
	}
	// A failed grant must not be cached: the next call tries again.
	if _, err := src.Token(ctx); err == nil {
		t.Fatal("expected authentication error on second call")
	}
	if calls != 2 {
		t.Errorf("expected 2 auth attempts, got %d", calls)
	}
}
