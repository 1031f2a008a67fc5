package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func stubServer(t *testing.T, wantPath string, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath {
			t.Errorf("request path = %q, want %q", r.URL.Path, wantPath)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		w.Header().Set("X-Correlation-ID", "corr-1")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestClient_Introspect(t *testing.T) {
	srv := stubServer(t, "/connect/introspect", http.StatusOK, `{"active":true,"sub":"alice"}`)
	defer srv.Close()

	c := New(srv.URL)
	info, correlation, err := c.Introspect(context.Background(), "opaque", "access_token", Credentials{ClientID: "Fabrikam"})
	if err != nil {
		t.Fatalf("Introspect() error = %v", err)
	}
	if !info.Active() {
		t.Error("Active() = false, want true")
	}
	if info["sub"] != "alice" {
		t.Errorf("sub = %v, want alice", info["sub"])
	}
	if correlation != "corr-1" {
		t.Errorf("correlation = %q, want corr-1", correlation)
	}
}

func TestClient_ExchangeProtocolError(t *testing.T) {
	srv := stubServer(t, "/connect/token", http.StatusBadRequest,
		`{"error":"invalid_grant","error_description":"The specified authorization code is invalid."}`)
	defer srv.Close()

	c := New(srv.URL)
	_, _, err := c.Exchange(context.Background(), TokenRequest{
		GrantType:   "authorization_code",
		Code:        "stale",
		Credentials: Credentials{ClientID: "WebApp", Secret: "webapp-secret"},
	})

	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("Exchange() error = %v, want *ProtocolError", err)
	}
	if perr.Code != "invalid_grant" {
		t.Errorf("Code = %q, want invalid_grant", perr.Code)
	}
	if perr.CorrelationID != "corr-1" {
		t.Errorf("CorrelationID = %q, want corr-1", perr.CorrelationID)
	}
}

func TestClient_RevokeIsSilent(t *testing.T) {
	srv := stubServer(t, "/connect/revoke", http.StatusOK, `{}`)
	defer srv.Close()

	c := New(srv.URL)
	correlation, err := c.Revoke(context.Background(), "whatever", "", Credentials{ClientID: "Fabrikam"})
	if err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if correlation != "corr-1" {
		t.Errorf("correlation = %q, want corr-1", correlation)
	}
}

func TestClient_ExchangeParsesGrant(t *testing.T) {
	srv := stubServer(t, "/connect/token", http.StatusOK,
		`{"access_token":"at","token_type":"Bearer","expires_in":3600,"refresh_token":"rt","scope":"openid"}`)
	defer srv.Close()

	c := New(srv.URL)
	grant, _, err := c.Exchange(context.Background(), TokenRequest{
		GrantType:    "refresh_token",
		RefreshToken: "rt-old",
		Credentials:  Credentials{ClientID: "WebApp", Secret: "webapp-secret"},
	})
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if grant.AccessToken != "at" || grant.TokenType != "Bearer" || grant.ExpiresIn != 3600 {
		t.Errorf("unexpected grant: %+v", grant)
	}
}
