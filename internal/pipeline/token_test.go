package pipeline

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/gmarkoss/tessera/internal/core"
)

func authorize(t *testing.T, f *fixture, params url.Values) *Response {
	t.Helper()
	result := f.engine.Authorize(context.Background(), &RawRequest{Method: "GET", Params: params})
	if result.Response == nil {
		t.Fatal("authorization produced no response")
	}
	return result.Response
}

func ownerHooks(subject string) Options {
	return Options{
		Authorization: Hooks{
			OnHandle: func(c *Context) Disposition {
				ticket := core.NewTicket("Bearer")
				if err := ticket.Identity().AddClaim("sub", subject); err != nil {
					return RejectError(core.ServerError())
				}
				if err := ticket.Identity().AddClaimWithDestinations("email", subject+"@example.com", core.KindIdentityToken); err != nil {
					return RejectError(core.ServerError())
				}
				if err := ticket.SetAudiences("AdventureWorks"); err != nil {
					return RejectError(core.ServerError())
				}
				c.Ticket = ticket
				return Continue()
			},
		},
	}
}

func TestAuthorize_IssuesCode(t *testing.T) {
	f := newFixture(t, ownerHooks("alice"))

	response := authorize(t, f, url.Values{
		"response_type": {"code"},
		"client_id":     {"WebApp"},
		"redirect_uri":  {"https://webapp.example.com/cb"},
		"scope":         {"openid profile"},
		"state":         {"af0ifjsldkj"},
	})

	if response.GetString("code") == "" {
		t.Fatalf("no code in response: %v", response)
	}
	mustParams(t, response, map[string]any{"state": "af0ifjsldkj"})
}

func TestAuthorize_Validation(t *testing.T) {
	f := newFixture(t, ownerHooks("alice"))

	tests := []struct {
		name      string
		params    url.Values
		wantError string
	}{
		{
			name:      "missing response_type",
			params:    url.Values{"client_id": {"WebApp"}, "redirect_uri": {"https://webapp.example.com/cb"}},
			wantError: core.ErrorInvalidRequest,
		},
		{
			name: "unsupported response_type",
			params: url.Values{
				"response_type": {"token"},
				"client_id":     {"WebApp"},
				"redirect_uri":  {"https://webapp.example.com/cb"},
			},
			wantError: core.ErrorUnsupportedResponseType,
		},
		{
			name:      "missing client_id",
			params:    url.Values{"response_type": {"code"}, "redirect_uri": {"https://webapp.example.com/cb"}},
			wantError: core.ErrorInvalidRequest,
		},
		{
			name:      "missing redirect_uri",
			params:    url.Values{"response_type": {"code"}, "client_id": {"WebApp"}},
			wantError: core.ErrorInvalidRequest,
		},
		{
			name: "unregistered redirect_uri",
			params: url.Values{
				"response_type": {"code"},
				"client_id":     {"WebApp"},
				"redirect_uri":  {"https://evil.example.com/cb"},
			},
			wantError: core.ErrorInvalidRequest,
		},
		{
			name: "unknown client",
			params: url.Values{
				"response_type": {"code"},
				"client_id":     {"Nobody"},
				"redirect_uri":  {"https://webapp.example.com/cb"},
			},
			wantError: core.ErrorInvalidClient,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := authorize(t, f, tt.params)
			mustParams(t, response, map[string]any{"error": tt.wantError})
		})
	}
}

func TestAuthorize_NoTicketIsServerError(t *testing.T) {
	f := newFixture(t, Options{})

	response := authorize(t, f, url.Values{
		"response_type": {"code"},
		"client_id":     {"WebApp"},
		"redirect_uri":  {"https://webapp.example.com/cb"},
	})
	mustParams(t, response, map[string]any{
		"error":             core.ErrorServerError,
		"error_description": "An internal server error occurred.",
	})
}

func TestToken_MethodPolicy(t *testing.T) {
	f := newFixture(t, Options{})

	result := f.engine.Token(context.Background(), &RawRequest{Method: "GET", Params: url.Values{}})
	mustParams(t, result.Response, map[string]any{
		"error":             core.ErrorInvalidRequest,
		"error_description": "A malformed token request has been received: make sure to use POST.",
	})
}

func TestToken_Validation(t *testing.T) {
	f := newFixture(t, Options{})

	tests := []struct {
		name      string
		params    url.Values
		wantError string
	}{
		{name: "missing grant_type", params: url.Values{}, wantError: core.ErrorInvalidRequest},
		{
			name:      "unsupported grant_type",
			params:    url.Values{"grant_type": {"password"}},
			wantError: core.ErrorUnsupportedGrantType,
		},
		{
			name:      "code grant without code",
			params:    url.Values{"grant_type": {"authorization_code"}, "client_id": {"WebApp"}},
			wantError: core.ErrorInvalidRequest,
		},
		{
			name:      "code grant without client_id",
			params:    url.Values{"grant_type": {"authorization_code"}, "code": {"x"}},
			wantError: core.ErrorInvalidRequest,
		},
		{
			name:      "refresh grant without refresh_token",
			params:    url.Values{"grant_type": {"refresh_token"}},
			wantError: core.ErrorInvalidRequest,
		},
		{
			name:      "garbage code",
			params:    url.Values{"grant_type": {"authorization_code"}, "code": {"garbage"}, "client_id": {"Fabrikam"}},
			wantError: core.ErrorInvalidGrant,
		},
		{
			name:      "garbage refresh token",
			params:    url.Values{"grant_type": {"refresh_token"}, "refresh_token": {"garbage"}},
			wantError: core.ErrorInvalidGrant,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := f.engine.Token(context.Background(), post(tt.params))
			mustParams(t, result.Response, map[string]any{"error": tt.wantError})
		})
	}
}

func TestToken_AuthorizationCodeExchange(t *testing.T) {
	f := newFixture(t, ownerHooks("alice"))

	code := authorize(t, f, url.Values{
		"response_type": {"code"},
		"client_id":     {"WebApp"},
		"redirect_uri":  {"https://webapp.example.com/cb"},
		"scope":         {"openid profile"},
	}).GetString("code")
	if code == "" {
		t.Fatal("authorization issued no code")
	}

	exchange := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {"WebApp"},
		"client_secret": {"webapp-secret"},
		"redirect_uri":  {"https://webapp.example.com/cb"},
	}
	result := f.engine.Token(context.Background(), post(exchange))
	response := result.Response

	access := response.GetString("access_token")
	if access == "" {
		t.Fatalf("no access token in response: %v", response)
	}
	if response.GetString("refresh_token") == "" {
		t.Error("no refresh token in response")
	}
	if response.GetString("id_token") == "" {
		t.Error("no identity token despite the openid scope")
	}
	mustParams(t, response, map[string]any{"token_type": core.TokenTypeBearer})
	if scope := response.GetString("scope"); !strings.Contains(scope, "openid") {
		t.Errorf("scope = %q, want it to carry openid", scope)
	}

	t.Run("identity token carries only its destined claims", func(t *testing.T) {
		ticket, err := f.tokens.Unprotect(context.Background(), response.GetString("id_token"), core.KindIdentityToken)
		if err != nil {
			t.Fatalf("Unprotect(id_token): %v", err)
		}
		if got := ticket.GetClaim("email"); got != "alice@example.com" {
			t.Errorf("email claim = %q, want it serialized into the identity token", got)
		}
	})

	t.Run("access token excludes claims destined elsewhere", func(t *testing.T) {
		ticket, err := f.tokens.Unprotect(context.Background(), access, core.KindAccessToken)
		if err != nil {
			t.Fatalf("Unprotect(access_token): %v", err)
		}
		if got := ticket.GetClaim("email"); got != "" {
			t.Errorf("email claim leaked into the access token: %q", got)
		}
	})

	t.Run("codes are single use", func(t *testing.T) {
		replay := f.engine.Token(context.Background(), post(exchange))
		mustParams(t, replay.Response, map[string]any{"error": core.ErrorInvalidGrant})
	})
}

func TestToken_CodeBoundToClient(t *testing.T) {
	f := newFixture(t, ownerHooks("alice"))

	code := authorize(t, f, url.Values{
		"response_type": {"code"},
		"client_id":     {"Contoso"},
		"redirect_uri":  {"https://contoso.example.com/cb"},
	}).GetString("code")
	if code == "" {
		t.Fatal("authorization issued no code")
	}

	result := f.engine.Token(context.Background(), post(url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"client_id":    {"Fabrikam"},
		"redirect_uri": {"https://contoso.example.com/cb"},
	}))
	mustParams(t, result.Response, map[string]any{"error": core.ErrorInvalidGrant})
}

func TestToken_RedirectURIMustMatch(t *testing.T) {
	f := newFixture(t, ownerHooks("alice"))

	code := authorize(t, f, url.Values{
		"response_type": {"code"},
		"client_id":     {"Contoso"},
		"redirect_uri":  {"https://contoso.example.com/cb"},
	}).GetString("code")

	result := f.engine.Token(context.Background(), post(url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"client_id":    {"Contoso"},
		"redirect_uri": {"https://other.example.com/cb"},
	}))
	mustParams(t, result.Response, map[string]any{"error": core.ErrorInvalidGrant})
}

func TestToken_RefreshGrant(t *testing.T) {
	f := newFixture(t, ownerHooks("alice"))

	code := authorize(t, f, url.Values{
		"response_type": {"code"},
		"client_id":     {"Contoso"},
		"redirect_uri":  {"https://contoso.example.com/cb"},
		"scope":         {"profile"},
	}).GetString("code")

	issued := f.engine.Token(context.Background(), post(url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"client_id":    {"Contoso"},
		"redirect_uri": {"https://contoso.example.com/cb"},
	}))
	refresh := issued.Response.GetString("refresh_token")
	if refresh == "" {
		t.Fatal("code exchange issued no refresh token")
	}

	t.Run("presenter can refresh", func(t *testing.T) {
		result := f.engine.Token(context.Background(), post(url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {refresh},
			"client_id":     {"Contoso"},
		}))
		if result.Response.GetString("access_token") == "" {
			t.Fatalf("refresh produced no access token: %v", result.Response)
		}
	})

	t.Run("foreign client cannot refresh", func(t *testing.T) {
		result := f.engine.Token(context.Background(), post(url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {refresh},
			"client_id":     {"Fabrikam"},
		}))
		mustParams(t, result.Response, map[string]any{"error": core.ErrorInvalidGrant})
	})

	t.Run("revoked refresh token is rejected", func(t *testing.T) {
		f.engine.Revoke(context.Background(), post(url.Values{
			"token":     {refresh},
			"client_id": {"Contoso"},
		}))
		result := f.engine.Token(context.Background(), post(url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {refresh},
			"client_id":     {"Contoso"},
		}))
		mustParams(t, result.Response, map[string]any{"error": core.ErrorInvalidGrant})
	})
}
