package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gmarkoss/tessera/internal/audit"
	"github.com/gmarkoss/tessera/internal/clients"
	"github.com/gmarkoss/tessera/internal/config"
	"github.com/gmarkoss/tessera/internal/core"
	"github.com/gmarkoss/tessera/internal/pipeline"
	"github.com/gmarkoss/tessera/internal/policy"
	"github.com/gmarkoss/tessera/internal/store"
	"github.com/gmarkoss/tessera/internal/tasks"
	"github.com/gmarkoss/tessera/internal/token"
)

var adminKey = []byte("admin-signing-key")

type serverFixture struct {
	handler http.Handler
	tokens  *token.Manager
	store   *store.InMemoryTicketStore
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	codec, err := token.NewJWTCodec([]byte("0123456789abcdef0123456789abcdef"), "https://sts.example.com")
	if err != nil {
		t.Fatalf("NewJWTCodec: %v", err)
	}
	codecs := make(map[core.TokenKind]core.Codec, len(core.Kinds))
	for _, kind := range core.Kinds {
		codecs[kind] = codec
	}
	tokens := token.NewManager(token.Options{
		Issuer: "https://sts.example.com",
		Codecs: codecs,
	})

	validator, err := clients.NewStaticValidator([]clients.Registration{
		{ID: "AdventureWorks"},
		{ID: "WebApp", Secret: "webapp-secret", Confidential: true, RedirectURIs: []string{"https://webapp.example.com/cb"}},
	})
	if err != nil {
		t.Fatalf("NewStaticValidator: %v", err)
	}

	policies, err := policy.NewManager(nil)
	if err != nil {
		t.Fatalf("policy.NewManager: %v", err)
	}

	ticketStore := store.NewInMemoryTicketStore()

	engine := pipeline.NewEngine(pipeline.Options{
		Tokens:  tokens,
		Policy:  policies,
		Clients: validator,
		Store:   ticketStore,
		Auditor: audit.NewInMemoryAuditor(),
		Authorization: pipeline.Hooks{
			OnHandle: func(c *pipeline.Context) pipeline.Disposition {
				ticket := core.NewTicket("Bearer")
				if err := ticket.Identity().AddClaim("sub", "alice"); err != nil {
					return pipeline.RejectError(core.ServerError())
				}
				if err := ticket.SetAudiences("AdventureWorks"); err != nil {
					return pipeline.RejectError(core.ServerError())
				}
				c.Ticket = ticket
				return pipeline.Continue()
			},
		},
	})

	taskManager := tasks.NewManager(time.Second)
	t.Cleanup(taskManager.Stop)

	server := NewServer(engine, config.ServerConfig{
		Addr:          ":0",
		Authorization: "/connect/authorize",
		Token:         "/connect/token",
		Introspection: "/connect/introspect",
		Revocation:    "/connect/revoke",
	}, audit.NewInMemoryAuditor(), ticketStore, taskManager)

	return &serverFixture{
		handler: server.Routes(adminKey),
		tokens:  tokens,
		store:   ticketStore,
	}
}

func (f *serverFixture) postForm(t *testing.T, path string, params url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(params.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, w.Body.String())
	}
	return body
}

func TestServer_Health(t *testing.T) {
	f := newServerFixture(t)

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, HealthCheckRoute, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Fatalf("health body = %q, want OK", w.Body.String())
	}
}

func TestServer_IntrospectActiveToken(t *testing.T) {
	f := newServerFixture(t)

	ticket := core.NewTicket("Bearer")
	if err := ticket.Identity().AddClaim("sub", "alice"); err != nil {
		t.Fatal(err)
	}
	if err := ticket.SetAudiences("AdventureWorks"); err != nil {
		t.Fatal(err)
	}
	opaque, _, err := f.tokens.Mint(context.Background(), ticket, core.KindAccessToken, 0)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	w := f.postForm(t, "/connect/introspect", url.Values{
		"token":     {opaque},
		"client_id": {"AdventureWorks"},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
	if w.Header().Get(audit.CorrelationIDHeader) == "" {
		t.Error("missing correlation id header")
	}

	body := decodeJSON(t, w)
	if body["active"] != true {
		t.Fatalf("active = %v, want true\n%s", body["active"], w.Body.String())
	}
	if body["sub"] != "alice" {
		t.Errorf("sub = %v, want alice", body["sub"])
	}
}

func TestServer_MethodPolicyAnswersProtocolError(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodPut, "/connect/introspect", nil)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400\n%s", w.Code, w.Body.String())
	}
	body := decodeJSON(t, w)
	if body["error"] != core.ErrorInvalidRequest {
		t.Fatalf("error = %v, want %s", body["error"], core.ErrorInvalidRequest)
	}
}

func TestServer_InvalidClientIsUnauthorized(t *testing.T) {
	f := newServerFixture(t)

	w := f.postForm(t, "/connect/token", url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {"whatever"},
		"client_id":     {"WebApp"},
		"client_secret": {"wrong"},
	})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401\n%s", w.Code, w.Body.String())
	}
	body := decodeJSON(t, w)
	if body["error"] != core.ErrorInvalidClient {
		t.Fatalf("error = %v, want %s", body["error"], core.ErrorInvalidClient)
	}
}

func TestServer_AuthorizationCodeFlow(t *testing.T) {
	f := newServerFixture(t)

	target := "/connect/authorize?" + url.Values{
		"response_type": {"code"},
		"client_id":     {"WebApp"},
		"redirect_uri":  {"https://webapp.example.com/cb"},
		"scope":         {"openid"},
		"state":         {"af0ifjsldkj"},
	}.Encode()
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302\n%s", w.Code, w.Body.String())
	}
	location, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad Location header: %v", err)
	}
	if got := location.Host; got != "webapp.example.com" {
		t.Fatalf("redirect host = %q, want webapp.example.com", got)
	}
	code := location.Query().Get("code")
	if code == "" {
		t.Fatal("no code in redirect")
	}
	if got := location.Query().Get("state"); got != "af0ifjsldkj" {
		t.Fatalf("state = %q, want af0ifjsldkj", got)
	}

	// redeem the code over the wire
	tw := f.postForm(t, "/connect/token", url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {"https://webapp.example.com/cb"},
		"client_id":     {"WebApp"},
		"client_secret": {"webapp-secret"},
	})
	if tw.Code != http.StatusOK {
		t.Fatalf("token status = %d, want 200\n%s", tw.Code, tw.Body.String())
	}
	body := decodeJSON(t, tw)
	if body["access_token"] == "" || body["access_token"] == nil {
		t.Fatalf("no access_token in response: %s", tw.Body.String())
	}
	if body["token_type"] != core.TokenTypeBearer {
		t.Errorf("token_type = %v, want %s", body["token_type"], core.TokenTypeBearer)
	}
}

func TestServer_AuthorizationErrorDoesNotRedirect(t *testing.T) {
	f := newServerFixture(t)

	target := "/connect/authorize?" + url.Values{
		"response_type": {"code"},
		"client_id":     {"Ghost"},
		"redirect_uri":  {"https://webapp.example.com/cb"},
	}.Encode()
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401\n%s", w.Code, w.Body.String())
	}
	if w.Header().Get("Location") != "" {
		t.Fatal("error response must not redirect")
	}
}

func TestServer_AdminRequiresAuth(t *testing.T) {
	f := newServerFixture(t)

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, ListActiveTicketsRoute, nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want 401", w.Code)
	}

	adminToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "operator",
		"roles": []any{"admin"},
	}).SignedString(adminKey)
	if err != nil {
		t.Fatalf("signing admin token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, ListActiveTicketsRoute, nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status with admin token = %d, want 200\n%s", w.Code, w.Body.String())
	}
}

func TestServer_AdminListsTasks(t *testing.T) {
	f := newServerFixture(t)

	adminToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"roles": []any{"admin"},
	}).SignedString(adminKey)
	if err != nil {
		t.Fatalf("signing admin token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, ListTasksRoute, nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", w.Code, w.Body.String())
	}
}
