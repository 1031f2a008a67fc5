package client

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Endpoints are the server-side protocol paths. The zero value is
// filled with the server defaults.
type Endpoints struct {
	Authorization string
	Token         string
	Introspection string
	Revocation    string
}

func (e *Endpoints) applyDefaults() {
	if e.Authorization == "" {
		e.Authorization = "/connect/authorize"
	}
	if e.Token == "" {
		e.Token = "/connect/token"
	}
	if e.Introspection == "" {
		e.Introspection = "/connect/introspect"
	}
	if e.Revocation == "" {
		e.Revocation = "/connect/revoke"
	}
}

// Client talks to a running server: the protocol endpoints for token
// work and the admin surface for operator tooling.
type Client struct {
	base       string
	endpoints  Endpoints
	httpClient *http.Client
	authToken  string
}

type Option func(*Client)

// WithAuthToken sets the bearer token sent on admin requests.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = token
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithEndpoints overrides the protocol paths for servers that deviate
// from the defaults.
func WithEndpoints(endpoints Endpoints) Option {
	return func(c *Client) {
		c.endpoints = endpoints
	}
}

func New(server string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(server, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.endpoints.applyDefaults()
	return c
}

type urlBuilder struct {
	base  string
	path  string
	query url.Values
}

func (c *Client) url() *urlBuilder {
	return &urlBuilder{base: c.base, query: url.Values{}}
}

func (b *urlBuilder) setPath(path string) *urlBuilder {
	b.path = path
	return b
}

func (b *urlBuilder) addQueryParam(name string, value any) *urlBuilder {
	b.query.Add(name, toString(value))
	return b
}

func (b *urlBuilder) build() string {
	u := b.base + b.path
	if len(b.query) > 0 {
		u += "?" + b.query.Encode()
	}
	return u
}
