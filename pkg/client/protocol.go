package client

import (
	"context"
	"fmt"
	"net/url"
)

// ProtocolError is an in-band protocol failure, the error triple the
// server answered with.
type ProtocolError struct {
	Code          string
	Description   string
	URI           string
	CorrelationID string
}

func (e *ProtocolError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("protocol error: %s (correlation: %s)", e.Code, e.CorrelationID)
	}
	return fmt.Sprintf("protocol error: %s: %s (correlation: %s)", e.Code, e.Description, e.CorrelationID)
}

func protocolError(params map[string]any, correlation string) *ProtocolError {
	code, _ := params["error"].(string)
	if code == "" {
		return nil
	}
	description, _ := params["error_description"].(string)
	uri, _ := params["error_uri"].(string)
	return &ProtocolError{
		Code:          code,
		Description:   description,
		URI:           uri,
		CorrelationID: correlation,
	}
}

// Credentials identify the calling client application. Public clients
// leave Secret empty.
type Credentials struct {
	ClientID string
	Secret   string
}

func (c Credentials) apply(form url.Values) {
	if c.ClientID != "" {
		form.Set("client_id", c.ClientID)
	}
	if c.Secret != "" {
		form.Set("client_secret", c.Secret)
	}
}

// Introspection is the raw introspection payload. Inactive tokens
// carry nothing but "active": false.
type Introspection map[string]any

func (i Introspection) Active() bool {
	active, _ := i["active"].(bool)
	return active
}

// Introspect asks the server about a token's state. hint may be empty.
func (c *Client) Introspect(ctx context.Context, token, hint string, creds Credentials) (Introspection, string, error) {
	form := url.Values{"token": {token}}
	if hint != "" {
		form.Set("token_type_hint", hint)
	}
	creds.apply(form)

	params, correlation, err := c.postForm(ctx, c.endpoints.Introspection, form)
	if err != nil {
		return nil, correlation, err
	}
	if perr := protocolError(params, correlation); perr != nil {
		return nil, correlation, perr
	}
	return Introspection(params), correlation, nil
}

// Revoke withdraws a token. Revoking an unknown or foreign token
// succeeds silently; the server never confirms token existence.
func (c *Client) Revoke(ctx context.Context, token, hint string, creds Credentials) (string, error) {
	form := url.Values{"token": {token}}
	if hint != "" {
		form.Set("token_type_hint", hint)
	}
	creds.apply(form)

	params, correlation, err := c.postForm(ctx, c.endpoints.Revocation, form)
	if err != nil {
		return correlation, err
	}
	if perr := protocolError(params, correlation); perr != nil {
		return correlation, perr
	}
	return correlation, nil
}

// TokenRequest is a token endpoint exchange: either an authorization
// code redemption or a refresh.
type TokenRequest struct {
	GrantType    string
	Code         string
	RedirectURI  string
	RefreshToken string
	Scope        string

	Credentials Credentials
}

// TokenGrant is a successful token endpoint response.
type TokenGrant struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	Scope        string `json:"scope"`
}

// Exchange redeems a grant at the token endpoint.
func (c *Client) Exchange(ctx context.Context, request TokenRequest) (*TokenGrant, string, error) {
	form := url.Values{"grant_type": {request.GrantType}}
	if request.Code != "" {
		form.Set("code", request.Code)
	}
	if request.RedirectURI != "" {
		form.Set("redirect_uri", request.RedirectURI)
	}
	if request.RefreshToken != "" {
		form.Set("refresh_token", request.RefreshToken)
	}
	if request.Scope != "" {
		form.Set("scope", request.Scope)
	}
	request.Credentials.apply(form)

	params, correlation, err := c.postForm(ctx, c.endpoints.Token, form)
	if err != nil {
		return nil, correlation, err
	}
	if perr := protocolError(params, correlation); perr != nil {
		return nil, correlation, perr
	}

	grant := &TokenGrant{
		AccessToken:  stringParam(params, "access_token"),
		TokenType:    stringParam(params, "token_type"),
		RefreshToken: stringParam(params, "refresh_token"),
		IDToken:      stringParam(params, "id_token"),
		Scope:        stringParam(params, "scope"),
	}
	if expiresIn, ok := params["expires_in"].(float64); ok {
		grant.ExpiresIn = int64(expiresIn)
	}
	return grant, correlation, nil
}

func stringParam(params map[string]any, name string) string {
	s, _ := params[name].(string)
	return s
}
