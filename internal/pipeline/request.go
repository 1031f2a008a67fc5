package pipeline

import "net/url"

// RawRequest is the transport-agnostic wire request handed to a
// pipeline: the HTTP adapter builds one from form/query values, tests
// build them directly.
type RawRequest struct {
	// Method is the HTTP verb, upper-case.
	Method string

	// Params merges query and form parameters.
	Params url.Values
}

// Request is the typed protocol request extracted from a RawRequest.
// Fields not applicable to an endpoint stay empty; Custom keeps every
// parameter the named fields do not cover.
type Request struct {
	Token         string
	TokenTypeHint string
	ClientID      string
	ClientSecret  string
	GrantType     string
	Code          string
	RefreshToken  string
	RedirectURI   string
	ResponseType  string
	Scope         string
	State         string
	Nonce         string
	Custom        url.Values
}

var namedParams = map[string]struct{}{
	"token":           {},
	"token_type_hint": {},
	"client_id":       {},
	"client_secret":   {},
	"grant_type":      {},
	"code":            {},
	"refresh_token":   {},
	"redirect_uri":    {},
	"response_type":   {},
	"scope":           {},
	"state":           {},
	"nonce":           {},
}

func parseRequest(raw *RawRequest) *Request {
	req := &Request{
		Token:         raw.Params.Get("token"),
		TokenTypeHint: raw.Params.Get("token_type_hint"),
		ClientID:      raw.Params.Get("client_id"),
		ClientSecret:  raw.Params.Get("client_secret"),
		GrantType:     raw.Params.Get("grant_type"),
		Code:          raw.Params.Get("code"),
		RefreshToken:  raw.Params.Get("refresh_token"),
		RedirectURI:   raw.Params.Get("redirect_uri"),
		ResponseType:  raw.Params.Get("response_type"),
		Scope:         raw.Params.Get("scope"),
		State:         raw.Params.Get("state"),
		Nonce:         raw.Params.Get("nonce"),
		Custom:        url.Values{},
	}
	for name, values := range raw.Params {
		if _, named := namedParams[name]; !named {
			req.Custom[name] = values
		}
	}
	return req
}
