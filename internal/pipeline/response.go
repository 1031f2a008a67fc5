package pipeline

import (
	"bytes"
	"encoding/json"

	"github.com/gmarkoss/tessera/internal/core"
)

type responseParam struct {
	name  string
	value any
}

// Response is an ordered protocol response: parameters serialize in
// insertion order so payloads are deterministic. Error responses carry
// the error triple like any other parameters.
type Response struct {
	params []responseParam
}

func NewResponse() *Response {
	return &Response{}
}

// Set adds or replaces a parameter, keeping the original position on
// replacement. A nil value removes the parameter.
func (r *Response) Set(name string, value any) {
	if value == nil {
		for i, p := range r.params {
			if p.name == name {
				r.params = append(r.params[:i], r.params[i+1:]...)
				return
			}
		}
		return
	}
	for i, p := range r.params {
		if p.name == name {
			r.params[i].value = value
			return
		}
	}
	r.params = append(r.params, responseParam{name: name, value: value})
}

// Get returns the parameter value and whether it is present.
func (r *Response) Get(name string) (any, bool) {
	for _, p := range r.params {
		if p.name == name {
			return p.value, true
		}
	}
	return nil, false
}

// GetString returns the parameter as a string, or "" when absent or of
// another type.
func (r *Response) GetString(name string) string {
	v, ok := r.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Len reports the number of parameters.
func (r *Response) Len() int { return len(r.params) }

// Error returns the protocol error carried by this response, or nil
// for success responses.
func (r *Response) Error() *core.ProtocolError {
	code := r.GetString("error")
	if code == "" {
		return nil
	}
	return &core.ProtocolError{
		Code:        code,
		Description: r.GetString("error_description"),
		URI:         r.GetString("error_uri"),
	}
}

// ErrorResponse builds a response carrying exactly the error triple.
func ErrorResponse(err *core.ProtocolError) *Response {
	r := NewResponse()
	r.Set("error", err.Code)
	if err.Description != "" {
		r.Set("error_description", err.Description)
	}
	if err.URI != "" {
		r.Set("error_uri", err.URI)
	}
	return r
}

// MarshalJSON serializes the parameters as a JSON object in insertion
// order.
func (r *Response) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range r.params {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(p.name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		value, err := json.Marshal(p.value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
