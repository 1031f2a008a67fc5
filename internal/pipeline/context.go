package pipeline

import (
	"context"

	"github.com/gmarkoss/tessera/internal/core"
)

// Context is the mutable per-request state threaded through the four
// stages. It is owned by exactly one pipeline run.
type Context struct {
	ctx context.Context

	// Raw is the wire request as received from the transport.
	Raw *RawRequest

	// Request is populated by the Extract stage.
	Request *Request

	// Response accumulates the outgoing parameters. Hooks may add to
	// it at any stage; returning HandleResponse sends it as-is.
	Response *Response

	// Ticket is the resolved or host-supplied ticket, if any.
	Ticket *core.Ticket

	validated bool
	callerID  string
}

func newContext(ctx context.Context, raw *RawRequest) *Context {
	return &Context{
		ctx:      ctx,
		Raw:      raw,
		Response: NewResponse(),
	}
}

// Context returns the cancellation context of the request.
func (c *Context) Context() context.Context { return c.ctx }

// MarkValidated records that a hook has authenticated the caller
// itself. Marking a request validated without a client_id parameter is
// a contract violation the built-in Validate stage turns into
// server_error.
func (c *Context) MarkValidated() { c.validated = true }

// Validated reports whether the caller has been authenticated, by a
// hook or by the built-in client validation.
func (c *Context) Validated() bool { return c.validated }

// CallerID returns the authenticated caller's client id, or "" for
// anonymous callers.
func (c *Context) CallerID() string { return c.callerID }

func (c *Context) setCaller(clientID string) {
	c.validated = true
	c.callerID = clientID
}
