package pipeline

import "github.com/gmarkoss/tessera/internal/core"

type dispositionKind int

const (
	dispositionContinue dispositionKind = iota
	dispositionReject
	dispositionHandled
	dispositionSkip
)

// Disposition is the outcome a stage reports back to the driver. It is
// a tagged variant: exactly one of the four constructors below applies,
// and the driver's transition table switches on it.
type Disposition struct {
	kind dispositionKind
	err  *core.ProtocolError
}

// Continue proceeds to the built-in logic of the current stage and
// then to the next stage. The zero Disposition is Continue.
func Continue() Disposition {
	return Disposition{kind: dispositionContinue}
}

// Reject aborts the request with a protocol error response. An empty
// code defaults to invalid_request. No later stage's built-in logic
// runs.
func Reject(code, description, uri string) Disposition {
	return Disposition{
		kind: dispositionReject,
		err:  core.NewProtocolError(code, description, uri),
	}
}

// RejectError aborts the request with a pre-built protocol error.
func RejectError(err *core.ProtocolError) Disposition {
	if err == nil {
		err = core.NewProtocolError("", "", "")
	}
	return Disposition{kind: dispositionReject, err: err}
}

// HandleResponse signals that the stage has fully composed the
// response itself: the driver sends the response as-is and skips all
// remaining built-in logic and stages.
func HandleResponse() Disposition {
	return Disposition{kind: dispositionHandled}
}

// SkipToNextMiddleware abandons the pipeline entirely, emitting no
// response: the hosting transport's next component takes over.
func SkipToNextMiddleware() Disposition {
	return Disposition{kind: dispositionSkip}
}

func (d Disposition) isContinue() bool { return d.kind == dispositionContinue }

// RejectedWith returns the protocol error of a Reject disposition, or
// nil for every other kind.
func (d Disposition) RejectedWith() *core.ProtocolError {
	if d.kind != dispositionReject {
		return nil
	}
	return d.err
}
