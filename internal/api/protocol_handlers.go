package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/gmarkoss/tessera/internal/api/presenter"
	"github.com/gmarkoss/tessera/internal/core"
	"github.com/gmarkoss/tessera/internal/pipeline"
)

// pipelineFunc is one of the engine's endpoint entry points.
type pipelineFunc func(ctx context.Context, raw *pipeline.RawRequest) *pipeline.Result

// responseWriter serializes a finished pipeline response onto the wire.
type responseWriter func(w http.ResponseWriter, r *http.Request, resp *pipeline.Response)

// handleProtocol adapts an HTTP request into a pipeline run. Query and
// form parameters are merged; the pipeline never sees the transport.
func (s *Server) handleProtocol(run pipelineFunc, write responseWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("unparsable request body")
			presenter.Error(w, r, "malformed request body", http.StatusBadRequest)
			return
		}

		raw := &pipeline.RawRequest{
			Method: r.Method,
			Params: r.Form,
		}

		result := run(r.Context(), raw)
		switch {
		case result.Aborted:
			// the client went away; there is nobody to answer
			log.Ctx(r.Context()).Debug().Msg("request cancelled mid-pipeline")
		case result.Skipped:
			http.NotFound(w, r)
		default:
			write(w, r, result.Response)
		}
	}
}

// writeResponse emits a pipeline response as JSON. Token responses
// must never be cached, so every protocol payload carries the
// no-store headers.
func writeResponse(w http.ResponseWriter, r *http.Request, resp *pipeline.Response) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	presenter.JSON(w, r, resp, statusFor(resp))
}

// statusFor maps the protocol error code onto an HTTP status.
func statusFor(resp *pipeline.Response) int {
	perr := resp.Error()
	if perr == nil {
		return http.StatusOK
	}
	switch perr.Code {
	case core.ErrorInvalidClient:
		return http.StatusUnauthorized
	case core.ErrorServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// writeAuthorization finishes an authorization request. A granted code
// rides back to the client on a redirect to the validated redirect_uri;
// errors never redirect, they answer directly.
func (s *Server) writeAuthorization(w http.ResponseWriter, r *http.Request, resp *pipeline.Response) {
	if resp.Error() != nil {
		writeResponse(w, r, resp)
		return
	}

	redirect, err := url.Parse(r.Form.Get("redirect_uri"))
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("validated redirect_uri failed to parse")
		writeResponse(w, r, pipeline.ErrorResponse(core.ServerError()))
		return
	}

	q := redirect.Query()
	q.Set("code", resp.GetString("code"))
	if state := resp.GetString("state"); state != "" {
		q.Set("state", state)
	}
	redirect.RawQuery = q.Encode()

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	http.Redirect(w, r, redirect.String(), http.StatusFound)
}
