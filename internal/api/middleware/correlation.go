package middleware

import (
	"net/http"

	"github.com/gmarkoss/tessera/internal/audit"
)

// CorrelationIDMiddleware assigns every request a correlation id,
// honoring one the caller supplied, and mirrors it onto the response.
func CorrelationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, id := audit.WithCorrelationID(r.Context(), r.Header.Get(audit.CorrelationIDHeader))
		w.Header().Set(audit.CorrelationIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
