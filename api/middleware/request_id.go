package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/dispensary-pos/api/responses"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID propagates a caller-supplied X-Request-Id when it is a UUID and
// mints one otherwise. The id lands in the response header, the log context
// and error bodies.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := uuid.NewString()
			if incoming, err := uuid.Parse(r.Header.Get(requestIDHeader)); err == nil {
				reqID = incoming.String()
			}
			w.Header().Set(requestIDHeader, reqID)

			ctx := responses.WithRequestID(r.Context(), reqID)
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
