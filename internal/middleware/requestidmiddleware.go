package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
)

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-Id"

type RequestIdMiddleware struct{}

func NewRequestIdMiddleware() *RequestIdMiddleware {
	return &RequestIdMiddleware{}
}

// Handle echoes a client supplied UUID or assigns a new one, and attaches
// it to every log line written with the request context.
func (m *RequestIdMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := logx.ContextWithFields(r.Context(), logx.Field("request_id", id))
		next(w, r.WithContext(ctx))
	}
}
