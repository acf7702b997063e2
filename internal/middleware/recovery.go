package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/josh-kwaku/tizim-bank/internal/handler"
	"github.com/josh-kwaku/tizim-bank/internal/logging"
)

// Recovery turns a panic in any handler into INTERNAL_ERROR. A panic
// inside a ledger transaction has already rolled the transaction back by
// the time it reaches here.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logging.FromContext(r.Context()).Error("panic recovered",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", TraceIDFromContext(r.Context()),
					"stack", string(debug.Stack()),
				)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
