package httpx

import (
	"net/http"

	"go.uber.org/zap"
)

func RecoveryMiddleware(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error("panic recovered",
					zap.String("request_id", RequestIDFrom(r)),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)

				if rw, ok := w.(*responseWriter); ok && rw.headerWritten {
					return
				}
				JSONError(w, r, http.StatusInternalServerError, CodeInternal, "Внутренняя ошибка сервера", nil)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
