package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/perennia/storefront/pkg/logger"
	"github.com/perennia/storefront/pkg/response"
)

// Recovery turns a panic in any downstream handler into a logged stack trace
// and a 500 {"detail":"Internal Server Error"}.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logger.WithCtx(r.Context()).Error("panic recovered",
					"error", fmt.Sprintf("%v", err),
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				)
				response.Error(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
