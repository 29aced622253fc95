package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	svcerrors "github.com/R3E-Network/appstore_gateway/internal/errors"
	"github.com/R3E-Network/appstore_gateway/internal/httputil"
	"github.com/R3E-Network/appstore_gateway/internal/logging"
)

// Recovery turns a handler panic into a 500 response and an error log.
func Recovery(logger *logging.Logger) func(http.Handler) http.Handler {
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

				logger.WithContext(r.Context()).WithFields(logrus.Fields{
					"panic": fmt.Sprint(rec),
					"stack": string(debug.Stack()),
					"path":  r.URL.Path,
				}).Error("handler panicked")

				httputil.WriteError(w, svcerrors.Internal("internal server error", nil))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
