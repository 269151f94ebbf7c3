package middleware

import (
	"net/http"
	"time"

	"github.com/olegiv/gamehub/internal/i18n"
	"github.com/olegiv/gamehub/internal/session"
)

// Timeout bounds a whole request. A handler still running after timeout has
// its context cancelled and the client gets a 503 with the localized
// "took too long" message; anything the handler writes afterwards is
// dropped. Responses are buffered until the handler returns, so streaming
// routes must not be wrapped.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := session.FromContext(r.Context()).Lang
			if lang == "" {
				lang = i18n.Default()
			}
			http.TimeoutHandler(next, timeout, i18n.T(lang, "msg.timeout")).ServeHTTP(w, r)
		})
	}
}
