package middleware

import (
	"log/slog"
	"net"
	"net/http"

	"filippo.io/csrf/gorilla"

	"github.com/olegiv/gamehub/internal/i18n"
	"github.com/olegiv/gamehub/internal/model"
	"github.com/olegiv/gamehub/internal/session"
)

// CSRFConfig configures cross-site request protection. filippo.io/csrf
// decides from the Sec-Fetch-Site and Origin headers, so gamehub's forms
// carry no tokens.
type CSRFConfig struct {
	// AuthKey is kept for the gorilla-compatible API; it signs nothing.
	AuthKey []byte

	// TrustedOrigins are host:port values allowed to post cross-origin.
	TrustedOrigins []string

	// ErrorHandler replaces the localized 403 response.
	ErrorHandler http.Handler
}

// DefaultCSRFConfig trusts no extra origins in production. In development
// the listen address is trusted under both loopback names, since browsers
// treat localhost and 127.0.0.1 as different sites.
func DefaultCSRFConfig(authKey []byte, isDev bool, serverAddr string) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}
	if isDev {
		cfg.TrustedOrigins = devOrigins(serverAddr)
	}
	return cfg
}

func devOrigins(serverAddr string) []string {
	host, port, err := net.SplitHostPort(serverAddr)
	if err != nil || port == "" {
		return nil
	}
	origins := []string{net.JoinHostPort("localhost", port), net.JoinHostPort("127.0.0.1", port)}
	if host != "" && host != "localhost" && host != "127.0.0.1" {
		origins = append(origins, serverAddr)
	}
	return origins
}

// CSRF returns the protection middleware for cfg.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	onError := cfg.ErrorHandler
	if onError == nil {
		onError = http.HandlerFunc(rejectCrossSite)
	}
	opts := []csrf.Option{csrf.ErrorHandler(onError)}
	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}
	return csrf.Protect(cfg.AuthKey, opts...)
}

func rejectCrossSite(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	forbidCrossSite(w, r, reason)
}

func forbidCrossSite(w http.ResponseWriter, r *http.Request, reason string) {
	slog.Warn("cross-site request rejected",
		"category", model.EventCategoryAuth,
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)

	lang := session.FromContext(r.Context()).Lang
	if lang == "" {
		lang = i18n.Default()
	}
	http.Error(w, i18n.T(lang, "error.csrf"), http.StatusForbidden)
}

// SameOrigin guards GET routes that change state. Requests a browser marks as
// coming from another site get the CSRF 403; requests without Fetch metadata
// pass, as with CSRF.
func SameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Sec-Fetch-Site") {
		case "", "same-origin", "none":
			next.ServeHTTP(w, r)
		default:
			forbidCrossSite(w, r, "state-changing GET from another site")
		}
	})
}
