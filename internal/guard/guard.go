// Package guard decides, per request and before any page renders, whether a
// path needs a signed-in user and enforces it through the identity provider.
package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yoomapp/yoom-web/internal/auth"
	"github.com/yoomapp/yoom-web/internal/metrics"
	"github.com/yoomapp/yoom-web/internal/model"
)

const (
	DecisionSkipped    = "skipped"
	DecisionPublic     = "public"
	DecisionAllowed    = "allowed"
	DecisionRedirected = "redirected"
)

type Authenticator interface {
	Authenticate(r *http.Request) (model.User, bool)
}

type Options struct {
	Protected *Matcher
	Run       RunMatcher
	Auth      Authenticator
	// SignInURL receives unauthenticated requests for protected paths.
	SignInURL string
	Logger    zerolog.Logger
}

// Decide classifies path without consulting the identity provider.
func (o Options) Decide(path string) string {
	if !o.Run.ShouldRun(path) {
		return DecisionSkipped
	}
	if !o.Protected.Protected(path) {
		return DecisionPublic
	}
	return DecisionAllowed
}

func Middleware(opts Options) func(http.Handler) http.Handler {
	signIn := opts.SignInURL
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if decision := opts.Decide(path); decision != DecisionAllowed {
				metrics.Default().GuardDecisions.WithLabelValues(decision).Inc()
				next.ServeHTTP(w, r)
				return
			}

			user, ok := opts.Auth.Authenticate(r)
			if !ok {
				metrics.Default().GuardDecisions.WithLabelValues(DecisionRedirected).Inc()
				opts.Logger.Debug().Str("path", path).Msg("route guard redirect to sign-in")
				RedirectToSignIn(w, r, signIn)
				return
			}
			metrics.Default().GuardDecisions.WithLabelValues(DecisionAllowed).Inc()
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
		})
	}
}

// RedirectToSignIn sends the request to signIn, carrying the original request
// URI as redirect_url. An empty signIn means "/sign-in".
func RedirectToSignIn(w http.ResponseWriter, r *http.Request, signIn string) {
	if signIn == "" {
		signIn = "/sign-in"
	}
	writeRedirect(w, r, signInLocation(signIn, r.URL.RequestURI()))
}

func signInLocation(signIn, original string) string {
	u, err := url.Parse(signIn)
	if err != nil {
		return signIn
	}
	q := u.Query()
	q.Set("redirect_url", original)
	u.RawQuery = q.Encode()
	return u.String()
}

func writeRedirect(w http.ResponseWriter, r *http.Request, location string) {
	if strings.EqualFold(r.Header.Get("HX-Request"), "true") {
		w.Header().Set("HX-Redirect", location)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, location, http.StatusFound)
}
