package httpapi

import (
	"errors"
	"net/http"

	"orgaccess.org/internal/auth"
	"orgaccess.org/internal/obs"
)

const authHeader = "Authorization"

// withAPIKey authenticates API keys only. API-key routes and session routes
// are statically distinct; the value is never inspected to guess its kind.
func (a *API) withAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, err := a.resolver.ResolveAPIKey(r.Context(), r.Header.Get(authHeader))
		obs.ObserveAuthResolution("api_key", resolutionOutcome(err))
		if err != nil {
			writeAuthError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithScope(r.Context(), scope)))
	})
}

// withSession authenticates session tokens only.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope, err := a.resolver.ResolveSession(r.Context(), r.Header.Get(authHeader))
		obs.ObserveAuthResolution("session", resolutionOutcome(err))
		if err != nil {
			writeAuthError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithScope(r.Context(), scope)))
	})
}

// withOptionalSession attaches scope when a valid session token is present
// and passes the request through untouched otherwise.
func (a *API) withOptionalSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if scope, ok := a.resolver.ResolveSessionOptional(r.Context(), r.Header.Get(authHeader)); ok {
			r = r.WithContext(auth.ContextWithScope(r.Context(), scope))
		}
		next.ServeHTTP(w, r)
	})
}

// writeAuthError maps resolution failures to transport status codes. All
// credential failures collapse to 401 with a uniform message; transient
// store failures surface as 503 so clients can retry.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrCredentialMissing):
		writeError(w, r, http.StatusUnauthorized, "credentials required")
	case errors.Is(err, auth.ErrCredentialExpired), errors.Is(err, auth.ErrTokenExpired):
		writeError(w, r, http.StatusUnauthorized, "credentials expired")
	case errors.Is(err, auth.ErrCredentialInvalid), errors.Is(err, auth.ErrTokenInvalid):
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrStoreUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "authentication temporarily unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "authentication error")
	}
}

func resolutionOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, auth.ErrCredentialMissing):
		return "missing"
	case errors.Is(err, auth.ErrCredentialExpired), errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrStoreUnavailable):
		return "unavailable"
	default:
		return "invalid"
	}
}

func scopeFrom(r *http.Request) auth.ScopeContext {
	scope, _ := auth.ScopeFromContext(r.Context())
	return scope
}
