// Package httpapi exposes the HTTP surface of the service: credential
// endpoints, tenant-scoped resources and operational probes.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"orgaccess.org/api/spec"
	"orgaccess.org/internal/auth"
	"orgaccess.org/internal/catalog"
	"orgaccess.org/internal/obs"
)

// ReadyProbe checks backing dependencies for the readiness endpoint.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Deps carries the wired services the API serves.
type Deps struct {
	Auth     *auth.Service
	Resolver *auth.Resolver
	Catalog  *catalog.Service

	RateBurst     int
	RatePerSecond float64
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	auth     *auth.Service
	resolver *auth.Resolver
	catalog  *catalog.Service

	rateBurst     int
	ratePerSecond float64
}

func New(rp ReadyProbe, version string, deps Deps) *API {
	a := &API{
		mux:           http.NewServeMux(),
		readyProbe:    rp,
		version:       version,
		auth:          deps.Auth,
		resolver:      deps.Resolver,
		catalog:       deps.Catalog,
		rateBurst:     deps.RateBurst,
		ratePerSecond: deps.RatePerSecond,
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 40
	}
	if a.ratePerSecond <= 0 {
		a.ratePerSecond = 20
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/v1/info", a.withOptionalSession(http.HandlerFunc(a.Info)))

	// OpenAPI YAML
	a.mux.HandleFunc("/openapi.yaml", a.OpenAPISpec)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// credential lifecycle
	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)

	// session-scoped user operations
	a.mux.Handle("/v1/users/profile", a.withSession(http.HandlerFunc(a.handleProfile)))
	a.mux.Handle("/v1/users/dashboard", a.withSession(http.HandlerFunc(a.handleDashboard)))
	a.mux.Handle("/v1/users/password", a.withSession(http.HandlerFunc(a.handlePassword)))
	a.mux.Handle("/v1/users/search", a.withSession(http.HandlerFunc(a.handleUserSearch)))
	a.mux.Handle("/v1/users/account", a.withSession(http.HandlerFunc(a.handleAccount)))
	a.mux.Handle("/v1/users/", a.withSession(http.HandlerFunc(a.handleUserResource)))

	// organization administration
	a.mux.Handle("/v1/orgs/keys", a.withSession(http.HandlerFunc(a.handleMintKey)))
	a.mux.Handle("/v1/orgs/brands", a.withSession(http.HandlerFunc(a.handleBrands)))

	// tenant-scoped catalog, API-key routes
	a.mux.Handle("/v1/courses", a.withAPIKey(http.HandlerFunc(a.handleCoursesCollection)))
	a.mux.Handle("/v1/courses/search", a.withAPIKey(http.HandlerFunc(a.handleCourseSearch)))
	a.mux.Handle("/v1/courses/", a.withAPIKey(http.HandlerFunc(a.handleCourseResource)))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := http.Handler(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSecond)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "orgaccess-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"name":    "orgaccess-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	}
	if scope, ok := auth.ScopeFromContext(r.Context()); ok {
		body["organization_id"] = scope.OrganizationID
		if scope.Organization != nil {
			body["organization"] = scope.Organization.Name
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *API) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
	_, _ = w.Write(spec.OpenAPI)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}
