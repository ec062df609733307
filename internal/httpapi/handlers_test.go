package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"orgaccess.org/internal/auth"
	"orgaccess.org/internal/catalog"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T

	store *auth.InMemory
	cat   *catalog.InMemory
	codec *auth.TokenCodec
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	store := auth.NewInMemory()
	codec, err := auth.NewTokenCodec("test-secret")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	cat := catalog.NewInMemory()

	api := New(ReadyProbe{}, "test", Deps{
		Auth:          auth.NewService(store, codec),
		Resolver:      auth.NewResolver(store, codec),
		Catalog:       catalog.NewService(cat),
		RateBurst:     100,
		RatePerSecond: 100,
	})

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	c := &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
		store:   store,
		cat:     cat,
		codec:   codec,
	}
	c.seed()
	return c
}

// seed installs two organizations, a brand and a pair of API keys so scope
// behavior can be exercised without going through registration.
func (c *apiClient) seed() {
	c.store.SeedOrganization(auth.Organization{ID: "org-1", Name: "Acme Learning", IsActive: true})
	c.store.SeedOrganization(auth.Organization{ID: "org-2", Name: "Borealis", IsActive: true})
	c.store.SeedBrand(auth.Brand{ID: "brand-1", OrganizationID: "org-1", Name: "Acme Pro", IsActive: true})
	c.store.SeedAPIKey(auth.APIKey{ID: "k1", Key: "oak_org1", Name: "org key", OrganizationID: "org-1", IsActive: true})
	c.store.SeedAPIKey(auth.APIKey{ID: "k2", Key: "oak_brand1", Name: "brand key", OrganizationID: "org-1", BrandID: "brand-1", IsActive: true})

	hash, err := auth.HashPassword("Adm1n!Pass")
	if err != nil {
		c.t.Fatalf("hash password: %v", err)
	}
	c.store.SeedUser(auth.User{
		ID:             "user-admin",
		Name:           "Admin",
		Email:          "admin@acme.test",
		PasswordHash:   hash,
		Role:           auth.RoleAdmin,
		OrganizationID: "org-1",
		IsActive:       true,
	})
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	if params != nil {
		path += "?" + params.Encode()
	}
	return c.do(http.MethodGet, path, nil, headers)
}

func (c *apiClient) login(email, password string) sessionResponse {
	c.t.Helper()
	resp := c.post("/v1/auth/login", map[string]any{"email": email, "password": password}, nil)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("login status: %d", resp.StatusCode)
	}
	return decode[sessionResponse](c.t, resp)
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestRegisterLoginRefreshLogoutFlow(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/auth/register", map[string]any{
		"name":            "Jamie",
		"email":           "Jamie@Acme.Test",
		"password":        "Str0ng!Pass",
		"organization_id": "org-1",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status: %d", resp.StatusCode)
	}
	created := decode[sessionResponse](t, resp)
	if created.User.Email != "jamie@acme.test" {
		t.Fatalf("email not normalized: %q", created.User.Email)
	}
	if created.User.Role != auth.RoleUser {
		t.Fatalf("unexpected role: %q", created.User.Role)
	}
	if created.Tokens.AccessToken == "" || created.Tokens.RefreshToken == "" {
		t.Fatal("expected token pair on registration")
	}

	session := api.login("jamie@acme.test", "Str0ng!Pass")
	firstRefresh := session.Tokens.RefreshToken

	resp = api.post("/v1/auth/refresh", map[string]any{"refresh_token": firstRefresh}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status: %d", resp.StatusCode)
	}
	rotated := decode[sessionResponse](t, resp)
	if rotated.Tokens.RefreshToken == firstRefresh {
		t.Fatal("refresh token was not rotated")
	}

	// The consumed refresh token is single-use.
	resp = api.post("/v1/auth/refresh", map[string]any{"refresh_token": firstRefresh}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("replayed refresh status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post("/v1/auth/logout", map[string]any{"refresh_token": rotated.Tokens.RefreshToken}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post("/v1/auth/refresh", map[string]any{"refresh_token": rotated.Tokens.RefreshToken}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh after logout status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Logout stays successful for an already revoked token.
	resp = api.post("/v1/auth/logout", map[string]any{"refresh_token": rotated.Tokens.RefreshToken}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("repeated logout status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegisterWeakPasswordListsAllViolations(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/auth/register", map[string]any{
		"name":            "Weak",
		"email":           "weak@acme.test",
		"password":        "abc",
		"organization_id": "org-1",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	violations, ok := body["violations"].([]any)
	if !ok {
		t.Fatalf("expected violations list, got %v", body)
	}
	if len(violations) != 4 {
		t.Fatalf("expected 4 violations for %q, got %d", "abc", len(violations))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/auth/register", map[string]any{
		"name":            "Second Admin",
		"email":           "admin@acme.test",
		"password":        "Str0ng!Pass",
		"organization_id": "org-1",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

func seedCourses(c *apiClient) {
	now := time.Now().UTC()
	for _, course := range []catalog.Course{
		{ID: "c1", Title: "Org-wide onboarding", OrganizationID: "org-1", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "c2", Title: "Brand playbook", OrganizationID: "org-1", BrandID: "brand-1", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: "c3", Title: "Borealis basics", OrganizationID: "org-2", IsActive: true, CreatedAt: now, UpdatedAt: now},
	} {
		cp := course
		if err := c.cat.Create(context.Background(), &cp); err != nil {
			c.t.Fatalf("seed course: %v", err)
		}
	}
}

func courseIDs(items []map[string]any) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, item := range items {
		out[item["id"].(string)] = true
	}
	return out
}

func TestCoursesBrandScopedKey(t *testing.T) {
	api := newTestAPI(t)
	seedCourses(api)

	resp := api.get("/v1/courses", nil, bearer("oak_brand1"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %d", resp.StatusCode)
	}
	body := decode[struct {
		Items []map[string]any `json:"items"`
	}](t, resp)
	ids := courseIDs(body.Items)
	if len(ids) != 1 || !ids["c2"] {
		t.Fatalf("brand key should list only its brand's courses, got %v", ids)
	}

	// A brand-narrowed key cannot read a brand-less record.
	resp = api.get("/v1/courses/c1", nil, bearer("oak_brand1"))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-brand get status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/v1/courses/c3", nil, bearer("oak_brand1"))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-org get status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCoursesOrgWideKey(t *testing.T) {
	api := newTestAPI(t)
	seedCourses(api)

	// Listing with the brand-less key yields brand-less courses only.
	resp := api.get("/v1/courses", nil, bearer("oak_org1"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %d", resp.StatusCode)
	}
	body := decode[struct {
		Items []map[string]any `json:"items"`
	}](t, resp)
	ids := courseIDs(body.Items)
	if len(ids) != 1 || !ids["c1"] {
		t.Fatalf("org key listing should be brand-less only, got %v", ids)
	}

	// Single-record reads follow the same strict rule: a branded record
	// stays hidden from the organization-wide key.
	resp = api.get("/v1/courses/c2", nil, bearer("oak_org1"))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("branded get status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/v1/courses/c3", nil, bearer("oak_org1"))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-org get status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCourseCreateStampsScope(t *testing.T) {
	api := newTestAPI(t)

	resp := api.post("/v1/courses", map[string]any{"title": "New course"}, bearer("oak_brand1"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %d", resp.StatusCode)
	}
	if resp.Header.Get("Location") == "" {
		t.Fatal("expected Location header")
	}
	course := decode[map[string]any](t, resp)
	if course["organization_id"] != "org-1" || course["brand_id"] != "brand-1" {
		t.Fatalf("ownership not stamped from scope: %v", course)
	}
}

func TestMintKeyRequiresAdmin(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin@acme.test", "Adm1n!Pass")

	resp := api.post("/v1/orgs/keys", map[string]any{
		"name":     "integration",
		"brand_id": "brand-1",
	}, bearer(admin.Tokens.AccessToken))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("mint status: %d", resp.StatusCode)
	}
	key := decode[apiKeyResponse](t, resp)
	if len(key.Key) < 5 || key.Key[:4] != "oak_" {
		t.Fatalf("unexpected key format: %q", key.Key)
	}
	if key.OrganizationID != "org-1" || key.BrandID != "brand-1" {
		t.Fatalf("unexpected key scope: %+v", key)
	}

	// Non-admin sessions are refused.
	reg := api.post("/v1/auth/register", map[string]any{
		"name":            "Plain",
		"email":           "plain@acme.test",
		"password":        "Str0ng!Pass",
		"organization_id": "org-1",
	}, nil)
	user := decode[sessionResponse](t, reg)
	resp = api.post("/v1/orgs/keys", map[string]any{"name": "nope"}, bearer(user.Tokens.AccessToken))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin mint status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProfileAndPasswordChange(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin@acme.test", "Adm1n!Pass")
	hdr := bearer(admin.Tokens.AccessToken)

	resp := api.get("/v1/users/profile", nil, hdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status: %d", resp.StatusCode)
	}
	profile := decode[map[string]any](t, resp)
	org, ok := profile["organization"].(map[string]any)
	if !ok || org["name"] != "Acme Learning" {
		t.Fatalf("expected organization enrichment, got %v", profile)
	}

	resp = api.do(http.MethodPut, "/v1/users/password", map[string]any{
		"current_password": "wrong",
		"new_password":     "N3w!Passw0rd",
	}, hdr)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong current password status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.do(http.MethodPut, "/v1/users/password", map[string]any{
		"current_password": "Adm1n!Pass",
		"new_password":     "short",
	}, hdr)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("weak new password status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.do(http.MethodPut, "/v1/users/password", map[string]any{
		"current_password": "Adm1n!Pass",
		"new_password":     "N3w!Passw0rd",
	}, hdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("password change status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post("/v1/auth/login", map[string]any{
		"email":    "admin@acme.test",
		"password": "Adm1n!Pass",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("old password should be rejected, got %d", resp.StatusCode)
	}
	resp.Body.Close()
	api.login("admin@acme.test", "N3w!Passw0rd")
}

func TestUserResourceScopedToOrganization(t *testing.T) {
	api := newTestAPI(t)
	api.store.SeedUser(auth.User{
		ID:             "user-other",
		Name:           "Other",
		Email:          "other@borealis.test",
		Role:           auth.RoleUser,
		OrganizationID: "org-2",
		IsActive:       true,
	})
	admin := api.login("admin@acme.test", "Adm1n!Pass")
	hdr := bearer(admin.Tokens.AccessToken)

	resp := api.get("/v1/users/user-admin", nil, hdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("same-org user status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Users of other organizations read as absent, never as forbidden.
	resp = api.get("/v1/users/user-other", nil, hdr)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-org user status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAccountDeactivation(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin@acme.test", "Adm1n!Pass")
	hdr := bearer(admin.Tokens.AccessToken)

	resp := api.do(http.MethodDelete, "/v1/users/account", nil, hdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deactivate status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The still-unexpired access token no longer resolves.
	resp = api.get("/v1/users/profile", nil, hdr)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("profile after deactivation status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProfileUpdate(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin@acme.test", "Adm1n!Pass")
	hdr := bearer(admin.Tokens.AccessToken)

	resp := api.do(http.MethodPut, "/v1/users/profile", map[string]any{
		"first_name": "Alex",
		"phone":      "+7 700 123 45 67",
	}, hdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile update status: %d", resp.StatusCode)
	}
	updated := decode[map[string]any](t, resp)
	user, ok := updated["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response, got %v", updated)
	}
	if user["first_name"] != "Alex" || user["phone"] != "+7 700 123 45 67" {
		t.Fatalf("fields not applied: %v", user)
	}
	if user["name"] != "Admin" {
		t.Fatalf("omitted name must stay untouched, got %v", user["name"])
	}

	resp = api.get("/v1/users/profile", nil, hdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status: %d", resp.StatusCode)
	}
	profile := decode[map[string]any](t, resp)
	user = profile["user"].(map[string]any)
	if user["first_name"] != "Alex" {
		t.Fatalf("update not persisted: %v", user)
	}
}

func TestDashboardSummarizesOrganizationCatalog(t *testing.T) {
	api := newTestAPI(t)
	seedCourses(api)
	admin := api.login("admin@acme.test", "Adm1n!Pass")

	resp := api.get("/v1/users/dashboard", nil, bearer(admin.Tokens.AccessToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status: %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if _, ok := body["user"].(map[string]any); !ok {
		t.Fatalf("expected user in dashboard, got %v", body)
	}
	summary, ok := body["catalog"].(map[string]any)
	if !ok {
		t.Fatalf("expected catalog summary, got %v", body)
	}
	// The member dashboard spans the whole organization, branded courses
	// included, and never counts other tenants.
	if summary["total_courses"] != float64(2) {
		t.Fatalf("expected 2 courses, got %v", summary["total_courses"])
	}
	if summary["brandless_courses"] != float64(1) || summary["branded_courses"] != float64(1) {
		t.Fatalf("unexpected brand split: %v", summary)
	}
	recent, ok := summary["recently_updated"].([]any)
	if !ok || len(recent) != 2 {
		t.Fatalf("expected 2 recent courses, got %v", summary["recently_updated"])
	}
}
