package auth

// ScopeContext is the tenant scope derived from a resolved credential. It is
// built fresh per request, immutable after construction and discarded when
// the request ends.
//
// Authorization decisions use the id fields only. The Organization and Brand
// records are carried for response enrichment and must not feed back into
// access checks.
type ScopeContext struct {
	OrganizationID string
	BrandID        string // set only for brand-scoped API-key auth
	UserID         string // set only for session auth
	Role           string // set only for session auth

	Organization *Organization
	Brand        *Brand
}

// BrandScoped reports whether the scope is narrowed to a single brand.
func (s ScopeContext) BrandScoped() bool { return s.BrandID != "" }

// SessionScoped reports whether the scope was derived from a session token.
func (s ScopeContext) SessionScoped() bool { return s.UserID != "" }

// TenantOwned is implemented by records that carry tenant ownership fields.
// OwnerBrandID returns "" for brand-less records.
type TenantOwned interface {
	OwnerOrganizationID() string
	OwnerBrandID() string
}

// Authorize reports whether the record is visible within the scope:
// the organization must match, and when the scope is brand-narrowed the
// record's brand must match too.
//
// A brand-less scope passes records of any brand within its organization.
// Callers that want the stricter "brand-less records only" reading (the
// behavior of organization-wide API keys on collection endpoints) apply
// that filter in query construction, not here.
func Authorize(scope ScopeContext, record TenantOwned) bool {
	if record == nil {
		return false
	}
	if scope.OrganizationID == "" || scope.OrganizationID != record.OwnerOrganizationID() {
		return false
	}
	if scope.BrandID != "" && record.OwnerBrandID() != scope.BrandID {
		return false
	}
	return true
}
