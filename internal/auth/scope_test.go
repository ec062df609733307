package auth

import "testing"

type ownedRecord struct {
	orgID   string
	brandID string
}

func (r ownedRecord) OwnerOrganizationID() string { return r.orgID }
func (r ownedRecord) OwnerBrandID() string        { return r.brandID }

// TestAuthorizeCrossProduct exercises every combination of {scope has
// brand / no brand} x {record has brand / no brand} x {matching /
// mismatched ids}.
func TestAuthorizeCrossProduct(t *testing.T) {
	cases := []struct {
		name   string
		scope  ScopeContext
		record ownedRecord
		want   bool
	}{
		{"org match, both brand-less", ScopeContext{OrganizationID: "org-1"}, ownedRecord{"org-1", ""}, true},
		{"org match, brand-less scope sees branded record", ScopeContext{OrganizationID: "org-1"}, ownedRecord{"org-1", "brand-1"}, true},
		{"org mismatch, both brand-less", ScopeContext{OrganizationID: "org-1"}, ownedRecord{"org-2", ""}, false},
		{"org mismatch, branded record", ScopeContext{OrganizationID: "org-1"}, ownedRecord{"org-2", "brand-1"}, false},
		{"brand scope, matching brand", ScopeContext{OrganizationID: "org-1", BrandID: "brand-1"}, ownedRecord{"org-1", "brand-1"}, true},
		{"brand scope, mismatched brand", ScopeContext{OrganizationID: "org-1", BrandID: "brand-1"}, ownedRecord{"org-1", "brand-2"}, false},
		{"brand scope, brand-less record", ScopeContext{OrganizationID: "org-1", BrandID: "brand-1"}, ownedRecord{"org-1", ""}, false},
		{"brand scope, org mismatch with matching brand id", ScopeContext{OrganizationID: "org-1", BrandID: "brand-1"}, ownedRecord{"org-2", "brand-1"}, false},
		{"empty scope", ScopeContext{}, ownedRecord{"org-1", ""}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Authorize(tc.scope, tc.record); got != tc.want {
				t.Fatalf("Authorize(%+v, %+v) = %v, want %v", tc.scope, tc.record, got, tc.want)
			}
		})
	}
}

// Two keys under the same organization but different brands must never both
// authorize the same brand-scoped record.
func TestSiblingBrandScopesNeverOverlap(t *testing.T) {
	north := ScopeContext{OrganizationID: "org-1", BrandID: "brand-1"}
	south := ScopeContext{OrganizationID: "org-1", BrandID: "brand-2"}

	records := []ownedRecord{
		{"org-1", "brand-1"},
		{"org-1", "brand-2"},
	}
	for _, rec := range records {
		if Authorize(north, rec) && Authorize(south, rec) {
			t.Fatalf("record %+v visible to both sibling brand scopes", rec)
		}
	}
}

func TestAuthorizeNilRecord(t *testing.T) {
	if Authorize(ScopeContext{OrganizationID: "org-1"}, nil) {
		t.Fatalf("nil record must never be authorized")
	}
}
