// Package catalog holds the tenant-owned course records served to API-key
// integrations. Every read and write is bounded by a resolved scope; records
// outside it are reported as absent rather than forbidden.
package catalog

import (
	"context"
	"errors"
	"time"

	"orgaccess.org/internal/auth"
)

var ErrNotFound = errors.New("catalog: not found")
var ErrInvalidInput = errors.New("catalog: invalid input")

// Course is a tenant-owned record. An empty BrandID means the course hangs
// directly off the organization.
type Course struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Content        string    `json:"content,omitempty"`
	OrganizationID string    `json:"organization_id"`
	BrandID        string    `json:"brand_id,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (c *Course) OwnerOrganizationID() string { return c.OrganizationID }
func (c *Course) OwnerBrandID() string        { return c.BrandID }

var _ auth.TenantOwned = (*Course)(nil)

// Filter bounds a course listing. BrandID semantics are strict: an empty
// BrandID matches brand-less records only, so an organization-wide key
// never lists brand-scoped courses. AnyBrand lifts the brand filter for
// organization-internal views such as the member dashboard.
type Filter struct {
	OrganizationID string
	BrandID        string
	AnyBrand       bool
	Query          string
	Limit          int
	Offset         int
}

// Store persists courses.
type Store interface {
	Create(ctx context.Context, course *Course) error
	Update(ctx context.Context, course *Course) error
	Find(ctx context.Context, id string) (*Course, error)
	List(ctx context.Context, f Filter) ([]*Course, error)
}
