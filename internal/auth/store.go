package auth

import (
	"context"
	"time"
)

// Store describes persistence operations required by the auth subsystem.
// Lookups return ErrNotFound for absent records; implementations never
// signal absence through transport errors so the resolver can map it
// uniformly.
type Store interface {
	Organizations() OrganizationStore
	Brands() BrandStore
	APIKeys() APIKeyStore
	Users() UserStore
}

// OrganizationStore manages organizations. Name uniqueness is enforced by
// the backing store.
type OrganizationStore interface {
	Create(ctx context.Context, org *Organization) error
	Find(ctx context.Context, id string) (*Organization, error)
	List(ctx context.Context) ([]*Organization, error)
}

// BrandStore manages brands.
type BrandStore interface {
	Create(ctx context.Context, brand *Brand) error
	Find(ctx context.Context, id string) (*Brand, error)
	ListByOrg(ctx context.Context, orgID string) ([]*Brand, error)
}

// APIKeyStore manages long-lived bearer credentials.
type APIKeyStore interface {
	Create(ctx context.Context, key *APIKey) error
	FindByValue(ctx context.Context, key string) (*APIKey, error)
}

// UserStore manages users. Email uniqueness is enforced by the backing
// store.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	SearchByOrg(ctx context.Context, orgID, query string, limit, offset int) ([]*User, error)
	UpdateProfile(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	Deactivate(ctx context.Context, userID string) error

	// ReplaceRefreshToken swaps the user's stored refresh token identifier
	// as a single conditional update keyed on the previous value. It
	// returns ErrNotFound when the stored identifier no longer equals
	// previousID, which is how a lost rotation race surfaces.
	ReplaceRefreshToken(ctx context.Context, userID, previousID, nextID string) error

	// ClearRefreshToken revokes the identifier if it is still current.
	ClearRefreshToken(ctx context.Context, userID, tokenID string) error
}
