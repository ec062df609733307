package auth

import "time"

// Roles assignable to users. The set is closed; anything else is rejected
// at registration time.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Organization is the tenant root. Every brand, user, API key and owned
// record belongs to exactly one organization.
type Organization struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Brand is an optional sub-tenant scope owned by exactly one organization.
type Brand struct {
	ID             string
	OrganizationID string
	Name           string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// APIKey is a long-lived bearer credential tied to an organization and,
// optionally, one of its brands. An empty BrandID means the key carries
// organization-wide, brand-less scope.
type APIKey struct {
	ID             string
	Key            string
	Name           string
	OrganizationID string
	BrandID        string
	IsActive       bool
	ExpiresAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// User is a principal belonging to exactly one organization.
//
// RefreshTokenID holds the jti of the single currently valid refresh token;
// issuing a new pair replaces it, which invalidates the prior token.
type User struct {
	ID             string
	Name           string
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	PasswordHash   string
	Role           string
	OrganizationID string
	IsActive       bool
	LastLoginAt    *time.Time
	RefreshTokenID string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
