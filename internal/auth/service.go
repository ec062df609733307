package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"orgaccess.org/internal/ids"
)

const apiKeyPrefix = "oak_"

// Service implements the credential lifecycle around the resolver: account
// registration, login, refresh rotation, logout and password changes.
type Service struct {
	store Store
	codec *TokenCodec
	now   func() time.Time
}

// ServiceOption configures Service.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs a Service.
func NewService(store Store, codec *TokenCodec, opts ...ServiceOption) *Service {
	s := &Service{store: store, codec: codec, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Name           string
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Password       string
	OrganizationID string
}

// Register creates a user and issues the first token pair.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, TokenPair, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.OrganizationID = strings.TrimSpace(in.OrganizationID)
	if in.Name == "" || in.Email == "" || in.Password == "" || in.OrganizationID == "" {
		return nil, TokenPair{}, ErrInvalidInput
	}
	if ok, violations := CheckPasswordStrength(in.Password); !ok {
		return nil, TokenPair{}, &WeakPasswordError{Violations: violations}
	}

	if _, err := s.store.Users().FindByEmail(ctx, in.Email); err == nil {
		return nil, TokenPair{}, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, TokenPair{}, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	user := &User{
		ID:             ids.New(),
		Name:           in.Name,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		PasswordHash:   hash,
		Role:           RoleUser,
		OrganizationID: in.OrganizationID,
		IsActive:       true,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, TokenPair{}, err
	}

	pair, err := s.issueAndStore(ctx, user, "")
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// Login authenticates an email/password pair and issues fresh tokens. Any
// prior refresh token is invalidated by the rotation.
func (s *Service) Login(ctx context.Context, email, password string) (*User, TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, TokenPair{}, ErrCredentialInvalid
	}
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, TokenPair{}, ErrCredentialInvalid
		}
		return nil, TokenPair{}, err
	}
	if !user.IsActive || !VerifyPassword(user.PasswordHash, password) {
		return nil, TokenPair{}, ErrCredentialInvalid
	}

	now := s.now().UTC()
	if err := s.store.Users().UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, TokenPair{}, err
	}
	user.LastLoginAt = &now

	pair, err := s.issueAndStore(ctx, user, user.RefreshTokenID)
	if errors.Is(err, ErrNotFound) {
		// A concurrent login rotated the stored refresh token between the
		// read and the swap. Re-read for the fresh identifier and retry once.
		user, err = s.store.Users().Find(ctx, user.ID)
		if err != nil {
			return nil, TokenPair{}, err
		}
		pair, err = s.issueAndStore(ctx, user, user.RefreshTokenID)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, TokenPair{}, ErrStoreUnavailable
		}
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh rotates a refresh token: the presented token must match the single
// stored identifier for the user, and the replacement is a conditional
// update so concurrent refreshes cannot both succeed.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*User, TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken, AudienceRefresh)
	if err != nil {
		return nil, TokenPair{}, err
	}
	user, err := s.store.Users().Find(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, TokenPair{}, ErrTokenInvalid
		}
		return nil, TokenPair{}, err
	}
	if !user.IsActive {
		return nil, TokenPair{}, ErrTokenInvalid
	}
	if user.RefreshTokenID == "" || user.RefreshTokenID != claims.ID {
		return nil, TokenPair{}, ErrTokenInvalid
	}

	pair, err := s.issueAndStore(ctx, user, claims.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Lost the rotation race to a concurrent refresh.
			return nil, TokenPair{}, ErrTokenInvalid
		}
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

// Logout revokes the presented refresh token. It is idempotent: unknown or
// already-revoked tokens do not surface an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.codec.Verify(refreshToken, AudienceRefresh)
	if err != nil {
		return nil
	}
	err = s.store.Users().ClearRefreshToken(ctx, claims.Subject, claims.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// ChangePassword verifies the current password and applies the strength
// policy before storing the new hash.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.store.Users().Find(ctx, userID)
	if err != nil {
		return err
	}
	if !VerifyPassword(user.PasswordHash, current) {
		return ErrCredentialInvalid
	}
	if ok, violations := CheckPasswordStrength(next); !ok {
		return &WeakPasswordError{Violations: violations}
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.store.Users().UpdatePassword(ctx, user.ID, hash)
}

// Deactivate soft-disables the account; subsequent session resolution for
// the user fails with ErrCredentialInvalid.
func (s *Service) Deactivate(ctx context.Context, userID string) error {
	return s.store.Users().Deactivate(ctx, userID)
}

// Profile loads a user together with their organization record.
func (s *Service) Profile(ctx context.Context, userID string) (*User, *Organization, error) {
	user, err := s.store.Users().Find(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	org, err := s.store.Organizations().Find(ctx, user.OrganizationID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}
	return user, org, nil
}

// UpdateProfileInput carries the editable profile fields. Nil pointers
// leave the stored value untouched; a blank Name keeps the current one.
type UpdateProfileInput struct {
	Name      *string
	FirstName *string
	LastName  *string
	Phone     *string
}

// UpdateProfile applies the provided fields and returns the refreshed user
// with their organization record.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*User, *Organization, error) {
	user, err := s.store.Users().Find(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			user.Name = name
		}
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if err := s.store.Users().UpdateProfile(ctx, user); err != nil {
		return nil, nil, err
	}
	org, err := s.store.Organizations().Find(ctx, user.OrganizationID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}
	return user, org, nil
}

// UserInScope loads a user visible within the scope's organization. A user
// belonging to another organization reads as absent, never as forbidden.
func (s *Service) UserInScope(ctx context.Context, scope ScopeContext, id string) (*User, error) {
	user, err := s.store.Users().Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if scope.OrganizationID == "" || user.OrganizationID != scope.OrganizationID {
		return nil, ErrOutOfScope
	}
	return user, nil
}

// SearchUsers lists users of the scope's organization matching the query.
func (s *Service) SearchUsers(ctx context.Context, scope ScopeContext, query string, limit, offset int) ([]*User, error) {
	if scope.OrganizationID == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Users().SearchByOrg(ctx, scope.OrganizationID, strings.TrimSpace(query), limit, offset)
}

// Brands lists the brands of the scope's organization.
func (s *Service) Brands(ctx context.Context, scope ScopeContext) ([]*Brand, error) {
	if scope.OrganizationID == "" {
		return nil, ErrInvalidInput
	}
	return s.store.Brands().ListByOrg(ctx, scope.OrganizationID)
}

// MintAPIKeyInput describes a new API key. An empty BrandID mints an
// organization-wide, brand-less key.
type MintAPIKeyInput struct {
	Name           string
	OrganizationID string
	BrandID        string
	ExpiresAt      *time.Time
}

// MintAPIKey creates an opaque API key credential. A brand-scoped key is
// only minted when the brand belongs to the named organization.
func (s *Service) MintAPIKey(ctx context.Context, in MintAPIKeyInput) (*APIKey, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.OrganizationID = strings.TrimSpace(in.OrganizationID)
	if in.Name == "" || in.OrganizationID == "" {
		return nil, ErrInvalidInput
	}
	if in.BrandID != "" {
		brand, err := s.store.Brands().Find(ctx, in.BrandID)
		if err != nil {
			return nil, err
		}
		if brand.OrganizationID != in.OrganizationID {
			return nil, ErrInvalidInput
		}
	}
	value, err := generateKeyValue()
	if err != nil {
		return nil, err
	}
	key := &APIKey{
		ID:             ids.New(),
		Key:            value,
		Name:           in.Name,
		OrganizationID: in.OrganizationID,
		BrandID:        in.BrandID,
		IsActive:       true,
		ExpiresAt:      in.ExpiresAt,
	}
	if err := s.store.APIKeys().Create(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}

// issueAndStore mints a pair and atomically replaces the stored refresh
// token identifier, keyed on the previous value.
func (s *Service) issueAndStore(ctx context.Context, user *User, previousID string) (TokenPair, error) {
	pair, err := s.codec.Issue(user)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.Users().ReplaceRefreshToken(ctx, user.ID, previousID, pair.RefreshID); err != nil {
		return TokenPair{}, err
	}
	user.RefreshTokenID = pair.RefreshID
	return pair, nil
}

func generateKeyValue() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(buf), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
