package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const bearerPrefix = "Bearer "

// Resolver derives a ScopeContext from a raw Authorization header. Each
// credential scheme has its own entry point; the resolver never guesses,
// callers pick the scheme.
type Resolver struct {
	store Store
	codec *TokenCodec
	now   func() time.Time
}

// ResolverOption configures Resolver.
type ResolverOption func(*Resolver)

// WithResolverClock overrides the time source (useful for tests).
func WithResolverClock(fn func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewResolver constructs a Resolver. The codec may be nil when only API-key
// resolution is needed.
func NewResolver(store Store, codec *TokenCodec, opts ...ResolverOption) *Resolver {
	r := &Resolver{store: store, codec: codec, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveAPIKey validates a raw API key and builds an organization (and
// optionally brand) scope from the stored record's fields. It never touches
// the token codec or password verifier.
//
// Not-found and inactive keys both yield ErrCredentialInvalid so the
// response cannot be used as an existence oracle.
func (r *Resolver) ResolveAPIKey(ctx context.Context, header string) (ScopeContext, error) {
	raw, ok := bearerValue(header)
	if !ok {
		return ScopeContext{}, ErrCredentialMissing
	}

	key, err := r.store.APIKeys().FindByValue(ctx, raw)
	if err != nil {
		return ScopeContext{}, r.lookupFailure(ctx, err)
	}
	if !key.IsActive {
		return ScopeContext{}, ErrCredentialInvalid
	}
	if key.ExpiresAt != nil && r.now().After(*key.ExpiresAt) {
		return ScopeContext{}, ErrCredentialExpired
	}

	// BrandID is copied verbatim from the stored record, never re-derived.
	scope := ScopeContext{
		OrganizationID: key.OrganizationID,
		BrandID:        key.BrandID,
	}
	if err := r.enrich(ctx, &scope); err != nil {
		return ScopeContext{}, err
	}
	return scope, nil
}

// ResolveSession verifies a session token and builds a user scope. Sessions
// are never brand-scoped. Signature failures and token expiry are merged
// into ErrCredentialInvalid at this boundary.
func (r *Resolver) ResolveSession(ctx context.Context, header string) (ScopeContext, error) {
	raw, ok := bearerValue(header)
	if !ok {
		return ScopeContext{}, ErrCredentialMissing
	}
	if r.codec == nil {
		return ScopeContext{}, ErrCredentialInvalid
	}

	claims, err := r.codec.Verify(raw, AudienceAccess)
	if err != nil {
		return ScopeContext{}, ErrCredentialInvalid
	}

	user, err := r.store.Users().Find(ctx, claims.Subject)
	if err != nil {
		return ScopeContext{}, r.lookupFailure(ctx, err)
	}
	if !user.IsActive {
		return ScopeContext{}, ErrCredentialInvalid
	}

	scope := ScopeContext{
		OrganizationID: user.OrganizationID,
		UserID:         user.ID,
		Role:           user.Role,
	}
	if err := r.enrich(ctx, &scope); err != nil {
		return ScopeContext{}, err
	}
	return scope, nil
}

// ResolveSessionOptional is the non-failing variant of ResolveSession: any
// resolution failure means "continue without a scope" rather than halting
// the request.
func (r *Resolver) ResolveSessionOptional(ctx context.Context, header string) (ScopeContext, bool) {
	scope, err := r.ResolveSession(ctx, header)
	if err != nil {
		return ScopeContext{}, false
	}
	return scope, true
}

// enrich attaches the raw organization/brand records for response
// enrichment. A brand row pointing at a different organization means the
// store invariant is broken, so resolution fails closed.
func (r *Resolver) enrich(ctx context.Context, scope *ScopeContext) error {
	org, err := r.store.Organizations().Find(ctx, scope.OrganizationID)
	switch {
	case err == nil:
		scope.Organization = org
	case !errors.Is(err, ErrNotFound):
		return r.lookupFailure(ctx, err)
	}

	if scope.BrandID == "" {
		return nil
	}
	brand, err := r.store.Brands().Find(ctx, scope.BrandID)
	switch {
	case err == nil:
		if brand.OrganizationID != scope.OrganizationID {
			return ErrCredentialInvalid
		}
		scope.Brand = brand
	case !errors.Is(err, ErrNotFound):
		return r.lookupFailure(ctx, err)
	}
	return nil
}

// lookupFailure maps a store error: absence becomes ErrCredentialInvalid,
// cancellation propagates as-is, anything else is a transient store fault.
func (r *Resolver) lookupFailure(ctx context.Context, err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrCredentialInvalid
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

func bearerValue(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	value := strings.TrimSpace(header[len(bearerPrefix):])
	if value == "" {
		return "", false
	}
	return value, true
}
