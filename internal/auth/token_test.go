package auth

import (
	"errors"
	"testing"
	"time"
)

func testUser() *User {
	return &User{
		ID:             "user-1",
		Email:          "dana@example.com",
		Role:           RoleUser,
		OrganizationID: "org-1",
		IsActive:       true,
	}
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	codec, err := NewTokenCodec("test-secret")
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	pair, err := codec.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if pair.RefreshID == "" {
		t.Fatalf("expected refresh id")
	}

	claims, err := codec.Verify(pair.AccessToken, AudienceAccess)
	if err != nil {
		t.Fatalf("Verify access: %v", err)
	}
	if claims.Subject != "user-1" || claims.OrganizationID != "org-1" || claims.Role != RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	refreshClaims, err := codec.Verify(pair.RefreshToken, AudienceRefresh)
	if err != nil {
		t.Fatalf("Verify refresh: %v", err)
	}
	if refreshClaims.ID != pair.RefreshID {
		t.Fatalf("refresh jti mismatch: %s != %s", refreshClaims.ID, pair.RefreshID)
	}
}

func TestAudienceConfusionRejected(t *testing.T) {
	codec, err := NewTokenCodec("test-secret")
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	pair, err := codec.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := codec.Verify(pair.AccessToken, AudienceRefresh); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("access token accepted as refresh: %v", err)
	}
	if _, err := codec.Verify(pair.RefreshToken, AudienceAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh token accepted as access: %v", err)
	}
}

func TestExpiredTokenReportsExpiry(t *testing.T) {
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	current := issued
	codec, err := NewTokenCodec("test-secret",
		WithAccessTTL(time.Hour),
		WithCodecClock(func() time.Time { return current }),
	)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	pair, err := codec.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	current = issued.Add(2 * time.Hour)
	if _, err := codec.Verify(pair.AccessToken, AudienceAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	// The refresh token is still inside its longer lifetime.
	if _, err := codec.Verify(pair.RefreshToken, AudienceRefresh); err != nil {
		t.Fatalf("refresh token should still verify: %v", err)
	}
}

func TestTamperedTokenInvalid(t *testing.T) {
	codec, err := NewTokenCodec("test-secret")
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	pair, err := codec.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	tampered := pair.AccessToken[:len(pair.AccessToken)-2] + "xx"
	if _, err := codec.Verify(tampered, AudienceAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := codec.Verify("not-a-token", AudienceAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for malformed input, got %v", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	issuer, err := NewTokenCodec("secret-a")
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	verifier, err := NewTokenCodec("secret-b")
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	pair, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(pair.AccessToken, AudienceAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestNewTokenCodecRequiresSecret(t *testing.T) {
	if _, err := NewTokenCodec("  "); err == nil {
		t.Fatalf("expected error for blank secret")
	}
}
