package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGFindAPIKeyByValue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "key", "name", "organization_id", "brand_id", "is_active", "expires_at", "created_at", "updated_at"}).
		AddRow("k1", "oak_abc", "integration", "org-1", nil, true, nil, now, now)
	mock.ExpectQuery("select id, key, name, organization_id, brand_id, is_active, expires_at").
		WithArgs("oak_abc").WillReturnRows(rows)

	store := NewPGStore(db)
	key, err := store.APIKeys().FindByValue(context.Background(), "oak_abc")
	if err != nil {
		t.Fatalf("FindByValue: %v", err)
	}
	if key.OrganizationID != "org-1" {
		t.Fatalf("unexpected organization: %q", key.OrganizationID)
	}
	if key.BrandID != "" {
		t.Fatalf("null brand_id must map to empty BrandID, got %q", key.BrandID)
	}
	if key.ExpiresAt != nil {
		t.Fatalf("null expires_at must map to nil, got %v", key.ExpiresAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGFindAPIKeyAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select id, key, name, organization_id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "key", "name", "organization_id", "brand_id", "is_active", "expires_at", "created_at", "updated_at"}))

	store := NewPGStore(db)
	if _, err := store.APIKeys().FindByValue(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGReplaceRefreshTokenConditional(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	store := NewPGStore(db)

	mock.ExpectExec("update users set refresh_token_id").
		WithArgs("next-id", "user-1", "prev-id").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := store.Users().ReplaceRefreshToken(context.Background(), "user-1", "prev-id", "next-id"); err != nil {
		t.Fatalf("ReplaceRefreshToken: %v", err)
	}

	// A concurrent rotation already replaced the identifier: zero rows
	// match the conditional update and the caller sees ErrNotFound.
	mock.ExpectExec("update users set refresh_token_id").
		WithArgs("other-id", "user-1", "prev-id").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := store.Users().ReplaceRefreshToken(context.Background(), "user-1", "prev-id", "other-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for lost race, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGFindUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "name", "first_name", "last_name", "email", "phone", "password_hash", "role",
		"organization_id", "is_active", "last_login_at", "refresh_token_id", "created_at", "updated_at",
	}).AddRow("user-1", "Dana", "", "", "dana@example.com", "", "hash", "user", "org-1", true, nil, nil, now, now)
	mock.ExpectQuery("select id, name, first_name, last_name, email").
		WithArgs("user-1").WillReturnRows(rows)

	store := NewPGStore(db)
	user, err := store.Users().Find(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if user.Email != "dana@example.com" || user.OrganizationID != "org-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.LastLoginAt != nil || user.RefreshTokenID != "" {
		t.Fatalf("null columns must map to zero values: %+v", user)
	}
}
