package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"orgaccess.org/internal/catalog"
)

func courseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "content", "organization_id", "brand_id", "is_active", "created_at", "updated_at",
	})
}

func TestListUsesStrictBrandFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`select id, title, description, content.*coalesce\(brand_id,''\)`).
		WithArgs("org-1", "").
		WillReturnRows(courseRows().AddRow("c3", "Acme Handbook", "", "", "org-1", nil, true, now, now))

	store := NewStore(db)
	courses, err := store.List(context.Background(), catalog.Filter{OrganizationID: "org-1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(courses) != 1 || courses[0].ID != "c3" {
		t.Fatalf("unexpected result: %+v", courses)
	}
	if courses[0].BrandID != "" {
		t.Fatalf("null brand_id must map to empty BrandID")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListBrandScopedQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`select id, title, description, content`).
		WithArgs("org-1", "brand-1", "%onboarding%", 5).
		WillReturnRows(courseRows().AddRow("c1", "North Onboarding", "", "", "org-1", "brand-1", true, now, now))

	store := NewStore(db)
	courses, err := store.List(context.Background(), catalog.Filter{
		OrganizationID: "org-1",
		BrandID:        "brand-1",
		Query:          "onboarding",
		Limit:          5,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(courses) != 1 || courses[0].BrandID != "brand-1" {
		t.Fatalf("unexpected result: %+v", courses)
	}
}

func TestFindAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`select id, title, description, content`).
		WithArgs("missing").
		WillReturnRows(courseRows())

	store := NewStore(db)
	if _, err := store.Find(context.Background(), "missing"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected catalog.ErrNotFound, got %v", err)
	}
}

func TestUpdateMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`update courses set title`).
		WithArgs("T", "", "", true, sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewStore(db)
	err = store.Update(context.Background(), &catalog.Course{ID: "missing", Title: "T", IsActive: true})
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("expected catalog.ErrNotFound, got %v", err)
	}
}
