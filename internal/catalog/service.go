package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"orgaccess.org/internal/auth"
	"orgaccess.org/internal/ids"
)

const defaultListLimit = 10

// Service applies scope enforcement on top of a Store. All tenant fields on
// stored records come from the caller's resolved scope, never from client
// input.
type Service struct {
	store Store
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
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the active courses visible to the scope. A brand-scoped key
// sees its brand's courses; an organization-wide key sees brand-less
// courses only (the Filter's strict brand semantics).
func (s *Service) List(ctx context.Context, scope auth.ScopeContext) ([]*Course, error) {
	return s.store.List(ctx, Filter{
		OrganizationID: scope.OrganizationID,
		BrandID:        scope.BrandID,
	})
}

// Search filters the visible courses by a title/description substring.
func (s *Service) Search(ctx context.Context, scope auth.ScopeContext, query string, limit, offset int) ([]*Course, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.store.List(ctx, Filter{
		OrganizationID: scope.OrganizationID,
		BrandID:        scope.BrandID,
		Query:          query,
		Limit:          limit,
		Offset:         offset,
	})
}

// Get returns a single visible course. Out-of-scope records report as
// absent so existence never leaks across tenants.
func (s *Service) Get(ctx context.Context, scope auth.ScopeContext, id string) (*Course, error) {
	course, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.visible(scope, course) {
		return nil, ErrNotFound
	}
	return course, nil
}

// CourseInput carries the client-editable course fields. Tenant ownership
// is stamped from the scope and cannot be supplied here.
type CourseInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// Create stores a new course stamped with the caller's scope.
func (s *Service) Create(ctx context.Context, scope auth.ScopeContext, in CourseInput) (*Course, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	course := &Course{
		ID:             ids.New(),
		Title:          in.Title,
		Description:    in.Description,
		Content:        in.Content,
		OrganizationID: scope.OrganizationID,
		BrandID:        scope.BrandID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// Update modifies a visible course in place. Ownership fields never change.
func (s *Service) Update(ctx context.Context, scope auth.ScopeContext, id string, in CourseInput) (*Course, error) {
	course, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if title := strings.TrimSpace(in.Title); title != "" {
		course.Title = title
	}
	if in.Description != "" {
		course.Description = in.Description
	}
	if in.Content != "" {
		course.Content = in.Content
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	course.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// Deactivate soft-deletes a visible course.
func (s *Service) Deactivate(ctx context.Context, scope auth.ScopeContext, id string) error {
	course, err := s.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	course.IsActive = false
	course.UpdatedAt = s.now().UTC()
	return s.store.Update(ctx, course)
}

// Summary aggregates an organization's catalog for the signed-in member
// dashboard: totals, the brand split and the most recently updated courses.
// Unlike API-key reads the whole organization is visible here, brand-scoped
// records included, because the caller is a member rather than an
// integration key.
type Summary struct {
	TotalCourses     int       `json:"total_courses"`
	BrandlessCourses int       `json:"brandless_courses"`
	BrandedCourses   int       `json:"branded_courses"`
	RecentlyUpdated  []*Course `json:"recently_updated"`
}

const summaryRecentLimit = 5

// Summary builds the dashboard aggregate for the scope's organization.
func (s *Service) Summary(ctx context.Context, scope auth.ScopeContext) (*Summary, error) {
	if scope.OrganizationID == "" {
		return nil, ErrInvalidInput
	}
	courses, err := s.store.List(ctx, Filter{
		OrganizationID: scope.OrganizationID,
		AnyBrand:       true,
	})
	if err != nil {
		return nil, err
	}
	sum := &Summary{TotalCourses: len(courses)}
	for _, c := range courses {
		if c.BrandID == "" {
			sum.BrandlessCourses++
		} else {
			sum.BrandedCourses++
		}
	}
	sort.Slice(courses, func(i, j int) bool {
		return courses[i].UpdatedAt.After(courses[j].UpdatedAt)
	})
	if len(courses) > summaryRecentLimit {
		courses = courses[:summaryRecentLimit]
	}
	sum.RecentlyUpdated = courses
	if sum.RecentlyUpdated == nil {
		sum.RecentlyUpdated = []*Course{}
	}
	return sum, nil
}

// visible mirrors the listing rules for single-record reads: the guard
// check plus the strict brand-less filter for organization-wide scopes.
func (s *Service) visible(scope auth.ScopeContext, course *Course) bool {
	if !course.IsActive {
		return false
	}
	if !auth.Authorize(scope, course) {
		return false
	}
	if !scope.BrandScoped() && course.BrandID != "" {
		return false
	}
	return true
}

// IsNotFound reports whether the error means "absent or out of scope".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
