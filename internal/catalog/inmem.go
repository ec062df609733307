package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// InMemory is a Store kept in process memory. It backs handler tests and
// local development without a database.
type InMemory struct {
	mu      sync.RWMutex
	courses map[string]*Course
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{courses: make(map[string]*Course)}
}

func (s *InMemory) Create(ctx context.Context, course *Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *course
	s.courses[course.ID] = &cp
	return nil
}

func (s *InMemory) Update(ctx context.Context, course *Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[course.ID]; !ok {
		return ErrNotFound
	}
	cp := *course
	s.courses[course.ID] = &cp
	return nil
}

func (s *InMemory) Find(ctx context.Context, id string) (*Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	course, ok := s.courses[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *course
	return &cp, nil
}

func (s *InMemory) List(ctx context.Context, f Filter) ([]*Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Course
	for _, course := range s.courses {
		if !course.IsActive || course.OrganizationID != f.OrganizationID {
			continue
		}
		// Strict brand filter: empty means brand-less records only.
		if !f.AnyBrand && course.BrandID != f.BrandID {
			continue
		}
		if f.Query != "" && !matchesQuery(course, f.Query) {
			continue
		}
		cp := *course
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matchesQuery(course *Course, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(course.Title), q) ||
		strings.Contains(strings.ToLower(course.Description), q)
}
