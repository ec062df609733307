package auth

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// InMemory is a non-durable Store for development and tests. Setting
// failWith makes every lookup return that error, which simulates an
// unreachable backing store.
type InMemory struct {
	mu       sync.Mutex
	orgs     map[string]*Organization
	brands   map[string]*Brand
	keys     map[string]*APIKey
	users    map[string]*User
	failWith error
}

var _ Store = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{
		orgs:   make(map[string]*Organization),
		brands: make(map[string]*Brand),
		keys:   make(map[string]*APIKey),
		users:  make(map[string]*User),
	}
}

func (s *InMemory) Organizations() OrganizationStore { return inmemOrgs{s} }
func (s *InMemory) Brands() BrandStore               { return inmemBrands{s} }
func (s *InMemory) APIKeys() APIKeyStore             { return inmemKeys{s} }
func (s *InMemory) Users() UserStore                 { return inmemUsers{s} }

// SeedOrganization inserts an organization directly.
func (s *InMemory) SeedOrganization(org Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[org.ID] = &org
}

// SeedBrand inserts a brand directly.
func (s *InMemory) SeedBrand(b Brand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brands[b.ID] = &b
}

// SeedAPIKey inserts an API key directly, indexed by its opaque value.
func (s *InMemory) SeedAPIKey(k APIKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[k.Key] = &k
}

// SeedUser inserts a user directly.
func (s *InMemory) SeedUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

type inmemOrgs struct{ s *InMemory }

func (m inmemOrgs) Create(ctx context.Context, org *Organization) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *org
	m.s.orgs[org.ID] = &cp
	return nil
}

func (m inmemOrgs) Find(ctx context.Context, id string) (*Organization, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.failWith
	}
	org, ok := m.s.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *org
	return &cp, nil
}

func (m inmemOrgs) List(ctx context.Context) ([]*Organization, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*Organization
	for _, org := range m.s.orgs {
		cp := *org
		out = append(out, &cp)
	}
	return out, nil
}

type inmemBrands struct{ s *InMemory }

func (m inmemBrands) Create(ctx context.Context, b *Brand) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *b
	m.s.brands[b.ID] = &cp
	return nil
}

func (m inmemBrands) Find(ctx context.Context, id string) (*Brand, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.failWith
	}
	b, ok := m.s.brands[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m inmemBrands) ListByOrg(ctx context.Context, orgID string) ([]*Brand, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*Brand
	for _, b := range m.s.brands {
		if b.OrganizationID == orgID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

type inmemKeys struct{ s *InMemory }

func (m inmemKeys) Create(ctx context.Context, k *APIKey) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cp := *k
	m.s.keys[k.Key] = &cp
	return nil
}

func (m inmemKeys) FindByValue(ctx context.Context, value string) (*APIKey, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.failWith
	}
	k, ok := m.s.keys[value]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *k
	return &cp, nil
}

type inmemUsers struct{ s *InMemory }

func (m inmemUsers) Create(ctx context.Context, u *User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.users {
		if existing.Email == u.Email {
			return ErrAlreadyExists
		}
	}
	cp := *u
	m.s.users[u.ID] = &cp
	return nil
}

func (m inmemUsers) Find(ctx context.Context, id string) (*User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.failWith
	}
	u, ok := m.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m inmemUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.failWith
	}
	for _, u := range m.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m inmemUsers) SearchByOrg(ctx context.Context, orgID, query string, limit, offset int) ([]*User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failWith != nil {
		return nil, m.s.failWith
	}
	if limit <= 0 {
		limit = 10
	}
	q := strings.ToLower(query)
	var out []*User
	for _, u := range m.s.users {
		if u.OrganizationID != orgID || !u.IsActive {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(u.Name), q) &&
			!strings.Contains(strings.ToLower(u.Email), q) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m inmemUsers) UpdateProfile(ctx context.Context, u *User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Name = u.Name
	stored.FirstName = u.FirstName
	stored.LastName = u.LastName
	stored.Phone = u.Phone
	return nil
}

func (m inmemUsers) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m inmemUsers) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[userID]
	if !ok {
		return ErrNotFound
	}
	t := at
	u.LastLoginAt = &t
	return nil
}

func (m inmemUsers) Deactivate(ctx context.Context, userID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = false
	u.RefreshTokenID = ""
	return nil
}

func (m inmemUsers) ReplaceRefreshToken(ctx context.Context, userID, previousID, nextID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[userID]
	if !ok || u.RefreshTokenID != previousID {
		return ErrNotFound
	}
	u.RefreshTokenID = nextID
	return nil
}

func (m inmemUsers) ClearRefreshToken(ctx context.Context, userID, tokenID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[userID]
	if !ok || u.RefreshTokenID != tokenID {
		return ErrNotFound
	}
	u.RefreshTokenID = ""
	return nil
}
