package auth

import (
	"context"
	"database/sql"
	"time"

	"orgaccess.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Organizations() OrganizationStore { return &orgStore{db: s.db} }
func (s *PGStore) Brands() BrandStore               { return &brandStore{db: s.db} }
func (s *PGStore) APIKeys() APIKeyStore             { return &apiKeyStore{db: s.db} }
func (s *PGStore) Users() UserStore                 { return &userStore{db: s.db} }

// Organization store -------------------------------------------------------
type orgStore struct{ db *sql.DB }

func (s *orgStore) Create(ctx context.Context, org *Organization) error {
	if org.ID == "" {
		org.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into organizations(id, name, description, is_active) values($1,$2,$3,$4)`,
		org.ID, org.Name, org.Description, org.IsActive,
	)
	return err
}

func (s *orgStore) Find(ctx context.Context, id string) (*Organization, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, description, is_active, created_at, updated_at from organizations where id=$1`, id)
	var org Organization
	if err := row.Scan(&org.ID, &org.Name, &org.Description, &org.IsActive, &org.CreatedAt, &org.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (s *orgStore) List(ctx context.Context) ([]*Organization, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, description, is_active, created_at, updated_at from organizations order by created_at asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*Organization
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Description, &org.IsActive, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &org)
	}
	return res, rows.Err()
}

// Brand store ---------------------------------------------------------------
type brandStore struct{ db *sql.DB }

func (s *brandStore) Create(ctx context.Context, brand *Brand) error {
	if brand.ID == "" {
		brand.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into brands(id, organization_id, name, is_active) values($1,$2,$3,$4)`,
		brand.ID, brand.OrganizationID, brand.Name, brand.IsActive,
	)
	return err
}

func (s *brandStore) Find(ctx context.Context, id string) (*Brand, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, organization_id, name, is_active, created_at, updated_at from brands where id=$1`, id)
	var b Brand
	if err := row.Scan(&b.ID, &b.OrganizationID, &b.Name, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *brandStore) ListByOrg(ctx context.Context, orgID string) ([]*Brand, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, organization_id, name, is_active, created_at, updated_at from brands where organization_id=$1 order by created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brands []*Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.OrganizationID, &b.Name, &b.IsActive, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		brands = append(brands, &b)
	}
	return brands, rows.Err()
}

// API key store -------------------------------------------------------------
type apiKeyStore struct{ db *sql.DB }

func (s *apiKeyStore) Create(ctx context.Context, key *APIKey) error {
	if key.ID == "" {
		key.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into api_keys(id, key, name, organization_id, brand_id, is_active, expires_at)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		key.ID, key.Key, key.Name, key.OrganizationID, nullable(key.BrandID), key.IsActive, key.ExpiresAt,
	)
	return err
}

func (s *apiKeyStore) FindByValue(ctx context.Context, value string) (*APIKey, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, key, name, organization_id, brand_id, is_active, expires_at, created_at, updated_at
		 from api_keys where key=$1`, value)
	var (
		k       APIKey
		brandID sql.NullString
		expires sql.NullTime
	)
	if err := row.Scan(&k.ID, &k.Key, &k.Name, &k.OrganizationID, &brandID, &k.IsActive, &expires, &k.CreatedAt, &k.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	k.BrandID = brandID.String
	if expires.Valid {
		t := expires.Time
		k.ExpiresAt = &t
	}
	return &k, nil
}

// User store ---------------------------------------------------------------
type userStore struct{ db *sql.DB }

const userColumns = `id, name, first_name, last_name, email, phone, password_hash, role,
	organization_id, is_active, last_login_at, refresh_token_id, created_at, updated_at`

func (s *userStore) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, name, first_name, last_name, email, phone, password_hash, role, organization_id, is_active)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		u.ID, u.Name, u.FirstName, u.LastName, u.Email, u.Phone, u.PasswordHash, u.Role, u.OrganizationID, u.IsActive,
	)
	return err
}

func (s *userStore) Find(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where email=$1`, email)
	return scanUser(row)
}

func (s *userStore) SearchByOrg(ctx context.Context, orgID, query string, limit, offset int) ([]*User, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users
		 where organization_id=$1 and is_active and (name ilike $2 or email ilike $2)
		 order by created_at limit $3 offset $4`,
		orgID, "%"+query+"%", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *userStore) UpdateProfile(ctx context.Context, u *User) error {
	res, err := s.db.ExecContext(ctx,
		`update users set name=$1, first_name=$2, last_name=$3, phone=$4, updated_at=now() where id=$5`,
		u.Name, u.FirstName, u.LastName, u.Phone, u.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *userStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set password_hash=$1, updated_at=now() where id=$2`, passwordHash, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *userStore) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`update users set last_login_at=$1, updated_at=now() where id=$2`, at, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *userStore) Deactivate(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set is_active=false, refresh_token_id=null, updated_at=now() where id=$1`, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *userStore) ReplaceRefreshToken(ctx context.Context, userID, previousID, nextID string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set refresh_token_id=$1, updated_at=now()
		 where id=$2 and coalesce(refresh_token_id,'')=$3`,
		nullable(nextID), userID, previousID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *userStore) ClearRefreshToken(ctx context.Context, userID, tokenID string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set refresh_token_id=null, updated_at=now()
		 where id=$1 and refresh_token_id=$2`, userID, tokenID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u         User
		lastLogin sql.NullTime
		refresh   sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash,
		&u.Role, &u.OrganizationID, &u.IsActive, &lastLogin, &refresh, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	u.RefreshTokenID = refresh.String
	return &u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
