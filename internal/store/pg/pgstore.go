package pg

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"orgaccess.org/internal/catalog"
)

// Store implements catalog.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ catalog.Store = (*Store)(nil)

// Open connects with tuned pool defaults; adjust under load tests.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection pool.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const courseColumns = `id, title, description, content, organization_id, brand_id, is_active, created_at, updated_at`

func (s *Store) Create(ctx context.Context, course *catalog.Course) error {
	_, err := s.db.ExecContext(ctx,
		`insert into courses(id, title, description, content, organization_id, brand_id, is_active, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		course.ID, course.Title, course.Description, course.Content,
		course.OrganizationID, nullable(course.BrandID), course.IsActive,
		course.CreatedAt, course.UpdatedAt,
	)
	return err
}

func (s *Store) Update(ctx context.Context, course *catalog.Course) error {
	res, err := s.db.ExecContext(ctx,
		`update courses set title=$1, description=$2, content=$3, is_active=$4, updated_at=$5 where id=$6`,
		course.Title, course.Description, course.Content, course.IsActive, course.UpdatedAt, course.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (s *Store) Find(ctx context.Context, id string) (*catalog.Course, error) {
	row := s.db.QueryRowContext(ctx, `select `+courseColumns+` from courses where id=$1`, id)
	course, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	return course, err
}

// List applies the strict brand filter in the query itself: an empty
// BrandID matches `brand_id is null` only, unless AnyBrand lifts it.
func (s *Store) List(ctx context.Context, f catalog.Filter) ([]*catalog.Course, error) {
	query := `select ` + courseColumns + ` from courses
		where organization_id=$1 and is_active`
	args := []any{f.OrganizationID}
	if !f.AnyBrand {
		args = append(args, f.BrandID)
		query += ` and coalesce(brand_id,'')=$` + strconv.Itoa(len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		n := strconv.Itoa(len(args))
		query += ` and (title ilike $` + n + ` or description ilike $` + n + `)`
	}
	query += ` order by created_at asc`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += ` limit $` + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += ` offset $` + strconv.Itoa(len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []*catalog.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*catalog.Course, error) {
	var (
		c       catalog.Course
		brandID sql.NullString
	)
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Content,
		&c.OrganizationID, &brandID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.BrandID = brandID.String
	return &c, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
