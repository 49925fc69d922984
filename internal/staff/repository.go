package staff

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sahyadri-hs/backoffice/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListStaff returns one page of staff members plus the total count.
func (r *Repository) ListStaff(ctx context.Context, filters ListFilters) ([]Member, int, error) {
	search := "%" + filters.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM staff WHERE name ILIKE $1 OR organisation ILIKE $1`, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filters.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	const q = `
		SELECT id, name, designation, organisation, created_at, updated_at
		FROM staff
		WHERE name ILIKE $1 OR organisation ILIKE $1
		ORDER BY name
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, search, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Designation, &m.Organisation, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, err
		}
		members = append(members, m)
	}
	return members, total, rows.Err()
}

// GetMember fetches one staff member by id.
func (r *Repository) GetMember(ctx context.Context, id int64) (Member, error) {
	const q = `SELECT id, name, designation, organisation, created_at, updated_at FROM staff WHERE id = $1`
	var m Member
	err := r.pool.QueryRow(ctx, q, id).Scan(&m.ID, &m.Name, &m.Designation, &m.Organisation, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, shared.ErrNotFound
		}
		return Member{}, err
	}
	return m, nil
}

// CreateMember inserts a new staff member.
func (r *Repository) CreateMember(ctx context.Context, m Member) (Member, error) {
	const q = `
		INSERT INTO staff (name, designation, organisation)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, m.Name, m.Designation, m.Organisation).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return Member{}, mapConstraint(err)
	}
	return m, nil
}

// UpdateMember rewrites a staff row.
func (r *Repository) UpdateMember(ctx context.Context, id int64, m Member) error {
	const q = `
		UPDATE staff SET name = $2, designation = $3, organisation = $4, updated_at = now()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, m.Name, m.Designation, m.Organisation)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteMember removes a staff member.
func (r *Repository) DeleteMember(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return shared.ErrDuplicate
		case "23503":
			return shared.ErrInUse
		}
	}
	return err
}
