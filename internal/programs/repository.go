package programs

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

// ListPrograms returns one page of programs matching the filters plus the
// total match count. Participant counts come from a join, not a column.
func (r *Repository) ListPrograms(ctx context.Context, filters ListFilters) ([]Program, int, error) {
	search := "%" + filters.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM programs WHERE name ILIKE $1 OR customer_name ILIKE $1`, search).Scan(&total); err != nil {
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
		SELECT p.id, p.name, p.customer_name, p.start_date, p.end_date,
		       count(pt.id), p.created_at, p.updated_at
		FROM programs p
		LEFT JOIN participants pt ON pt.program_id = p.id
		WHERE p.name ILIKE $1 OR p.customer_name ILIKE $1
		GROUP BY p.id
		ORDER BY p.name
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, search, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var programs []Program
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ID, &p.Name, &p.CustomerName, &p.StartDate, &p.EndDate, &p.TotalParticipants, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		programs = append(programs, p)
	}
	return programs, total, rows.Err()
}

// GetProgram fetches one program by id.
func (r *Repository) GetProgram(ctx context.Context, id int64) (Program, error) {
	const q = `
		SELECT id, name, customer_name, start_date, end_date, created_at, updated_at
		FROM programs WHERE id = $1`
	var p Program
	err := r.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Name, &p.CustomerName, &p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Program{}, shared.ErrNotFound
		}
		return Program{}, err
	}
	return p, nil
}

// CreateProgram inserts a new program.
func (r *Repository) CreateProgram(ctx context.Context, p Program) (Program, error) {
	const q = `
		INSERT INTO programs (name, customer_name, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, p.Name, p.CustomerName, p.StartDate, p.EndDate).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Program{}, mapConstraint(err)
	}
	return p, nil
}

// UpdateProgram rewrites a program row.
func (r *Repository) UpdateProgram(ctx context.Context, id int64, p Program) error {
	const q = `
		UPDATE programs SET name = $2, customer_name = $3, start_date = $4, end_date = $5, updated_at = now()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, p.Name, p.CustomerName, p.StartDate, p.EndDate)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteProgram removes a program. Programs with participants or billing
// entries are protected by foreign keys and surface as ErrInUse.
func (r *Repository) DeleteProgram(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM programs WHERE id = $1`, id)
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
