package participants

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

// ListParticipants returns one page of participants plus the total count.
func (r *Repository) ListParticipants(ctx context.Context, filters ListFilters) ([]Participant, int, error) {
	search := "%" + filters.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM participants
		WHERE name ILIKE $1 AND ($2 = 0 OR program_id = $2)`, search, filters.ProgramID).Scan(&total); err != nil {
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
		SELECT pt.id, pt.program_id, p.name, pt.name, pt.type,
		       pt.check_in, pt.check_out, pt.created_at, pt.updated_at
		FROM participants pt
		JOIN programs p ON p.id = pt.program_id
		WHERE pt.name ILIKE $1 AND ($2 = 0 OR pt.program_id = $2)
		ORDER BY pt.name
		LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, q, search, filters.ProgramID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var pt Participant
		if err := rows.Scan(&pt.ID, &pt.ProgramID, &pt.ProgramName, &pt.Name, &pt.Type, &pt.CheckIn, &pt.CheckOut, &pt.CreatedAt, &pt.UpdatedAt); err != nil {
			return nil, 0, err
		}
		participants = append(participants, pt)
	}
	return participants, total, rows.Err()
}

// GetParticipant fetches one participant by id.
func (r *Repository) GetParticipant(ctx context.Context, id int64) (Participant, error) {
	const q = `
		SELECT pt.id, pt.program_id, p.name, pt.name, pt.type,
		       pt.check_in, pt.check_out, pt.created_at, pt.updated_at
		FROM participants pt
		JOIN programs p ON p.id = pt.program_id
		WHERE pt.id = $1`
	var pt Participant
	err := r.pool.QueryRow(ctx, q, id).Scan(&pt.ID, &pt.ProgramID, &pt.ProgramName, &pt.Name, &pt.Type, &pt.CheckIn, &pt.CheckOut, &pt.CreatedAt, &pt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Participant{}, shared.ErrNotFound
		}
		return Participant{}, err
	}
	return pt, nil
}

// CreateParticipant inserts a new participant.
func (r *Repository) CreateParticipant(ctx context.Context, pt Participant) (Participant, error) {
	const q = `
		INSERT INTO participants (program_id, name, type, check_in, check_out)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, pt.ProgramID, pt.Name, pt.Type, pt.CheckIn, pt.CheckOut).Scan(&pt.ID, &pt.CreatedAt, &pt.UpdatedAt)
	if err != nil {
		return Participant{}, mapConstraint(err)
	}
	return pt, nil
}

// UpdateParticipant rewrites a participant row.
func (r *Repository) UpdateParticipant(ctx context.Context, id int64, pt Participant) error {
	const q = `
		UPDATE participants SET program_id = $2, name = $3, type = $4, check_in = $5, check_out = $6, updated_at = now()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, pt.ProgramID, pt.Name, pt.Type, pt.CheckIn, pt.CheckOut)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteParticipant removes a participant.
func (r *Repository) DeleteParticipant(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM participants WHERE id = $1`, id)
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
