package users

import (
	"context"
	"errors"

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

// ListUsers returns all users with their assigned role, if any.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	const q = `
		SELECT u.id, u.email, u.full_name, u.is_active,
		       p.role_id, COALESCE(ro.name, ''),
		       u.created_at, u.updated_at
		FROM users u
		LEFT JOIN profiles p ON p.id = u.id
		LEFT JOIN roles ro ON ro.id = p.role_id
		ORDER BY u.id`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.IsActive, &user.RoleID, &user.RoleName, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// AssignRole writes the user's profile row with the given role. A nil
// roleID leaves the profile without a role, which denies every page.
func (r *Repository) AssignRole(ctx context.Context, userID int64, roleID *int64) error {
	const q = `
		INSERT INTO profiles (id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET role_id = EXCLUDED.role_id, updated_at = now()`
	_, err := r.pool.Exec(ctx, q, userID, roleID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return shared.ErrNotFound
		}
		return err
	}
	return nil
}
