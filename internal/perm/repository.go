package perm

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sahyadri-hs/backoffice/internal/platform/db"
)

// Repository is the permission store adapter.
type Repository interface {
	// LoadPermissions fetches every row for a role. A role with no rows
	// yields an empty slice, not an error.
	LoadPermissions(ctx context.Context, roleID int64) ([]Permission, error)
	// SavePermissions replaces the role's rows: delete all, then insert
	// the rows holding at least one grant. Runs in one transaction.
	SavePermissions(ctx context.Context, roleID int64, perms []Permission) error
	// ResolveRoleID maps a user to their assigned role via the profiles
	// table. Returns ErrNoProfile or ErrNoRoleAssigned accordingly.
	ResolveRoleID(ctx context.Context, userID int64) (int64, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// LoadPermissions fetches all permission rows for a role.
func (r *PGRepository) LoadPermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, role_id, page_name, can_view, can_edit FROM permissions WHERE role_id = $1 ORDER BY page_name`, roleID)
	if err != nil {
		return nil, storeErr("load permissions", err)
	}
	defer rows.Close()
	perms := make([]Permission, 0)
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.RoleID, &p.PageName, &p.CanView, &p.CanEdit); err != nil {
			return nil, storeErr("scan permission", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("load permissions", err)
	}
	return perms, nil
}

// SavePermissions replaces all rows for a role inside one transaction, so
// a failure between delete and insert never leaves the role stripped.
func (r *PGRepository) SavePermissions(ctx context.Context, roleID int64, perms []Permission) error {
	filtered := dedupeByPage(ValidateHierarchy(perms))
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		if len(filtered) == 0 {
			return nil
		}
		inserts := make([][]any, 0, len(filtered))
		for _, p := range filtered {
			inserts = append(inserts, []any{roleID, p.PageName, p.CanView, p.CanEdit})
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"permissions"},
			[]string{"role_id", "page_name", "can_view", "can_edit"},
			pgx.CopyFromRows(inserts),
		)
		return err
	})
	if err != nil {
		return storeErr("save permissions", err)
	}
	return nil
}

// ResolveRoleID looks up the caller's profile to find their role.
func (r *PGRepository) ResolveRoleID(ctx context.Context, userID int64) (int64, error) {
	var roleID *int64
	err := r.pool.QueryRow(ctx, `SELECT role_id FROM profiles WHERE id = $1`, userID).Scan(&roleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNoProfile
		}
		return 0, storeErr("resolve role", err)
	}
	if roleID == nil {
		return 0, ErrNoRoleAssigned
	}
	return *roleID, nil
}

// dedupeByPage keeps rows with at least one grant, last write per page
// name winning, so the unique (role_id, page_name) constraint holds.
func dedupeByPage(perms []Permission) []Permission {
	seen := make(map[string]int, len(perms))
	out := make([]Permission, 0, len(perms))
	for _, p := range perms {
		if p.Empty() {
			continue
		}
		if p.CanEdit {
			p.CanView = true
		}
		if i, dup := seen[p.PageName]; dup {
			out[i] = p
			continue
		}
		seen[p.PageName] = len(out)
		out = append(out, p)
	}
	return out
}

var _ Repository = (*PGRepository)(nil)
