package roles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sahyadri-hs/backoffice/internal/shared"
)

type memoryRoleRepo struct {
	roles    map[int64]Role
	assigned map[int64]int
	nextID   int64
}

func newMemoryRoleRepo() *memoryRoleRepo {
	return &memoryRoleRepo{roles: make(map[int64]Role), assigned: make(map[int64]int)}
}

func (r *memoryRoleRepo) ListRoles(ctx context.Context) ([]Role, error) {
	out := make([]Role, 0, len(r.roles))
	for id := int64(1); id <= r.nextID; id++ {
		if role, ok := r.roles[id]; ok {
			out = append(out, role)
		}
	}
	return out, nil
}

func (r *memoryRoleRepo) GetRole(ctx context.Context, id int64) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return role, nil
}

func (r *memoryRoleRepo) CreateRole(ctx context.Context, name, description string) (Role, error) {
	for _, role := range r.roles {
		if role.Name == name {
			return Role{}, shared.ErrDuplicate
		}
	}
	r.nextID++
	role := Role{ID: r.nextID, Name: name, Description: description, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	r.roles[role.ID] = role
	return role, nil
}

func (r *memoryRoleRepo) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	role.Name = name
	role.Description = description
	role.UpdatedAt = time.Now()
	r.roles[id] = role
	return role, nil
}

func (r *memoryRoleRepo) DeleteRole(ctx context.Context, id int64) error {
	if _, ok := r.roles[id]; !ok {
		return shared.ErrNotFound
	}
	if r.assigned[id] > 0 {
		return shared.ErrInUse
	}
	delete(r.roles, id)
	return nil
}

func TestCreateRoleTrimsName(t *testing.T) {
	svc := NewService(newMemoryRoleRepo(), nil)
	role, err := svc.CreateRole(context.Background(), "  Manager  ", " Shift leads ")
	require.NoError(t, err)
	require.Equal(t, "Manager", role.Name)
	require.Equal(t, "Shift leads", role.Description)
}

func TestCreateRoleDuplicateName(t *testing.T) {
	svc := NewService(newMemoryRoleRepo(), nil)
	_, err := svc.CreateRole(context.Background(), "Admin", "")
	require.NoError(t, err)
	_, err = svc.CreateRole(context.Background(), "Admin", "")
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestDeleteRoleInUse(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo, nil)
	role, err := svc.CreateRole(context.Background(), "Viewer", "")
	require.NoError(t, err)

	repo.assigned[role.ID] = 2
	require.ErrorIs(t, svc.DeleteRole(context.Background(), role.ID), shared.ErrInUse)

	repo.assigned[role.ID] = 0
	require.NoError(t, svc.DeleteRole(context.Background(), role.ID))
	_, err = svc.GetRole(context.Background(), role.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestMatrixDirectoryListsRoleRefs(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo, nil)
	_, err := svc.CreateRole(context.Background(), "Owner", "")
	require.NoError(t, err)
	_, err = svc.CreateRole(context.Background(), "Admin", "")
	require.NoError(t, err)

	refs, err := MatrixDirectory{Service: svc}.ListRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.Equal(t, "Owner", refs[0].Name)
	require.Equal(t, int64(2), refs[1].ID)
}
