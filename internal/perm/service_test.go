package perm

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryPermRepo struct {
	roles      map[int64]int64
	resolveErr map[int64]error
	perms      map[int64][]Permission
	loadErr    error
	saveErr    error
	loadCalls  int
	saveCalls  int
}

func newMemoryPermRepo() *memoryPermRepo {
	return &memoryPermRepo{
		roles:      make(map[int64]int64),
		resolveErr: make(map[int64]error),
		perms:      make(map[int64][]Permission),
	}
}

func (r *memoryPermRepo) LoadPermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	r.loadCalls++
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return append([]Permission(nil), r.perms[roleID]...), nil
}

func (r *memoryPermRepo) SavePermissions(ctx context.Context, roleID int64, perms []Permission) error {
	r.saveCalls++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.perms[roleID] = append([]Permission(nil), perms...)
	return nil
}

func (r *memoryPermRepo) ResolveRoleID(ctx context.Context, userID int64) (int64, error) {
	if err, ok := r.resolveErr[userID]; ok {
		return 0, err
	}
	roleID, ok := r.roles[userID]
	if !ok {
		return 0, ErrNoProfile
	}
	return roleID, nil
}

func TestEvaluateAuthorized(t *testing.T) {
	repo := newMemoryPermRepo()
	repo.roles[10] = 3
	repo.perms[3] = []Permission{
		{RoleID: 3, PageName: "/dashboard/billing", CanView: true, CanEdit: true},
	}
	svc := NewService(repo)

	ev := svc.Evaluate(context.Background(), 10, "/dashboard/billing")
	require.Equal(t, StatusAuthorized, ev.Status)
	require.Equal(t, int64(3), ev.RoleID)
	require.True(t, ev.CanView)
	require.True(t, ev.CanEdit)
}

func TestEvaluateNoProfileDeniesWithoutError(t *testing.T) {
	svc := NewService(newMemoryPermRepo())

	ev := svc.Evaluate(context.Background(), 99, "/dashboard")
	require.Equal(t, StatusUnauthorized, ev.Status)
	require.False(t, ev.CanView)
	require.False(t, ev.CanEdit)
	require.ErrorIs(t, ev.Err, ErrNoProfile)
}

func TestEvaluateNoRoleAssignedDeniesWithoutError(t *testing.T) {
	repo := newMemoryPermRepo()
	repo.resolveErr[11] = ErrNoRoleAssigned
	svc := NewService(repo)

	ev := svc.Evaluate(context.Background(), 11, "/dashboard")
	require.Equal(t, StatusUnauthorized, ev.Status)
	require.ErrorIs(t, ev.Err, ErrNoRoleAssigned)
}

func TestEvaluateStoreFailureIsErrored(t *testing.T) {
	repo := newMemoryPermRepo()
	repo.resolveErr[12] = storeErr("resolve role", errors.New("connection refused"))
	svc := NewService(repo)

	ev := svc.Evaluate(context.Background(), 12, "/dashboard")
	require.Equal(t, StatusErrored, ev.Status)
	require.True(t, IsStoreError(ev.Err))
	require.False(t, ev.CanView)
}

func TestEvaluateLoadFailureIsErrored(t *testing.T) {
	repo := newMemoryPermRepo()
	repo.roles[13] = 5
	repo.loadErr = storeErr("load permissions", errors.New("timeout"))
	svc := NewService(repo)

	ev := svc.Evaluate(context.Background(), 13, "/dashboard")
	require.Equal(t, StatusErrored, ev.Status)
	require.Equal(t, int64(5), ev.RoleID)
}

func TestCheckFailsClosed(t *testing.T) {
	repo := newMemoryPermRepo()
	repo.roles[14] = 2
	repo.loadErr = storeErr("load permissions", errors.New("down"))
	svc := NewService(repo)

	require.False(t, svc.Check(context.Background(), 14, "/dashboard", ActionView))
}

func TestPermissionsForRoleCaches(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := newMemoryPermRepo()
	repo.perms[7] = []Permission{
		{RoleID: 7, PageName: "/dashboard", CanView: true},
	}
	svc := NewService(repo, WithCache(client, time.Minute))

	ctx := context.Background()
	perms, err := svc.PermissionsForRole(ctx, 7)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	require.Equal(t, 1, repo.loadCalls)

	// Second load comes from Redis.
	perms, err = svc.PermissionsForRole(ctx, 7)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	require.Equal(t, 1, repo.loadCalls)
}

func TestSaveInvalidatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := newMemoryPermRepo()
	repo.perms[8] = []Permission{
		{RoleID: 8, PageName: "/dashboard", CanView: true},
	}
	svc := NewService(repo, WithCache(client, time.Minute))
	ctx := context.Background()

	_, err := svc.PermissionsForRole(ctx, 8)
	require.NoError(t, err)
	require.Equal(t, 1, repo.loadCalls)

	updated := []Permission{
		{RoleID: 8, PageName: "/dashboard", CanView: true, CanEdit: true},
		{RoleID: 8, PageName: "/dashboard/users", CanView: true},
	}
	require.NoError(t, svc.Save(ctx, 8, updated))

	perms, err := svc.PermissionsForRole(ctx, 8)
	require.NoError(t, err)
	require.Len(t, perms, 2)
	require.Equal(t, 2, repo.loadCalls)
}

func TestSaveRoundTripPreservesGrants(t *testing.T) {
	repo := newMemoryPermRepo()
	svc := NewService(repo)
	ctx := context.Background()

	m := NewMatrix(DefaultRegistry, 6, nil)
	m.SetView("/dashboard/billing", true)
	m.SetEdit("/dashboard/billing/entries", true)
	require.NoError(t, svc.Save(ctx, 6, m.Rows()))

	perms, err := svc.PermissionsForRole(ctx, 6)
	require.NoError(t, err)

	reloaded := NewMatrix(DefaultRegistry, 6, perms)
	require.Equal(t, m.Rows(), reloaded.Rows())
}
