package programs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sahyadri-hs/backoffice/internal/shared"
)

type memoryProgramRepo struct {
	programs map[int64]Program
	nextID   int64
}

func newMemoryProgramRepo() *memoryProgramRepo {
	return &memoryProgramRepo{programs: make(map[int64]Program)}
}

func (r *memoryProgramRepo) ListPrograms(ctx context.Context, filters ListFilters) ([]Program, int, error) {
	var out []Program
	for id := int64(1); id <= r.nextID; id++ {
		if p, ok := r.programs[id]; ok {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (r *memoryProgramRepo) GetProgram(ctx context.Context, id int64) (Program, error) {
	p, ok := r.programs[id]
	if !ok {
		return Program{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryProgramRepo) CreateProgram(ctx context.Context, p Program) (Program, error) {
	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.programs[p.ID] = p
	return p, nil
}

func (r *memoryProgramRepo) UpdateProgram(ctx context.Context, id int64, p Program) error {
	if _, ok := r.programs[id]; !ok {
		return shared.ErrNotFound
	}
	p.ID = id
	r.programs[id] = p
	return nil
}

func (r *memoryProgramRepo) DeleteProgram(ctx context.Context, id int64) error {
	if _, ok := r.programs[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.programs, id)
	return nil
}

func TestCreateProgramTrimsFields(t *testing.T) {
	svc := NewService(newMemoryProgramRepo())
	p, err := svc.CreateProgram(context.Background(), Program{Name: "  Summer Mess  ", CustomerName: " Acme Corp "})
	require.NoError(t, err)
	require.Equal(t, "Summer Mess", p.Name)
	require.Equal(t, "Acme Corp", p.CustomerName)
	require.NotZero(t, p.ID)
}

func TestListProgramsPagination(t *testing.T) {
	repo := newMemoryProgramRepo()
	svc := NewService(repo)
	for i := 0; i < 3; i++ {
		_, err := svc.CreateProgram(context.Background(), Program{Name: "Program"})
		require.NoError(t, err)
	}

	programs, pagination, err := svc.ListPrograms(context.Background(), ListFilters{Page: 1, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, programs, 3)
	require.Equal(t, 3, pagination.Total)
	require.Equal(t, 2, pagination.TotalPages)
}

func TestUpdateMissingProgram(t *testing.T) {
	svc := NewService(newMemoryProgramRepo())
	err := svc.UpdateProgram(context.Background(), 42, Program{Name: "Ghost"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
