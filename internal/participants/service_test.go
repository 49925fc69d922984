package participants

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sahyadri-hs/backoffice/internal/shared"
)

type memoryParticipantRepo struct {
	participants map[int64]Participant
	nextID       int64
}

func newMemoryParticipantRepo() *memoryParticipantRepo {
	return &memoryParticipantRepo{participants: make(map[int64]Participant)}
}

func (r *memoryParticipantRepo) ListParticipants(ctx context.Context, filters ListFilters) ([]Participant, int, error) {
	var out []Participant
	for id := int64(1); id <= r.nextID; id++ {
		pt, ok := r.participants[id]
		if !ok {
			continue
		}
		if filters.ProgramID != 0 && pt.ProgramID != filters.ProgramID {
			continue
		}
		out = append(out, pt)
	}
	return out, len(out), nil
}

func (r *memoryParticipantRepo) GetParticipant(ctx context.Context, id int64) (Participant, error) {
	pt, ok := r.participants[id]
	if !ok {
		return Participant{}, shared.ErrNotFound
	}
	return pt, nil
}

func (r *memoryParticipantRepo) CreateParticipant(ctx context.Context, pt Participant) (Participant, error) {
	r.nextID++
	pt.ID = r.nextID
	pt.CreatedAt = time.Now()
	pt.UpdatedAt = pt.CreatedAt
	r.participants[pt.ID] = pt
	return pt, nil
}

func (r *memoryParticipantRepo) UpdateParticipant(ctx context.Context, id int64, pt Participant) error {
	if _, ok := r.participants[id]; !ok {
		return shared.ErrNotFound
	}
	pt.ID = id
	r.participants[id] = pt
	return nil
}

func (r *memoryParticipantRepo) DeleteParticipant(ctx context.Context, id int64) error {
	if _, ok := r.participants[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.participants, id)
	return nil
}

func TestCreateParticipantDefaultsToResident(t *testing.T) {
	svc := NewService(newMemoryParticipantRepo())
	pt, err := svc.CreateParticipant(context.Background(), Participant{Name: " Asha ", ProgramID: 1})
	require.NoError(t, err)
	require.Equal(t, "Asha", pt.Name)
	require.Equal(t, TypeResident, pt.Type)
}

func TestCreateParticipantRejectsUnknownType(t *testing.T) {
	svc := NewService(newMemoryParticipantRepo())
	_, err := svc.CreateParticipant(context.Background(), Participant{Name: "Asha", ProgramID: 1, Type: "vip"})
	require.Error(t, err)
}

func TestListParticipantsFiltersByProgram(t *testing.T) {
	repo := newMemoryParticipantRepo()
	svc := NewService(repo)
	_, err := svc.CreateParticipant(context.Background(), Participant{Name: "Asha", ProgramID: 1})
	require.NoError(t, err)
	_, err = svc.CreateParticipant(context.Background(), Participant{Name: "Ravi", ProgramID: 2})
	require.NoError(t, err)

	participants, pagination, err := svc.ListParticipants(context.Background(), ListFilters{ProgramID: 2})
	require.NoError(t, err)
	require.Len(t, participants, 1)
	require.Equal(t, "Ravi", participants[0].Name)
	require.Equal(t, 1, pagination.Total)
}
