package participants

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahyadri-hs/backoffice/internal/shared"
)

// RepositoryPort defines data access methods for participants.
type RepositoryPort interface {
	ListParticipants(ctx context.Context, filters ListFilters) ([]Participant, int, error)
	GetParticipant(ctx context.Context, id int64) (Participant, error)
	CreateParticipant(ctx context.Context, pt Participant) (Participant, error)
	UpdateParticipant(ctx context.Context, id int64, pt Participant) error
	DeleteParticipant(ctx context.Context, id int64) error
}

// Service handles participant business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListParticipants returns a page of participants with pagination metadata.
func (s *Service) ListParticipants(ctx context.Context, filters ListFilters) ([]Participant, shared.Pagination, error) {
	participants, total, err := s.repo.ListParticipants(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return participants, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// GetParticipant fetches one participant.
func (s *Service) GetParticipant(ctx context.Context, id int64) (Participant, error) {
	return s.repo.GetParticipant(ctx, id)
}

// CreateParticipant inserts a participant after normalising its fields.
func (s *Service) CreateParticipant(ctx context.Context, pt Participant) (Participant, error) {
	if err := normalize(&pt); err != nil {
		return Participant{}, err
	}
	return s.repo.CreateParticipant(ctx, pt)
}

// UpdateParticipant rewrites a participant.
func (s *Service) UpdateParticipant(ctx context.Context, id int64, pt Participant) error {
	if err := normalize(&pt); err != nil {
		return err
	}
	return s.repo.UpdateParticipant(ctx, id, pt)
}

// DeleteParticipant removes a participant.
func (s *Service) DeleteParticipant(ctx context.Context, id int64) error {
	return s.repo.DeleteParticipant(ctx, id)
}

func normalize(pt *Participant) error {
	pt.Name = strings.TrimSpace(pt.Name)
	switch pt.Type {
	case TypeResident, TypeDay:
	case "":
		pt.Type = TypeResident
	default:
		return fmt.Errorf("unknown participant type %q", pt.Type)
	}
	return nil
}
