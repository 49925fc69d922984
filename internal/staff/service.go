package staff

import (
	"context"
	"strings"

	"github.com/sahyadri-hs/backoffice/internal/shared"
)

// RepositoryPort defines data access methods for staff.
type RepositoryPort interface {
	ListStaff(ctx context.Context, filters ListFilters) ([]Member, int, error)
	GetMember(ctx context.Context, id int64) (Member, error)
	CreateMember(ctx context.Context, m Member) (Member, error)
	UpdateMember(ctx context.Context, id int64, m Member) error
	DeleteMember(ctx context.Context, id int64) error
}

// Service handles staff business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListStaff returns a page of staff members with pagination metadata.
func (s *Service) ListStaff(ctx context.Context, filters ListFilters) ([]Member, shared.Pagination, error) {
	members, total, err := s.repo.ListStaff(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return members, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// GetMember fetches one staff member.
func (s *Service) GetMember(ctx context.Context, id int64) (Member, error) {
	return s.repo.GetMember(ctx, id)
}

// CreateMember inserts a trimmed staff member.
func (s *Service) CreateMember(ctx context.Context, m Member) (Member, error) {
	normalize(&m)
	return s.repo.CreateMember(ctx, m)
}

// UpdateMember rewrites a staff member.
func (s *Service) UpdateMember(ctx context.Context, id int64, m Member) error {
	normalize(&m)
	return s.repo.UpdateMember(ctx, id, m)
}

// DeleteMember removes a staff member.
func (s *Service) DeleteMember(ctx context.Context, id int64) error {
	return s.repo.DeleteMember(ctx, id)
}

func normalize(m *Member) {
	m.Name = strings.TrimSpace(m.Name)
	m.Designation = strings.TrimSpace(m.Designation)
	m.Organisation = strings.TrimSpace(m.Organisation)
}
