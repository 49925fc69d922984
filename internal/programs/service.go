package programs

import (
	"context"
	"strings"

	"github.com/sahyadri-hs/backoffice/internal/shared"
)

// RepositoryPort defines data access methods for programs.
type RepositoryPort interface {
	ListPrograms(ctx context.Context, filters ListFilters) ([]Program, int, error)
	GetProgram(ctx context.Context, id int64) (Program, error)
	CreateProgram(ctx context.Context, p Program) (Program, error)
	UpdateProgram(ctx context.Context, id int64, p Program) error
	DeleteProgram(ctx context.Context, id int64) error
}

// Service handles program business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListPrograms returns a page of programs with pagination metadata.
func (s *Service) ListPrograms(ctx context.Context, filters ListFilters) ([]Program, shared.Pagination, error) {
	programs, total, err := s.repo.ListPrograms(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return programs, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// GetProgram fetches one program.
func (s *Service) GetProgram(ctx context.Context, id int64) (Program, error) {
	return s.repo.GetProgram(ctx, id)
}

// CreateProgram inserts a trimmed program.
func (s *Service) CreateProgram(ctx context.Context, p Program) (Program, error) {
	normalize(&p)
	return s.repo.CreateProgram(ctx, p)
}

// UpdateProgram rewrites a program.
func (s *Service) UpdateProgram(ctx context.Context, id int64, p Program) error {
	normalize(&p)
	return s.repo.UpdateProgram(ctx, id, p)
}

// DeleteProgram removes a program.
func (s *Service) DeleteProgram(ctx context.Context, id int64) error {
	return s.repo.DeleteProgram(ctx, id)
}

func normalize(p *Program) {
	p.Name = strings.TrimSpace(p.Name)
	p.CustomerName = strings.TrimSpace(p.CustomerName)
}
