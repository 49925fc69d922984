package roles

import (
	"context"
	"strconv"
	"strings"

	"github.com/sahyadri-hs/backoffice/internal/perm"
	"github.com/sahyadri-hs/backoffice/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	GetRole(ctx context.Context, id int64) (Role, error)
	CreateRole(ctx context.Context, name, description string) (Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string) (Role, error)
	DeleteRole(ctx context.Context, id int64) error
}

// Service handles role business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance. The audit logger may be nil.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) auditRecord(ctx context.Context, action string, roleID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   "role",
		EntityID: strconv.FormatInt(roleID, 10),
		Meta:     meta,
	})
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches one role.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a role after trimming its name.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	role, err := s.repo.CreateRole(ctx, strings.TrimSpace(name), strings.TrimSpace(description))
	if err != nil {
		return Role{}, err
	}
	s.auditRecord(ctx, "role.create", role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// UpdateRole renames a role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	role, err := s.repo.UpdateRole(ctx, id, strings.TrimSpace(name), strings.TrimSpace(description))
	if err != nil {
		return Role{}, err
	}
	s.auditRecord(ctx, "role.update", role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// DeleteRole removes an unassigned role.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.auditRecord(ctx, "role.delete", id, nil)
	return nil
}

// MatrixDirectory adapts the role list to the permission matrix role
// picker.
type MatrixDirectory struct {
	Service *Service
}

// ListRoles implements perm.RoleDirectory.
func (d MatrixDirectory) ListRoles(ctx context.Context) ([]perm.RoleRef, error) {
	roles, err := d.Service.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]perm.RoleRef, len(roles))
	for i, role := range roles {
		refs[i] = perm.RoleRef{ID: role.ID, Name: role.Name}
	}
	return refs, nil
}
