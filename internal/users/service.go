package users

import (
	"context"
	"strconv"

	"github.com/sahyadri-hs/backoffice/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	AssignRole(ctx context.Context, userID int64, roleID *int64) error
}

// Service handles user business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance. The audit logger may be nil.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// AssignRole sets or clears the role on a user's profile.
func (s *Service) AssignRole(ctx context.Context, userID int64, roleID *int64) error {
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return err
	}
	if s.audit != nil {
		meta := map[string]any{}
		if roleID != nil {
			meta["role_id"] = *roleID
		}
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  shared.ActorFromContext(ctx),
			Action:   "user.assign_role",
			Entity:   "user",
			EntityID: strconv.FormatInt(userID, 10),
			Meta:     meta,
		})
	}
	return nil
}
