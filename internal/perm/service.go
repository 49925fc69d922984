package perm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Status is the outcome of a guarded evaluation.
type Status int

const (
	// StatusAuthorized means the user may view the path.
	StatusAuthorized Status = iota
	// StatusUnauthorized means the permission set denies the path.
	StatusUnauthorized
	// StatusErrored means the store could not answer. Rendered like a
	// denial, logged separately.
	StatusErrored
)

// String names the status for logs and metric labels.
func (s Status) String() string {
	switch s {
	case StatusAuthorized:
		return "authorized"
	case StatusErrored:
		return "errored"
	default:
		return "unauthorized"
	}
}

// Evaluation is the resolved access decision for one user and path.
type Evaluation struct {
	Status  Status
	RoleID  int64
	CanView bool
	CanEdit bool
	Err     error
}

// Service resolves a user's role, loads the role's permission rows and
// evaluates paths against them. Loads for the same role are coalesced and
// optionally cached in Redis for a short period.
type Service struct {
	repo      Repository
	evaluator Evaluator
	logger    *slog.Logger
	group     singleflight.Group
	cache     *redis.Client
	cacheTTL  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithEvaluator selects the rule engine. StrictEvaluator is the default;
// LegacyEvaluator exists only for the marketing site's nav check.
func WithEvaluator(e Evaluator) Option {
	return func(s *Service) { s.evaluator = e }
}

// WithCache caches permission rows per role in Redis.
func WithCache(client *redis.Client, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = client
		s.cacheTTL = ttl
	}
}

// WithLogger sets the logger used for store failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		evaluator: StrictEvaluator{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate resolves the user's role and decides view/edit access for the
// path. A missing profile or role denies everything without erroring;
// only store failures produce StatusErrored.
func (s *Service) Evaluate(ctx context.Context, userID int64, path string) Evaluation {
	roleID, err := s.repo.ResolveRoleID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoProfile) || errors.Is(err, ErrNoRoleAssigned) {
			return Evaluation{Status: StatusUnauthorized, Err: err}
		}
		s.logger.Error("permission role resolution failed", slog.Int64("user_id", userID), slog.Any("error", err))
		return Evaluation{Status: StatusErrored, Err: err}
	}

	perms, err := s.PermissionsForRole(ctx, roleID)
	if err != nil {
		s.logger.Error("permission load failed", slog.Int64("role_id", roleID), slog.Any("error", err))
		return Evaluation{Status: StatusErrored, RoleID: roleID, Err: err}
	}

	ev := Evaluation{
		RoleID:  roleID,
		CanView: s.evaluator.Allowed(perms, path, ActionView),
		CanEdit: s.evaluator.Allowed(perms, path, ActionEdit),
	}
	if ev.CanView {
		ev.Status = StatusAuthorized
	} else {
		ev.Status = StatusUnauthorized
	}
	return ev
}

// Check answers a single path/action question for a user, failing closed
// on every error. Used for guarding links to pages other than the
// current route.
func (s *Service) Check(ctx context.Context, userID int64, path string, action Action) bool {
	ev := s.Evaluate(ctx, userID, path)
	if action == ActionEdit {
		return ev.CanEdit
	}
	return ev.CanView
}

// PermissionsForRole loads the role's rows, coalescing concurrent loads
// and consulting the cache when configured.
func (s *Service) PermissionsForRole(ctx context.Context, roleID int64) ([]Permission, error) {
	key := "role:" + strconv.FormatInt(roleID, 10)
	v, err, _ := s.group.Do(key, func() (any, error) {
		if cached, ok := s.cacheGet(ctx, roleID); ok {
			return cached, nil
		}
		perms, err := s.repo.LoadPermissions(ctx, roleID)
		if err != nil {
			return nil, err
		}
		s.cacheSet(ctx, roleID, perms)
		return perms, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Permission), nil
}

// Save replaces a role's rows and drops the cached copy.
func (s *Service) Save(ctx context.Context, roleID int64, perms []Permission) error {
	if err := s.repo.SavePermissions(ctx, roleID, perms); err != nil {
		return err
	}
	s.cacheDel(ctx, roleID)
	return nil
}

// ResolveRoleID exposes role resolution for callers that need the role
// itself, such as the matrix editor.
func (s *Service) ResolveRoleID(ctx context.Context, userID int64) (int64, error) {
	return s.repo.ResolveRoleID(ctx, userID)
}

func (s *Service) cacheKey(roleID int64) string {
	return "perm:role:" + strconv.FormatInt(roleID, 10)
}

func (s *Service) cacheGet(ctx context.Context, roleID int64) ([]Permission, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, s.cacheKey(roleID)).Bytes()
	if err != nil {
		return nil, false
	}
	var perms []Permission
	if err := json.Unmarshal(data, &perms); err != nil {
		return nil, false
	}
	return perms, true
}

func (s *Service) cacheSet(ctx context.Context, roleID int64, perms []Permission) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(perms)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cacheKey(roleID), data, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("permission cache set failed", slog.Any("error", err))
	}
}

func (s *Service) cacheDel(ctx context.Context, roleID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, s.cacheKey(roleID)).Err(); err != nil {
		s.logger.Warn("permission cache invalidation failed", slog.Any("error", err))
	}
}
