package perm

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sahyadri-hs/backoffice/internal/shared"
	"github.com/sahyadri-hs/backoffice/internal/view"
)

type evaluationContextKey struct{}

// ContextWithEvaluation stores a resolved evaluation in the context so
// handlers and templates can hide edit-only controls on a page the view
// guard already admitted.
func ContextWithEvaluation(ctx context.Context, ev Evaluation) context.Context {
	return context.WithValue(ctx, evaluationContextKey{}, ev)
}

// EvaluationFromContext returns the evaluation stored by a guard, or a
// deny-all zero value when no guard ran.
func EvaluationFromContext(ctx context.Context) Evaluation {
	ev, ok := ctx.Value(evaluationContextKey{}).(Evaluation)
	if !ok {
		return Evaluation{Status: StatusUnauthorized}
	}
	return ev
}

// DecisionRecorder counts guard outcomes, typically backed by a
// Prometheus counter.
type DecisionRecorder interface {
	RecordDecision(status string)
}

// Middleware wires page guards for HTTP handlers. Every guard evaluates
// the shared rule engine, so routing-boundary checks and template checks
// can never drift apart.
type Middleware struct {
	Service   *Service
	Logger    *slog.Logger
	Templates *view.Engine
	Recorder  DecisionRecorder
}

// GuardOption adjusts a page guard.
type GuardOption func(*guardConfig)

type guardConfig struct {
	requireEdit bool
}

// WithEdit additionally requires the edit grant.
func WithEdit() GuardOption {
	return func(c *guardConfig) { c.requireEdit = true }
}

// RequirePage admits the request only when the current user may view the
// given registry path. Unauthenticated users are redirected to the login
// page; denials and store failures render the same limited-access page,
// with store failures logged as errors rather than plain denials.
func (m Middleware) RequirePage(path string, opts ...GuardOption) func(http.Handler) http.Handler {
	var cfg guardConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := m.currentUserID(r)
			if !ok {
				http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
				return
			}
			ev := m.Service.Evaluate(r.Context(), userID, path)
			if m.Recorder != nil {
				m.Recorder.RecordDecision(ev.Status.String())
			}
			switch {
			case ev.Status == StatusErrored:
				m.log().Error("permission check errored", slog.String("path", path), slog.Any("error", ev.Err))
				m.forbidden(w, r)
			case !ev.CanView, cfg.requireEdit && !ev.CanEdit:
				m.log().Info("permission denied", slog.String("path", path), slog.Int64("user_id", userID))
				m.forbidden(w, r)
			default:
				next.ServeHTTP(w, r.WithContext(ContextWithEvaluation(r.Context(), ev)))
			}
		})
	}
}

// RequireEdit is RequirePage with the edit grant required. Intended for
// mutation routes nested inside an already view-guarded group.
func (m Middleware) RequireEdit(path string) func(http.Handler) http.Handler {
	return m.RequirePage(path, WithEdit())
}

// Allows answers a path/action question for the request's user, for
// guarding links that point at other pages. Fails closed.
func (m Middleware) Allows(r *http.Request, path string, action Action) bool {
	userID, ok := m.currentUserID(r)
	if !ok {
		return false
	}
	return m.Service.Check(r.Context(), userID, path, action)
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		m.log().Error("parse session user id", slog.String("value", raw))
		return 0, false
	}
	return id, true
}

func (m Middleware) forbidden(w http.ResponseWriter, r *http.Request) {
	if m.Templates == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusForbidden)
	data := view.TemplateData{Title: "Limited Access", CurrentPath: r.URL.Path}
	if err := m.Templates.Render(w, "pages/forbidden.html", data); err != nil {
		m.log().Error("render forbidden page", slog.Any("error", err))
	}
}

func (m Middleware) log() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}
