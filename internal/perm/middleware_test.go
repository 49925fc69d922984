package perm

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sahyadri-hs/backoffice/internal/shared"
)

func guardedRequest(t *testing.T, userID string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/dashboard/billing", nil)
	if userID == "" {
		return r
	}
	sess := &shared.Session{}
	sess.SetUser(userID)
	return r.WithContext(shared.ContextWithSession(r.Context(), sess))
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequirePageRedirectsAnonymousToLogin(t *testing.T) {
	mw := Middleware{Service: NewService(newMemoryPermRepo())}
	var called bool
	h := mw.RequirePage("/dashboard/billing")(okHandler(&called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, guardedRequest(t, ""))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/auth/login", rec.Header().Get("Location"))
	require.False(t, called)
}

func TestRequirePageAdmitsViewGrant(t *testing.T) {
	repo := newMemoryPermRepo()
	repo.roles[10] = 3
	repo.perms[3] = []Permission{
		{RoleID: 3, PageName: "/dashboard/billing", CanView: true},
	}
	mw := Middleware{Service: NewService(repo)}

	var called bool
	var captured Evaluation
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		captured = EvaluationFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := mw.RequirePage("/dashboard/billing")(inner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, guardedRequest(t, "10"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, called)
	require.Equal(t, StatusAuthorized, captured.Status)
	require.True(t, captured.CanView)
	require.False(t, captured.CanEdit)
}

func TestRequirePageDeniesMissingGrant(t *testing.T) {
	repo := newMemoryPermRepo()
	repo.roles[10] = 3
	mw := Middleware{Service: NewService(repo)}
	var called bool
	h := mw.RequirePage("/dashboard/billing")(okHandler(&called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, guardedRequest(t, "10"))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, called)
}

func TestRequireEditDeniesViewOnlyGrant(t *testing.T) {
	repo := newMemoryPermRepo()
	repo.roles[10] = 3
	repo.perms[3] = []Permission{
		{RoleID: 3, PageName: "/dashboard/billing", CanView: true},
	}
	mw := Middleware{Service: NewService(repo)}
	var called bool
	h := mw.RequireEdit("/dashboard/billing")(okHandler(&called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, guardedRequest(t, "10"))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, called)
}

func TestRequirePageStoreFailureRendersDenial(t *testing.T) {
	repo := newMemoryPermRepo()
	repo.resolveErr[10] = storeErr("resolve role", errors.New("connection refused"))
	mw := Middleware{Service: NewService(repo)}
	var called bool
	h := mw.RequirePage("/dashboard/billing")(okHandler(&called))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, guardedRequest(t, "10"))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.False(t, called)
}

func TestAllowsFailsClosedForAnonymous(t *testing.T) {
	mw := Middleware{Service: NewService(newMemoryPermRepo())}
	require.False(t, mw.Allows(guardedRequest(t, ""), "/dashboard/billing", ActionView))
}

func TestAllowsAnswersPerAction(t *testing.T) {
	repo := newMemoryPermRepo()
	repo.roles[10] = 3
	repo.perms[3] = []Permission{
		{RoleID: 3, PageName: "/dashboard/billing", CanView: true},
	}
	mw := Middleware{Service: NewService(repo)}
	r := guardedRequest(t, "10")

	require.True(t, mw.Allows(r, "/dashboard/billing", ActionView))
	require.False(t, mw.Allows(r, "/dashboard/billing", ActionEdit))
	require.False(t, mw.Allows(r, "/dashboard/users", ActionView))
}

func TestEvaluationFromContextDefaultsToDeny(t *testing.T) {
	ev := EvaluationFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	require.Equal(t, StatusUnauthorized, ev.Status)
	require.False(t, ev.CanView)
	require.False(t, ev.CanEdit)
}
