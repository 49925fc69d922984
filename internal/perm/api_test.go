package perm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sahyadri-hs/backoffice/internal/shared"
)

func navTestHandler(repo *memoryPermRepo) http.Handler {
	svc := NewService(repo, WithEvaluator(LegacyEvaluator{Ancestors: DefaultRegistry.AncestorTable()}))
	h := NewNavHandler(nil, svc, DefaultRegistry)
	r := chi.NewRouter()
	r.Route("/api/nav", h.MountRoutes)
	return r
}

func navGet(t *testing.T, h http.Handler, target, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != "" {
		sess := &shared.Session{}
		sess.SetUser(userID)
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNavRequiresUser(t *testing.T) {
	h := navTestHandler(newMemoryPermRepo())
	rec := navGet(t, h, "/api/nav", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNavInheritsSectionGrant(t *testing.T) {
	repo := newMemoryPermRepo()
	repo.roles[10] = 3
	repo.perms[3] = []Permission{
		{RoleID: 3, PageName: "/dashboard/consumers", CanView: true, CanEdit: true},
	}
	h := navTestHandler(repo)

	rec := navGet(t, h, "/api/nav", "10")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Pages []struct {
			Path    string `json:"path"`
			CanEdit bool   `json:"can_edit"`
		} `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	paths := map[string]bool{}
	for _, p := range body.Pages {
		paths[p.Path] = p.CanEdit
	}
	// Section grant reaches the section and, by ancestor walk, its pages.
	require.Contains(t, paths, "/dashboard/consumers")
	require.Contains(t, paths, "/dashboard/consumers/programs")
	require.True(t, paths["/dashboard/consumers/programs"])
	require.NotContains(t, paths, "/dashboard/billing")
}

func TestNavCheckEndpoint(t *testing.T) {
	repo := newMemoryPermRepo()
	repo.roles[10] = 3
	repo.perms[3] = []Permission{
		{RoleID: 3, PageName: "/dashboard/billing", CanView: true},
	}
	h := navTestHandler(repo)

	rec := navGet(t, h, "/api/nav/check?path=/dashboard/billing/entries/42", "10")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "/dashboard/billing/entries", body["path"])
	require.Equal(t, true, body["can_view"])
	require.Equal(t, false, body["can_edit"])

	rec = navGet(t, h, "/api/nav/check", "10")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
