package perm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"root stays root", "/", "/"},
		{"empty becomes root", "", "/"},
		{"plain path unchanged", "/dashboard/users", "/dashboard/users"},
		{"trailing slash removed", "/dashboard/users/", "/dashboard/users"},
		{"query cut", "/dashboard/users?page=2", "/dashboard/users"},
		{"fragment cut", "/dashboard/users#top", "/dashboard/users"},
		{"double slashes collapse", "/dashboard//users", "/dashboard/users"},
		{"numeric id stripped", "/dashboard/users/42/role", "/dashboard/users/role"},
		{"chi param stripped", "/dashboard/users/{id}/role", "/dashboard/users/role"},
		{"colon param stripped", "/dashboard/users/:id", "/dashboard/users"},
		{"uuid stripped", "/dashboard/invoices/6ba7b810-9dad-11d1-80b4-00c04fd430c8", "/dashboard/invoices"},
		{"star stripped", "/dashboard/*", "/dashboard"},
		{"only dynamic segments become root", "/42/{id}", "/"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NormalizePath(tc.in))
		})
	}
}

func TestStrictEvaluatorDeniesByDefault(t *testing.T) {
	e := StrictEvaluator{}
	require.False(t, e.Allowed(nil, "/dashboard", ActionView))
	require.False(t, e.Allowed([]Permission{}, "/dashboard", ActionEdit))
}

func TestStrictEvaluatorExactRow(t *testing.T) {
	perms := []Permission{
		{RoleID: 3, PageName: "/dashboard/billing", CanView: true, CanEdit: false},
	}
	e := StrictEvaluator{}
	require.True(t, e.Allowed(perms, "/dashboard/billing", ActionView))
	require.False(t, e.Allowed(perms, "/dashboard/billing", ActionEdit))
	// No inheritance: the child path has no row and no wildcard exists.
	require.False(t, e.Allowed(perms, "/dashboard/billing/entries", ActionView))
}

func TestStrictEvaluatorSpecificOverridesWildcard(t *testing.T) {
	perms := []Permission{
		{RoleID: 3, PageName: Wildcard, CanView: true, CanEdit: true},
		{RoleID: 3, PageName: "/dashboard/users/roles", CanView: false, CanEdit: false},
	}
	e := StrictEvaluator{}
	// The restrictive exact row wins over the permissive wildcard.
	require.False(t, e.Allowed(perms, "/dashboard/users/roles", ActionView))
	require.False(t, e.Allowed(perms, "/dashboard/users/roles", ActionEdit))
	// Paths without an exact row fall back to the wildcard.
	require.True(t, e.Allowed(perms, "/dashboard/inventory", ActionView))
	require.True(t, e.Allowed(perms, "/dashboard/inventory", ActionEdit))
}

func TestStrictEvaluatorWildcardViewOnly(t *testing.T) {
	perms := []Permission{
		{RoleID: 5, PageName: Wildcard, CanView: true, CanEdit: false},
	}
	e := StrictEvaluator{}
	require.True(t, e.Allowed(perms, "/dashboard/billing", ActionView))
	require.False(t, e.Allowed(perms, "/dashboard/billing", ActionEdit))
}

func TestStrictEvaluatorWildcardWithoutViewGrantsNothing(t *testing.T) {
	perms := []Permission{
		{RoleID: 5, PageName: Wildcard, CanView: false, CanEdit: true},
	}
	e := StrictEvaluator{}
	require.False(t, e.Allowed(perms, "/dashboard", ActionView))
	require.False(t, e.Allowed(perms, "/dashboard", ActionEdit))
}

func TestStrictEvaluatorEditRequiresView(t *testing.T) {
	perms := []Permission{
		{RoleID: 5, PageName: "/dashboard/users", CanView: false, CanEdit: true},
	}
	e := StrictEvaluator{}
	require.False(t, e.Allowed(perms, "/dashboard/users", ActionEdit))
}

func TestStrictEvaluatorNormalizesBeforeMatching(t *testing.T) {
	perms := []Permission{
		{RoleID: 5, PageName: "/dashboard/users", CanView: true, CanEdit: true},
	}
	e := StrictEvaluator{}
	require.True(t, e.Allowed(perms, "/dashboard/users/17?tab=roles", ActionView))
	require.True(t, e.Allowed(perms, "/dashboard/users/{id}", ActionEdit))
}

func legacyTestEvaluator() LegacyEvaluator {
	return LegacyEvaluator{Ancestors: DefaultRegistry.AncestorTable()}
}

func TestLegacyEvaluatorWildcardShortCircuits(t *testing.T) {
	perms := []Permission{
		{RoleID: 1, PageName: Wildcard, CanView: true, CanEdit: true},
		{RoleID: 1, PageName: "/dashboard/users/roles", CanView: false},
	}
	e := legacyTestEvaluator()
	// Unlike the strict engine, legacy full access ignores the exact row.
	require.True(t, e.Allowed(perms, "/dashboard/users/roles", ActionView))
	require.True(t, e.Allowed(perms, "/dashboard/users/roles", ActionEdit))
}

func TestLegacyEvaluatorAncestorFallback(t *testing.T) {
	perms := []Permission{
		{RoleID: 2, PageName: "/dashboard/billing", CanView: true, CanEdit: true},
	}
	e := legacyTestEvaluator()
	// No row for the child, no descendant rows either: the parent decides.
	require.True(t, e.Allowed(perms, "/dashboard/billing/entries", ActionView))
	require.True(t, e.Allowed(perms, "/dashboard/billing/entries", ActionEdit))
}

func TestLegacyEvaluatorDescendantRowBlocksAncestorWalk(t *testing.T) {
	perms := []Permission{
		{RoleID: 2, PageName: "/dashboard/billing", CanView: true, CanEdit: true},
		{RoleID: 2, PageName: "/dashboard/billing/entries/archive", CanView: true},
	}
	e := legacyTestEvaluator()
	// A row for a descendant of the path suppresses inheritance.
	require.False(t, e.Allowed(perms, "/dashboard/billing/entries", ActionView))
}

func TestLegacyEvaluatorExactRowWinsOverAncestor(t *testing.T) {
	perms := []Permission{
		{RoleID: 2, PageName: "/dashboard/billing", CanView: true, CanEdit: true},
		{RoleID: 2, PageName: "/dashboard/billing/entries", CanView: true, CanEdit: false},
	}
	e := legacyTestEvaluator()
	require.True(t, e.Allowed(perms, "/dashboard/billing/entries", ActionView))
	require.False(t, e.Allowed(perms, "/dashboard/billing/entries", ActionEdit))
}

func TestValidateHierarchyDropsEmptyPageNames(t *testing.T) {
	in := []Permission{
		{RoleID: 1, PageName: "", CanView: true},
		{RoleID: 1, PageName: "   ", CanView: true},
		{RoleID: 1, PageName: "/dashboard", CanView: true},
	}
	out := ValidateHierarchy(in)
	require.Len(t, out, 1)
	require.Equal(t, "/dashboard", out[0].PageName)
}
