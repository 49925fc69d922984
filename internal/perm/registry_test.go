package perm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry([]Page{
		{ID: "a", Path: "/a"},
		{ID: "a", Path: "/b"},
	})
	require.Error(t, err)

	_, err = NewRegistry([]Page{
		{ID: "a", Path: "/a"},
		{ID: "b", Path: "/a"},
	})
	require.Error(t, err)
}

func TestNewRegistryRejectsUnknownParent(t *testing.T) {
	_, err := NewRegistry([]Page{
		{ID: "child", Path: "/p/child", ParentID: "ghost"},
	})
	require.Error(t, err)
}

func TestNewRegistryDerivesDisplayName(t *testing.T) {
	r, err := NewRegistry([]Page{
		{ID: "reports", Path: "/dashboard/monthly-reports"},
	})
	require.NoError(t, err)
	page, ok := r.ByID("reports")
	require.True(t, ok)
	require.Equal(t, "Monthly Reports", page.DisplayName)
}

func TestRegistryChildrenSortedByPath(t *testing.T) {
	kids := DefaultRegistry.Children("consumers")
	require.Len(t, kids, 3)
	require.Equal(t, "/dashboard/consumers/participants", kids[0].Path)
	require.Equal(t, "/dashboard/consumers/programs", kids[1].Path)
	require.Equal(t, "/dashboard/consumers/staff", kids[2].Path)
}

func TestRegistryIsParent(t *testing.T) {
	require.True(t, DefaultRegistry.IsParent("billing"))
	require.False(t, DefaultRegistry.IsParent("billing-entries"))
	require.False(t, DefaultRegistry.IsParent("dashboard"))
}

func TestRegistryAncestorTable(t *testing.T) {
	table := DefaultRegistry.AncestorTable()
	require.Equal(t, []string{"/dashboard/billing"}, table["/dashboard/billing/entries"])
	require.Empty(t, table["/dashboard"])
}

func TestRegistryLookup(t *testing.T) {
	page, ok := DefaultRegistry.Lookup("/dashboard/users/permissions")
	require.True(t, ok)
	require.Equal(t, "users-permissions", page.ID)
	require.Equal(t, "users", page.ParentID)

	_, ok = DefaultRegistry.Lookup("/nope")
	require.False(t, ok)
}
