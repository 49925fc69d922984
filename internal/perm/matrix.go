package perm

import "sort"

// Matrix is the in-memory editing model behind the permission matrix
// screen. It holds one row per registry page plus the wildcard row and
// keeps the invariants the store expects while toggles are applied:
// an edit grant implies a view grant, revoking view revokes edit, and
// parent toggles cascade to direct children. Nothing here talks to the
// store; Save-ready rows come out of Rows().
type Matrix struct {
	roleID   int64
	registry *Registry
	rows     map[string]Permission
}

// NewMatrix seeds an editing matrix for a role from its stored rows.
// Pages with no stored row start with both grants off.
func NewMatrix(registry *Registry, roleID int64, stored []Permission) *Matrix {
	m := &Matrix{
		roleID:   roleID,
		registry: registry,
		rows:     make(map[string]Permission, len(registry.pages)+1),
	}
	m.rows[Wildcard] = Permission{RoleID: roleID, PageName: Wildcard}
	for _, p := range registry.pages {
		m.rows[p.Path] = Permission{RoleID: roleID, PageName: p.Path}
	}
	for _, row := range ValidateHierarchy(stored) {
		if _, known := m.rows[row.PageName]; !known {
			continue
		}
		row.RoleID = roleID
		if row.CanEdit {
			row.CanView = true
		}
		m.rows[row.PageName] = row
	}
	return m
}

// SetView toggles the view grant for a page, cascading per the editor
// rules: revoking view revokes edit on the same row; a parent's toggle
// applies to every direct child; granting view on the wildcard row turns
// on both grants for every row (full access).
func (m *Matrix) SetView(path string, on bool) {
	if path == Wildcard && on {
		m.grantAll()
		return
	}
	m.setView(path, on)
	for _, child := range m.childrenOf(path) {
		m.setView(child.Path, on)
	}
}

// SetEdit toggles the edit grant for a page. Granting edit forces view on
// the same row; parent toggles cascade to direct children. Child toggles
// never propagate upward.
func (m *Matrix) SetEdit(path string, on bool) {
	m.setEdit(path, on)
	for _, child := range m.childrenOf(path) {
		m.setEdit(child.Path, on)
	}
}

// Row returns the current state for a page path.
func (m *Matrix) Row(path string) Permission {
	return m.rows[path]
}

// ParentState projects the aggregate of a parent's direct children for
// rendering an indeterminate checkbox. It is never persisted.
func (m *Matrix) ParentState(parentID string, action Action) CheckState {
	return m.registry.ParentState(m.rows, parentID, action)
}

// Rows returns the save-ready set: rows with at least one grant, unique
// per page name, wildcard first then sorted by path.
func (m *Matrix) Rows() []Permission {
	out := make([]Permission, 0, len(m.rows))
	for _, row := range m.rows {
		if row.Empty() {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].PageName == Wildcard) != (out[j].PageName == Wildcard) {
			return out[i].PageName == Wildcard
		}
		return out[i].PageName < out[j].PageName
	})
	return out
}

// AllRows returns every row, including empty ones, for rendering the
// editor grid. Ordered like Rows().
func (m *Matrix) AllRows() []Permission {
	out := make([]Permission, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].PageName == Wildcard) != (out[j].PageName == Wildcard) {
			return out[i].PageName == Wildcard
		}
		return out[i].PageName < out[j].PageName
	})
	return out
}

// RoleID returns the role being edited.
func (m *Matrix) RoleID() int64 {
	return m.roleID
}

func (m *Matrix) setView(path string, on bool) {
	row, ok := m.rows[path]
	if !ok {
		return
	}
	row.CanView = on
	if !on {
		row.CanEdit = false
	}
	m.rows[path] = row
}

func (m *Matrix) setEdit(path string, on bool) {
	row, ok := m.rows[path]
	if !ok {
		return
	}
	row.CanEdit = on
	if on {
		row.CanView = true
	}
	m.rows[path] = row
}

func (m *Matrix) grantAll() {
	for path, row := range m.rows {
		row.CanView = true
		row.CanEdit = true
		m.rows[path] = row
	}
}

func (m *Matrix) childrenOf(path string) []Page {
	page, ok := m.registry.Lookup(path)
	if !ok {
		return nil
	}
	return m.registry.Children(page.ID)
}
