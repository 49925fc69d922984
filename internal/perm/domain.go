// Package perm implements the page-level permission model: per-path
// view/edit grants per role, a wildcard full-access row, and the matrix
// editor used to assign them.
package perm

// Wildcard is the page name sentinel matching every administrable page.
const Wildcard = "*"

// Action distinguishes read access from mutation access.
type Action string

const (
	// ActionView guards rendering a page.
	ActionView Action = "view"
	// ActionEdit guards mutations on a page.
	ActionEdit Action = "edit"
)

// Permission binds a role to a page path with view/edit grants.
// A row with neither grant set is semantically absent and is never
// persisted.
type Permission struct {
	ID       int64
	RoleID   int64
	PageName string
	CanView  bool
	CanEdit  bool
}

// Empty reports whether the row carries no grant at all.
func (p Permission) Empty() bool {
	return !p.CanView && !p.CanEdit
}

// RoleRef identifies a role for matrix editing without pulling in the
// full roles module.
type RoleRef struct {
	ID   int64
	Name string
}
