package perm

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Page describes one administrable page in the navigation hierarchy.
// Parent pages have no ParentID; children name their immediate parent.
type Page struct {
	ID          string
	Path        string
	DisplayName string
	ParentID    string
}

// CheckState is the aggregate of a parent's direct children in the matrix
// editor. It is a render-only projection, never stored.
type CheckState int

const (
	// NoneChecked means no direct child has the grant.
	NoneChecked CheckState = iota
	// SomeChecked means children disagree; rendered as indeterminate.
	SomeChecked
	// AllChecked means every direct child has the grant.
	AllChecked
)

// Registry is the static catalog of every administrable page. It is the
// single source of truth for which page paths exist: the matrix editor
// renders one row per entry and the guards only consult paths listed here.
type Registry struct {
	pages    []Page
	byID     map[string]Page
	byPath   map[string]Page
	children map[string][]Page
}

// NewRegistry validates and indexes a page list.
func NewRegistry(pages []Page) (*Registry, error) {
	r := &Registry{
		byID:     make(map[string]Page, len(pages)),
		byPath:   make(map[string]Page, len(pages)),
		children: make(map[string][]Page),
	}
	for _, p := range pages {
		if p.ID == "" || p.Path == "" {
			return nil, fmt.Errorf("perm: registry page requires id and path")
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("perm: duplicate page id %q", p.ID)
		}
		if _, dup := r.byPath[p.Path]; dup {
			return nil, fmt.Errorf("perm: duplicate page path %q", p.Path)
		}
		if p.DisplayName == "" {
			p.DisplayName = displayName(p.Path)
		}
		r.byID[p.ID] = p
		r.byPath[p.Path] = p
		r.pages = append(r.pages, p)
	}
	for _, p := range r.pages {
		if p.ParentID == "" {
			continue
		}
		if _, ok := r.byID[p.ParentID]; !ok {
			return nil, fmt.Errorf("perm: page %q references unknown parent %q", p.ID, p.ParentID)
		}
		r.children[p.ParentID] = append(r.children[p.ParentID], p)
	}
	return r, nil
}

// MustRegistry panics on an invalid page list. Intended for the static
// default catalog.
func MustRegistry(pages []Page) *Registry {
	r, err := NewRegistry(pages)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry catalogs the back-office dashboard pages.
var DefaultRegistry = MustRegistry([]Page{
	{ID: "dashboard", Path: "/dashboard", DisplayName: "Dashboard"},
	{ID: "consumers", Path: "/dashboard/consumers", DisplayName: "Consumer Management"},
	{ID: "consumers-programs", Path: "/dashboard/consumers/programs", DisplayName: "Programs", ParentID: "consumers"},
	{ID: "consumers-participants", Path: "/dashboard/consumers/participants", DisplayName: "Participants", ParentID: "consumers"},
	{ID: "consumers-staff", Path: "/dashboard/consumers/staff", DisplayName: "Staff", ParentID: "consumers"},
	{ID: "inventory", Path: "/dashboard/inventory", DisplayName: "Inventory Management"},
	{ID: "inventory-packages", Path: "/dashboard/inventory/packages", DisplayName: "Packages", ParentID: "inventory"},
	{ID: "inventory-products", Path: "/dashboard/inventory/products", DisplayName: "Products", ParentID: "inventory"},
	{ID: "billing", Path: "/dashboard/billing", DisplayName: "Billing"},
	{ID: "billing-entries", Path: "/dashboard/billing/entries", DisplayName: "Billing Entries", ParentID: "billing"},
	{ID: "billing-invoice", Path: "/dashboard/billing/invoice", DisplayName: "Invoices", ParentID: "billing"},
	{ID: "billing-reports", Path: "/dashboard/billing/reports", DisplayName: "Billing Reports", ParentID: "billing"},
	{ID: "users", Path: "/dashboard/users", DisplayName: "User Management"},
	{ID: "users-roles", Path: "/dashboard/users/roles", DisplayName: "Roles", ParentID: "users"},
	{ID: "users-permissions", Path: "/dashboard/users/permissions", DisplayName: "Permissions", ParentID: "users"},
})

// Pages returns every page in declaration order.
func (r *Registry) Pages() []Page {
	out := make([]Page, len(r.pages))
	copy(out, r.pages)
	return out
}

// Lookup finds a page by its path.
func (r *Registry) Lookup(path string) (Page, bool) {
	p, ok := r.byPath[path]
	return p, ok
}

// ByID finds a page by its identifier.
func (r *Registry) ByID(id string) (Page, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// Children returns the direct children of a page, sorted by path.
func (r *Registry) Children(parentID string) []Page {
	kids := make([]Page, len(r.children[parentID]))
	copy(kids, r.children[parentID])
	sort.Slice(kids, func(i, j int) bool { return kids[i].Path < kids[j].Path })
	return kids
}

// IsParent reports whether the page has at least one child.
func (r *Registry) IsParent(id string) bool {
	return len(r.children[id]) > 0
}

// ParentState aggregates the grant state of a parent's direct children
// for the given action: all, some or none of them hold it.
func (r *Registry) ParentState(rows map[string]Permission, parentID string, action Action) CheckState {
	kids := r.children[parentID]
	if len(kids) == 0 {
		return NoneChecked
	}
	checked := 0
	for _, kid := range kids {
		row, ok := rows[kid.Path]
		if !ok {
			continue
		}
		if (action == ActionView && row.CanView) || (action == ActionEdit && row.CanEdit) {
			checked++
		}
	}
	switch checked {
	case 0:
		return NoneChecked
	case len(kids):
		return AllChecked
	default:
		return SomeChecked
	}
}

// AncestorTable derives the legacy ancestor chains: every page maps to
// its parent chain walking ParentID upward, nearest first.
func (r *Registry) AncestorTable() map[string][]string {
	table := make(map[string][]string, len(r.pages))
	for _, p := range r.pages {
		var chain []string
		for cur := p; cur.ParentID != ""; {
			parent, ok := r.byID[cur.ParentID]
			if !ok {
				break
			}
			chain = append(chain, parent.Path)
			cur = parent
		}
		table[p.Path] = chain
	}
	return table
}

var titleCaser = cases.Title(language.English)

func displayName(path string) string {
	seg := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		seg = path[i+1:]
	}
	return titleCaser.String(strings.ReplaceAll(seg, "-", " "))
}
