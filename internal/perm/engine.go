package perm

import (
	"strings"

	"github.com/google/uuid"
)

// Evaluator decides whether a permission set grants an action on a path.
// Implementations are pure: they never error and deny on missing or
// ambiguous data.
type Evaluator interface {
	Allowed(perms []Permission, path string, action Action) bool
}

// NormalizePath canonicalises a request path before evaluation: query and
// fragment are cut, duplicate slashes collapse, dynamic segments (chi
// route params, numeric IDs, UUIDs) are stripped, and the trailing slash
// is removed. The empty path normalises to "/".
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(path, "/")
	kept := segments[:0]
	for _, seg := range segments {
		if seg == "" || isDynamicSegment(seg) {
			continue
		}
		kept = append(kept, seg)
	}
	if len(kept) == 0 {
		return "/"
	}
	return "/" + strings.Join(kept, "/")
}

func isDynamicSegment(seg string) bool {
	if strings.HasPrefix(seg, "{") || strings.HasPrefix(seg, ":") || seg == "*" {
		return true
	}
	if isNumeric(seg) {
		return true
	}
	return uuid.Validate(seg) == nil
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// StrictEvaluator is the canonical rule engine: a permission row matching
// the exact normalized path decides the outcome, even when it is more
// restrictive than the wildcard row. Without an exact row the wildcard
// row applies. There is no ancestor-path inheritance.
type StrictEvaluator struct{}

// Allowed implements Evaluator.
func (StrictEvaluator) Allowed(perms []Permission, path string, action Action) bool {
	norm := NormalizePath(path)
	if specific, ok := findPage(perms, norm); ok {
		return grants(specific, action)
	}
	if wildcard, ok := findPage(perms, Wildcard); ok && wildcard.CanView {
		if action == ActionEdit {
			return wildcard.CanEdit
		}
		return true
	}
	return false
}

// LegacyEvaluator is the ancestor-walking evaluator kept for the marketing
// site's coarse navigation check. Wildcard full access short-circuits
// first; then the exact row; then the nearest ancestor with a view grant,
// but only when the permission set holds no explicit row for the path or
// any of its descendants.
type LegacyEvaluator struct {
	// Ancestors maps a normalized path to the ordered chain of ancestor
	// paths consulted after the path itself. Paths without an entry have
	// no ancestors. Registry.AncestorTable derives the usual chains.
	Ancestors map[string][]string
}

// Allowed implements Evaluator.
func (e LegacyEvaluator) Allowed(perms []Permission, path string, action Action) bool {
	norm := NormalizePath(path)
	if wildcard, ok := findPage(perms, Wildcard); ok && wildcard.CanView {
		if action == ActionView || wildcard.CanEdit {
			return true
		}
	}
	if specific, ok := findPage(perms, norm); ok {
		return grants(specific, action)
	}
	if hasDescendantRow(perms, norm) {
		return false
	}
	for _, ancestor := range e.Ancestors[norm] {
		if row, ok := findPage(perms, ancestor); ok {
			return grants(row, action)
		}
	}
	return false
}

// ValidateHierarchy drops rows with an empty page name and passes the
// rest through unchanged. It is a pre-save sanitation step.
func ValidateHierarchy(perms []Permission) []Permission {
	out := make([]Permission, 0, len(perms))
	for _, p := range perms {
		if strings.TrimSpace(p.PageName) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func grants(p Permission, action Action) bool {
	if action == ActionEdit {
		return p.CanView && p.CanEdit
	}
	return p.CanView
}

func findPage(perms []Permission, page string) (Permission, bool) {
	for _, p := range perms {
		if p.PageName == page {
			return p, true
		}
	}
	return Permission{}, false
}

func hasDescendantRow(perms []Permission, path string) bool {
	prefix := path + "/"
	for _, p := range perms {
		if strings.HasPrefix(p.PageName, prefix) {
			return true
		}
	}
	return false
}
