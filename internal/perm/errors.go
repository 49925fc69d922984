package perm

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProfile indicates the authenticated user has no profile row.
	// Treated as deny-all, not a store failure.
	ErrNoProfile = errors.New("perm: no profile for user")
	// ErrNoRoleAssigned indicates a profile exists but carries no role.
	// Treated as deny-all, not a store failure.
	ErrNoRoleAssigned = errors.New("perm: no role assigned")
)

// StoreError wraps a transport or query failure talking to the
// permission store. Guards render the same denial page as an ordinary
// unauthorized result, but callers log the cause separately.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("perm: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// IsStoreError reports whether err originated in the permission store.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
