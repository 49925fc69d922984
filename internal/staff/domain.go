package staff

import "time"

// Member is an external staff contact attached to the catering operation,
// such as a customer-side coordinator or venue manager.
type Member struct {
	ID           int64
	Name         string
	Designation  string
	Organisation string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ListFilters narrows and pages staff listings.
type ListFilters struct {
	Search  string
	Page    int
	PerPage int
}
