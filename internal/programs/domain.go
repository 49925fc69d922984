package programs

import "time"

// Program is a recurring catering engagement, such as a corporate mess
// contract or an event series. Participants and billing entries hang off
// a program.
type Program struct {
	ID                int64
	Name              string
	CustomerName      string
	StartDate         time.Time
	EndDate           time.Time
	TotalParticipants int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ListFilters narrows and pages program listings.
type ListFilters struct {
	Search  string
	Page    int
	PerPage int
}
