package participants

import "time"

// Participant types distinguish how a consumer is billed: residents run
// through daily package billing, day visitors through per-product entries.
const (
	TypeResident = "resident"
	TypeDay      = "day"
)

// Participant is one consumer enrolled in a program.
type Participant struct {
	ID          int64
	ProgramID   int64
	ProgramName string
	Name        string
	Type        string
	CheckIn     time.Time
	CheckOut    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListFilters narrows and pages participant listings.
type ListFilters struct {
	ProgramID int64
	Search    string
	Page      int
	PerPage   int
}
