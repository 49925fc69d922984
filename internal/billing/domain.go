package billing

import "time"

// Entry is one day's consumption of a product by a program. Rate and
// amount are captured at entry time so later catalogue edits do not
// rewrite history.
type Entry struct {
	ID          int64
	ProgramID   int64
	ProgramName string
	ProductID   int64
	ProductName string
	EntryDate   time.Time
	Quantity    int
	Rate        float64
	Amount      float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Invoice aggregates a program's entries for one calendar month.
type Invoice struct {
	ID          int64
	Number      string
	ProgramID   int64
	ProgramName string
	PeriodStart time.Time
	Total       float64
	CreatedAt   time.Time
}

// InvoiceLine is one product aggregate on an invoice.
type InvoiceLine struct {
	ID          int64
	InvoiceID   int64
	ProductID   int64
	ProductName string
	Unit        string
	Quantity    int
	Rate        float64
	Amount      float64
}

// ReportLine is one program/package aggregate on the billing report.
type ReportLine struct {
	ProgramName string
	PackageName string
	Quantity    int
	Amount      float64
}

// EntryFilters narrows ListEntries.
type EntryFilters struct {
	ProgramID *int64
	From      time.Time
	To        time.Time
}
